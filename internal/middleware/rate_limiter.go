package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/zhouzirui/health-assistant/backend/pkg/log"
	"github.com/zhouzirui/health-assistant/backend/pkg/response"
	"github.com/zhouzirui/health-assistant/backend/pkg/utils"
)

var (
	ErrTooManyRequests = response.NewError(http.StatusTooManyRequests, "too many requests")
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	bucket    map[string]*visitor
	rate      rate.Limit
	burstSize int
	mutex     sync.Mutex
	now       func() time.Time
}

func NewRateLimiter(reqRate float64, burstSize int) *RateLimiter {
	return &RateLimiter{
		bucket:    make(map[string]*visitor),
		rate:      rate.Limit(reqRate),
		burstSize: burstSize,
		now:       time.Now,
	}
}

func (r *RateLimiter) GetLimiterFrom(ip string) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	v, exist := r.bucket[ip]
	if !exist {
		v = &visitor{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.bucket[ip] = v
	}
	v.lastSeen = r.now()

	return v.limiter
}

// Cleanup drops buckets not used within idle and returns how many were removed.
func (r *RateLimiter) Cleanup(idle time.Duration) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	removed := 0
	for ip, v := range r.bucket {
		if now.Sub(v.lastSeen) > idle {
			delete(r.bucket, ip)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked clients.
func (r *RateLimiter) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.bucket)
}

// Run evicts idle buckets every interval until ctx is cancelled.
func (r *RateLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Cleanup(idle); n > 0 {
				log.Debug(log.Fields{"evicted": n}, "rate limiter buckets evicted")
			}
		}
	}
}

// Limit rejects requests over the per-IP budget with 429.
func (r *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		clientIP := clientIP(req)
		if !r.GetLimiterFrom(clientIP).Allow() {
			log.WithRequestID(req.Context()).Warnf("too many requests for IP %s", clientIP)
			utils.RespondErr(w, ErrTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// clientIP strips the port; RealIP upstream has already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
