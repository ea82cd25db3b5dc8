package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/health-assistant/backend/pkg/log"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Limit(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/ask", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("other clients must have their own bucket, got %d", resp.Code)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	limiter.GetLimiterFrom("10.0.0.1")
	clock = clock.Add(9 * time.Minute)
	limiter.GetLimiterFrom("10.0.0.2")
	clock = clock.Add(2 * time.Minute)

	if removed := limiter.Cleanup(10 * time.Minute); removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}
	if limiter.Len() != 1 {
		t.Fatalf("expected 1 tracked client, got %d", limiter.Len())
	}

	clock = clock.Add(10 * time.Minute)
	limiter.Cleanup(10 * time.Minute)
	if limiter.Len() != 0 {
		t.Fatalf("expected all idle clients evicted, got %d", limiter.Len())
	}
}

func TestRateLimiterRunStopsWithContext(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		limiter.Run(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing allow-origin header")
	}
}

func TestRequestLoggerPropagatesRequestID(t *testing.T) {
	var seen string

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		seen, _ = log.WithRequestID(req.Context()).Data["request_id"].(string)
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-42")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusTeapot {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if seen != "req-42" {
		t.Fatalf("expected request id to reach handler context, got %q", seen)
	}
}
