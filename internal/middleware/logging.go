package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/health-assistant/backend/pkg/log"
)

// RequestLogger copies the chi request id into the logging context and writes
// one access line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := chimw.GetReqID(r.Context())
		if requestID == "" {
			requestID = "unknown"
		}
		r = r.WithContext(log.ContextWithRequestID(r.Context(), requestID))

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		fields := log.Fields{
			"request_id":    requestID,
			"method":        r.Method,
			"path":          r.URL.Path,
			"status":        status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"ip":            r.RemoteAddr,
			"user_agent":    r.UserAgent(),
			"response_size": ww.BytesWritten(),
		}

		if status >= 500 {
			log.Error(fields, "Server error")
		} else if status >= 400 {
			log.Warn(fields, "Client error")
		} else {
			log.Info(fields, "Success")
		}
	})
}
