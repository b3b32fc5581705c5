package httpx

import (
	"net/http"
	"time"

	"spielapi/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLogMiddleware logs one line per request. It wraps the response writer
// so later middleware can inspect the status.
func AccessLogMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww, ok := w.(chimw.WrapResponseWriter)
			if !ok {
				ww = chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			}

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestIDFrom(r),
				"remote", r.RemoteAddr,
			)
		})
	}
}
