package httpx

import (
	"net/http"
	"runtime/debug"

	"spielapi/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func RecoveryMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil || rec == http.ErrAbortHandler {
					if rec != nil {
						panic(rec)
					}
					return
				}
				log.Error("panic recovered",
					"request_id", RequestIDFrom(r),
					"error", rec,
					"stack", string(debug.Stack()),
				)

				if ww, ok := w.(chimw.WrapResponseWriter); ok && ww.Status() != 0 {
					return
				}
				JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred", nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
