package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/devcoregroup/lox/backend/internal/logging"
)

// RequestLogger attaches a request-scoped logger to the context and logs
// each completed request.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := log.WithFields(logrus.Fields{
				"http.req.id":     chimw.GetReqID(r.Context()),
				"http.req.method": r.Method,
				"http.req.path":   r.URL.Path,
			})

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), entry)))

			entry.WithFields(logrus.Fields{
				"http.resp.took_ms": time.Since(start).Milliseconds(),
				"http.resp.status":  ww.Status(),
				"http.resp.bytes":   ww.BytesWritten(),
			}).Debug("request complete")
		})
	}
}
