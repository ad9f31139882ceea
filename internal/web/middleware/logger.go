package middleware

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-attendance/internal/logging"
)

// RequestLogger stores a request-scoped logrus entry in the context and logs
// one line per completed request. It must run after chi's RequestID.
func RequestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := logrus.NewEntry(logger).WithFields(logrus.Fields{
				"request_id": chiMiddleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
			})

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				fields := logrus.Fields{
					"status":      ww.Status(),
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(start).Milliseconds(),
					"remote_addr": r.RemoteAddr,
				}
				if ww.Status() >= http.StatusInternalServerError {
					entry.WithFields(fields).Error("request completed")
					return
				}
				entry.WithFields(fields).Info("request completed")
			}()

			next.ServeHTTP(ww, r.WithContext(logging.WithContext(r.Context(), entry)))
		})
	}
}
