package middleware

import (
	"net/http"
	"strconv"
	"time"

	"medication-tracker/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var httpRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "medtrack_http_requests_total",
		Help: "HTTP requests by method and status",
	},
	[]string{"method", "status"},
)

func init() {
	prometheus.MustRegister(httpRequests)
}

// RequestLogger loguea cada request con el request id de chi.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			httpRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()

			log.Debug("http request", map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  chimw.GetReqID(r.Context()),
			})
		})
	}
}
