package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/udrf/pkg/logger"
	"github.com/okian/udrf/pkg/metrics"
)

// instrument records request count, latency and error class for endpoint.
// Server errors are also logged with the request ID.
func (s *Server) instrument(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			code := strconv.Itoa(status)
			metrics.RecordHTTPRequest(endpoint, r.Method, code)
			metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(time.Since(start).Milliseconds()))
			if status < http.StatusBadRequest {
				return
			}
			metrics.RecordError("http_"+endpoint, errorClass(status))
			if status >= http.StatusInternalServerError {
				s.log.With(
					logger.String("request_id", middleware.GetReqID(r.Context())),
					logger.String("endpoint", endpoint),
				).Error(r.Context(), "request failed", logger.Int("status", status))
			}
		})
	}
}

// errorClass buckets a status code into a low-cardinality metric label.
func errorClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "backpressure"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusConflict:
		return "conflict"
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return "auth"
	default:
		return "client_error"
	}
}
