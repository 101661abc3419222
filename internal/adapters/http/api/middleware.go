package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/spraycam/pkg/metrics"
)

// MetricsMiddleware records request count and latency for endpoint, and an
// error by kind for every 4xx or 5xx answer.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		code := strconv.Itoa(rec.code)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(time.Since(start).Milliseconds()))
		if kind := errorKind(rec.code); kind != "" {
			metrics.RecordErrorByComponent("http_"+endpoint, kind)
		}
	}
}

// errorKind maps an HTTP status to the error label, or "" for success.
func errorKind(code int) string {
	switch {
	case code < http.StatusBadRequest:
		return ""
	case code == http.StatusNotFound:
		return "not_found"
	case code == http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case code < http.StatusInternalServerError:
		return "client_error"
	case code == http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "server_error"
	}
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}
