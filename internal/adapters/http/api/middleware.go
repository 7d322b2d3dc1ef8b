// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/okian/formmatch/pkg/metrics"
)

// errorClass labels a failed response in the error metrics.
type errorClass struct {
	kind     string
	severity string
}

// knownErrors maps the statuses this API produces to metric labels.
var knownErrors = map[int]errorClass{
	http.StatusBadRequest:            {"client_error", "medium"},
	http.StatusNotFound:              {"not_found", "medium"},
	http.StatusMethodNotAllowed:      {"client_error", "medium"},
	http.StatusRequestEntityTooLarge: {"too_large", "medium"},
	http.StatusUnsupportedMediaType:  {"unsupported_media", "medium"},
	http.StatusInternalServerError:   {"server_error", "high"},
	http.StatusServiceUnavailable:    {"unavailable", "high"},
	http.StatusGatewayTimeout:        {"timeout", "high"},
}

// classifyStatus returns the error labels for a status of 400 or above.
func classifyStatus(status int) errorClass {
	if c, ok := knownErrors[status]; ok {
		return c
	}
	if status >= http.StatusInternalServerError {
		return errorClass{"server_error", "high"}
	}
	return errorClass{"client_error", "medium"}
}

// Instrument records request counts, latency and error metrics for one
// endpoint label.
func Instrument(endpoint string) func(next http.Handler) http.Handler {
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
			ms := float64(time.Since(start).Microseconds()) / 1000

			metrics.RecordHTTPRequest(endpoint, r.Method, code)
			metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, ms)
			if status < http.StatusBadRequest {
				return
			}
			c := classifyStatus(status)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, c.kind)
			metrics.RecordErrorByType(c.kind, c.severity)
			metrics.RecordErrorLatency("http", c.kind, ms)
		})
	}
}
