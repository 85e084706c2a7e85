package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPMetricsMiddleware instruments requests with Prometheus metrics
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// WebSocket upgrades need the raw ResponseWriter (Hijacker).
		if strings.HasPrefix(r.URL.Path, "/ws/") {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		dur := time.Since(start)
		ObserveHTTPRequest(r.Method, pathLabel(r.URL.Path), strconv.Itoa(ww.status), dur)
	})
}

// pathLabel collapses per-record paths so feedback ids don't blow up the
// label cardinality.
func pathLabel(path string) string {
	if strings.HasPrefix(path, "/api/feedback/") {
		if strings.HasSuffix(path, "/acknowledge") {
			return "/api/feedback/{id}/acknowledge"
		}
		return "/api/feedback/{id}"
	}
	return path
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
