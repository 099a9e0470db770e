package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// RequestLogging logs each API request with its status and latency. Metrics
// and websocket endpoints are skipped to keep the log readable.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" || strings.HasPrefix(r.URL.Path, "/api/monitoring/ws") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(wrapped, r)

		log.Printf("[API] %s %s %d %s", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start).Round(time.Millisecond))
	})
}
