package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"dairy-backend/pkg/utils"
)

// PanicRecovery turns a handler panic into a 500 response so one bad request
// cannot take the server down. The stack goes to the log, not to the client.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				log.Printf("[Recovery] panic on %s %s: %v\n%s", r.Method, r.URL.Path, v, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
