package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"tuition-backend/pkg/utils"
)

// PanicRecovery converts handler panics into a 500 response. No operation
// in the ledger is fatal to the process.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[Recovery] Panic on %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
