package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/transactsync/transactsync/ledger"
)

// APIKeyHeader carries the shared secret on every gated request.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests whose X-API-Key header does not equal key
// with 403. An empty key disables the gate.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeClientError(w, ledger.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
