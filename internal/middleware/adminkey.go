package middleware

import (
	"crypto/subtle"
	"net/http"

	"cardvault-rest-api/pkg/apierror"
)

// NewAdminKeyMiddleware gates admin routes behind a shared login key
// sent in the X-Login-Key header. An empty configured key disables the
// gate, keeping local development friction-free.
func NewAdminKeyMiddleware(loginKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if loginKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-Login-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(loginKey)) != 1 {
				writeError(w, apierror.Unauthorized("Invalid or missing login key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
