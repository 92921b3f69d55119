package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/apadua/MeTransfer/internal/logging"
)

// adminSecret extracts the shared secret from the request: either the
// X-Admin-Password header or the basic-auth password.
func adminSecret(r *http.Request) string {
	if secret := r.Header.Get("X-Admin-Password"); secret != "" {
		return secret
	}
	if _, pw, ok := r.BasicAuth(); ok {
		return pw
	}
	return ""
}

// RequireAdmin wraps a handler with the shared-secret check. The secret is
// compared against the configured bcrypt hash; with no hash configured the
// admin surface is disabled entirely rather than left open.
func (h *Handlers) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.config.AdminPasswordHash == "" {
			writeJSONError(w, "admin access not configured", http.StatusServiceUnavailable)
			return
		}
		secret := adminSecret(r)
		if secret == "" {
			writeJSONError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h.config.AdminPasswordHash), []byte(secret)); err != nil {
			logging.Warn("rejected admin request from %s to %s", r.RemoteAddr, r.URL.Path)
			writeJSONError(w, "authentication failed", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
