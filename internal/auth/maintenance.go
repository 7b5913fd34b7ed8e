package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/appetiteclub/apt"
)

const MaintenanceKeyHeader = "X-Maintenance-Key"

// RequireMaintenanceKey guards housekeeping endpoints. With no key configured
// the endpoint is open only when allowOpen is set (development).
func RequireMaintenanceKey(key string, allowOpen bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				if allowOpen {
					next.ServeHTTP(w, r)
					return
				}
				apt.RespondError(w, http.StatusForbidden, "Maintenance endpoints are disabled")
				return
			}

			got := r.Header.Get(MaintenanceKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				apt.RespondError(w, http.StatusUnauthorized, "Invalid maintenance key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
