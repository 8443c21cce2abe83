package middlewarex

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"creditgw/internal/config"
	"creditgw/internal/provider"
)

// AdminAuth accepts the admin token from X-Admin-Token or an Authorization bearer.
// An empty configured token rejects every request.
func AdminAuth(cfg config.Cfg) func(http.Handler) http.Handler {
	want := []byte(cfg.Sec.AdminToken)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if got == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					got = strings.TrimPrefix(auth, "Bearer ")
				}
			}
			if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(provider.Fail("Authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
