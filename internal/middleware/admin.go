package middleware

import "net/http"

// AdminOnly guards maintenance routes behind the operator allowlist. The
// gateway asserts the caller's email in X-Actor-Email; isAdmin is the
// configured allowlist check.
func AdminOnly(isAdmin func(email string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := r.Header.Get("X-Actor-Email")
			if email == "" || !isAdmin(email) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
