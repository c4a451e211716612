package middleware

import (
	"log"
	"net/http"
	"strings"

	"classroom-backend/internal/identity"
)

// RequireRole admits requests whose bearer token the verifier accepts and
// whose role is role. A nil verifier admits every request.
func RequireRole(v identity.Verifier, role string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if v == nil {
			return next
		}

		return func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			u, err := v.Verify(r.Context(), tokenString)
			if err != nil {
				log.Printf("[IDENTITY]: rejected bearer token for %s: %v", r.URL.Path, err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if u.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next(w, r)
		}
	}
}

// RequireTeacher is RequireRole for the teacher role.
func RequireTeacher(v identity.Verifier) Middleware {
	return RequireRole(v, identity.RoleTeacher)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
