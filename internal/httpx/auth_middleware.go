package httpx

import (
	"context"
	"net/http"
	"strings"

	"spielapi/internal/platform/crypto"
)

// Blacklist reports revoked token ids.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func AuthMiddleware(secret string, blacklist Blacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
				return
			}

			claims, err := crypto.ParseToken(secret, token)
			if err != nil {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil)
				return
			}

			if blacklist != nil {
				revoked, err := blacklist.IsBlacklisted(r.Context(), claims.ID)
				if err != nil || revoked {
					JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", nil)
					return
				}
			}

			ctx := ContextWithUser(r.Context(), claims.Sub, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles rejects requests whose user holds none of roles. It must run
// after AuthMiddleware.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFrom(r) == "" {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", nil)
				return
			}
			for _, have := range RolesFrom(r) {
				for _, want := range roles {
					if have == want {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "Insufficient role", nil)
		})
	}
}
