package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	fbauth "firebase.google.com/go/auth"

	"lostfound/auth"
	"lostfound/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// IDTokenVerifier verifies Firebase ID tokens. Implemented by
// *firebase.google.com/go/auth.Client.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// UserStore loads user profiles. Implemented by db.FirestoreDB.
type UserStore interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

// AuthMiddleware authenticates the bearer token — a backend service token
// or a Firebase ID token — loads the user's profile into context, and
// rejects disabled accounts.
func AuthMiddleware(verifier IDTokenVerifier, svcTokens *auth.ServiceTokens, store UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			token, err := auth.ExtractBearer(authHeader)
			if err != nil {
				writeError(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			// Service tokens verify locally; anything else goes to the
			// identity provider.
			var uid string
			if claims, err := svcTokens.Verify(token); err == nil {
				uid = claims.UID
			} else {
				decoded, err := verifier.VerifyIDToken(r.Context(), token)
				if err != nil {
					writeError(w, "Invalid or expired token", http.StatusUnauthorized)
					return
				}
				uid = decoded.UID
			}

			// Fetch the profile so role and disabled state are current.
			user, err := store.GetUser(r.Context(), uid)
			if err != nil {
				writeError(w, "User profile not found", http.StatusUnauthorized)
				return
			}

			if user.Disabled {
				reason := user.DisabledReason
				if reason == "" {
					reason = "Account disabled"
				}
				writeError(w, reason, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// RequireRole middleware checks if the user has one of the required roles
func RequireRole(allowedRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeError(w, "User not found in context", http.StatusUnauthorized)
				return
			}

			hasRole := false
			for _, role := range allowedRoles {
				if user.Role == role {
					hasRole = true
					break
				}
			}

			if !hasRole {
				writeError(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware sets CORS headers for allowed origins
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowed[origin] || allowed["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
