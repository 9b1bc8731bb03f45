package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/models"
	"github.com/Renal37/bankaccount/internal/services"
)

// userFieldType is the context key type of the authenticated user
type userFieldType string

// userField is the context key the authenticated user is stored under
const userField userFieldType = "userField"

// AuthMiddlewareConfig configures the bearer token authentication middleware
type AuthMiddlewareConfig struct {
	excludePaths []string
}

// AuthMiddleware creates a configuration that authenticates every path
func AuthMiddleware() *AuthMiddlewareConfig {
	return &AuthMiddlewareConfig{}
}

// WithExcludedPaths lets requests whose path starts with one of paths through without a token.
func (a *AuthMiddlewareConfig) WithExcludedPaths(paths ...string) *AuthMiddlewareConfig {
	a.excludePaths = paths
	return a
}

// Middleware authenticates the bearer token and stores its user in the request context.
func (a *AuthMiddlewareConfig) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Public paths skip authentication
		for _, path := range a.excludePaths {
			if strings.HasPrefix(r.URL.Path, path) {
				next.ServeHTTP(w, r)
				return
			}
		}

		authService := GetServiceFromContext[models.AuthService](w, r, AuthServiceKey)
		if authService == nil {
			return
		}
		jwtService := GetServiceFromContext[models.JWTService](w, r, JwtServiceKey)
		if jwtService == nil {
			return
		}

		// Extracting the token from the header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			http.Error(w, "Bearer token is empty", http.StatusUnauthorized)
			return
		}

		token, err := (*jwtService).ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrTokenIsInvalid) {
				http.Error(w, "Token is invalid", http.StatusUnauthorized)
				return
			}

			if errors.Is(err, services.ErrTokenIsExpired) {
				http.Error(w, "Token is expired", http.StatusUnauthorized)
				return
			}

			http.Error(w, fmt.Sprintf("Error occurred during token validation: %s", err.Error()), http.StatusUnauthorized)
			return
		}

		// The subject of the token is the login of its user
		login, err := token.Claims.GetSubject()
		if err != nil {
			http.Error(w, fmt.Sprintf("Error occurred during reading sub claim: %s", err.Error()), http.StatusUnauthorized)
			return
		}

		user, err := (*authService).GetUser(r.Context(), login)
		if err != nil {
			if errors.Is(err, services.ErrUserIsNotExist) {
				http.Error(w, fmt.Sprintf("User with login %s doesn't exist", login), http.StatusUnauthorized)
				return
			}

			http.Error(w, fmt.Sprintf("Error occurred during checking user login: %s", err.Error()), http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userField, user)))
	})
}

// GetUserFromContext writes a 500 and returns nil when the request was not authenticated.
func GetUserFromContext(w http.ResponseWriter, r *http.Request) *models.User {
	user, ok := r.Context().Value(userField).(*models.User)

	if !ok {
		http.Error(w, "Could not retrieve user from context", http.StatusInternalServerError)
		return nil
	}

	return user
}

// GetCallerFromContext returns the ledger identity of the authenticated user.
func GetCallerFromContext(w http.ResponseWriter, r *http.Request) (ledger.Identity, bool) {
	user := GetUserFromContext(w, r)
	if user == nil {
		return "", false
	}
	return ledger.Identity(user.Login), true
}
