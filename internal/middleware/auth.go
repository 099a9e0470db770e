package middleware

import (
	"context"
	"net/http"
	"strings"

	"dairy-backend/internal/auth"
	"dairy-backend/internal/repositories"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const EmailKey contextKey = "email"
const RoleKey contextKey = "role"

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	userRepo   *repositories.UserRepository
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, userRepo *repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		userRepo:   userRepo,
	}
}

// Authenticate validates the bearer token and loads the account from the
// database so a deactivated account is cut off immediately, not at token
// expiry.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		user, err := m.userRepo.Get(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}
		if !user.IsActive {
			http.Error(w, "Account suspended. Please contact administrator.", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
		ctx = context.WithValue(ctx, EmailKey, user.Email)
		ctx = context.WithValue(ctx, RoleKey, user.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole wraps Authenticate and additionally checks the account's role.
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRoleFromContext(r.Context())
			if !ok {
				http.Error(w, "Role not found", http.StatusForbidden)
				return
			}
			for _, allowed := range allowedRoles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
		}))
	}
}

// RequireAdmin is shorthand for RequireRole("admin").
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole("admin")(next)
}

// GetUserIDFromContext extracts the authenticated user's ID.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}
