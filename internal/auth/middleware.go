package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	memberIDKey   contextKey = "member_id"
	memberNameKey contextKey = "member_name"
	emailKey      contextKey = "member_email"
	roleKey       contextKey = "member_role"
)

// MemberFromContext retrieves the authenticated member ID from the request
// context. Returns an empty string if no member is set.
func MemberFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(memberIDKey).(string); ok {
		return id
	}
	return ""
}

// NameFromContext retrieves the member display name from the request context.
func NameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(memberNameKey).(string); ok {
		return name
	}
	return ""
}

// EmailFromContext retrieves the member email from the request context.
func EmailFromContext(ctx context.Context) string {
	if email, ok := ctx.Value(emailKey).(string); ok {
		return email
	}
	return ""
}

// RoleFromContext retrieves the member role from the request context.
func RoleFromContext(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

// JWTAuth returns an HTTP middleware that validates JWT Bearer tokens.
// It extracts the JWT from the Authorization header, validates it,
// and injects member claims into the request context.
func JWTAuth(jwtService *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"authorization header required"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, `{"error":"invalid authorization format, expected Bearer <token>"}`, http.StatusUnauthorized)
				return
			}

			tokenStr := parts[1]
			if tokenStr == "" {
				http.Error(w, `{"error":"empty token"}`, http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateAccessToken(tokenStr)
			if err != nil {
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			if claims.Subject == "" {
				http.Error(w, `{"error":"invalid token claims"}`, http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, memberIDKey, claims.Subject)
			ctx = context.WithValue(ctx, memberNameKey, claims.Name)
			ctx = context.WithValue(ctx, emailKey, claims.Email)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
