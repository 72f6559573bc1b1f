package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator defines the interface for validating access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*AuthClaims, error)
}

// AuthClaims identifies the acting user. The core trusts these values
// unconditionally once the middleware has validated the token.
type AuthClaims struct {
	UserID string
	Role   string
	Email  string
}

type (
	contextKeyUserID struct{}
	contextKeyRole   struct{}
	contextKeyEmail  struct{}
)

var (
	ContextKeyUserID = contextKeyUserID{}
	ContextKeyRole   = contextKeyRole{}
	ContextKeyEmail  = contextKeyEmail{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyUserID).(string); ok {
		return v
	}
	return ""
}

// GetRole retrieves the authenticated user's role from the context.
func GetRole(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRole).(string); ok {
		return v
	}
	return ""
}

// GetEmail retrieves the authenticated user's email from the context.
func GetEmail(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyEmail).(string); ok {
		return v
	}
	return ""
}

// WithAuth injects claims into a context; exported for handler tests.
func WithAuth(ctx context.Context, claims AuthClaims) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
	ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
	return context.WithValue(ctx, ContextKeyEmail, claims.Email)
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

// RequireAuth validates the bearer token and injects the acting user's
// identity into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), *claims)))
		})
	}
}

// RequireRole rejects authenticated users whose role does not match.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetRole(r.Context()) != role {
				logger.WarnContext(r.Context(), "forbidden - role mismatch",
					"required_role", role,
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
