package middleware

import (
	"context"
)

type contextKey string

const (
	AuthContextKey contextKey = "auth_context"
	requestIDKey   contextKey = "request_id"
)

// AuthContext holds the authenticated caller's identity.
type AuthContext struct {
	UserID  int64
	Role    string
	TokenID string // jti
}

// GetAuthContext retrieves the AuthContext from the context
func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	val, ok := ctx.Value(AuthContextKey).(*AuthContext)
	return val, ok
}

// WithAuthContext attaches the AuthContext to the context
func WithAuthContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKey, auth)
}

// UserID returns the caller's id, or 0 for anonymous requests.
func UserID(ctx context.Context) int64 {
	if ac, ok := GetAuthContext(ctx); ok {
		return ac.UserID
	}
	return 0
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
