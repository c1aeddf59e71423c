package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/auth"
	"github.com/technosupport/vms-inventory/internal/tokens"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (*tokens.Claims, error)
}

type JWTAuth struct {
	tokens    TokenValidator
	blacklist auth.TokenBlacklist
	log       *zap.Logger
}

func NewJWTAuth(t TokenValidator, b auth.TokenBlacklist, log *zap.Logger) *JWTAuth {
	if log == nil {
		log = zap.NewNop()
	}
	return &JWTAuth{tokens: t, blacklist: b, log: log.Named("jwt")}
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Gate is the single authorization decision for a route. Public routes pass
// through untouched; every other route needs a valid, unrevoked access token.
func (m *JWTAuth) Gate(public bool) func(http.Handler) http.Handler {
	if public {
		return func(next http.Handler) http.Handler { return next }
	}
	return m.Middleware
}

// Middleware verifies the JWT and injects AuthContext
func (m *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := BearerToken(r)
		if !ok {
			unauthorized(w, "missing bearer token")
			return
		}

		claims, err := m.tokens.ValidateToken(tokenString)
		if err != nil || claims.TokenType != tokens.Access {
			unauthorized(w, "invalid token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		// Fail closed when the blacklist cannot be consulted.
		revoked, err := m.blacklist.IsBlacklisted(r.Context(), claims.ID)
		if err != nil {
			m.log.Error("blacklist lookup failed", zap.Error(err))
			unauthorized(w, "token could not be verified")
			return
		}
		if revoked {
			unauthorized(w, "token has been revoked")
			return
		}

		ctx := WithAuthContext(r.Context(), &AuthContext{
			UserID:  userID,
			Role:    claims.Role,
			TokenID: claims.ID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="vms-inventory"`)
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
