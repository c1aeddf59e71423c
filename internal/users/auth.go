package users

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/auth"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/tokens"
	"github.com/technosupport/vms-inventory/internal/validate"
)

var (
	ErrBadCredentials = apperr.Unauthenticated("invalid username or password")
	ErrUserDisabled   = apperr.Unauthenticated("user is disabled")
	ErrTokenRevoked   = apperr.Unauthenticated("token has been revoked")
)

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

type roleLookup interface {
	GetByID(ctx context.Context, id int64) (*data.Role, error)
}

// AuthService issues and revokes tokens for stored users.
type AuthService struct {
	users     Repository
	roles     roleLookup
	hasher    PasswordHasher
	tokens    *tokens.Manager
	blacklist auth.TokenBlacklist
	log       *zap.Logger
}

func NewAuthService(users Repository, roles roleLookup, hasher PasswordHasher, tm *tokens.Manager, bl auth.TokenBlacklist, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, roles: roles, hasher: hasher, tokens: tm, blacklist: bl, log: log.Named("auth")}
}

func (s *AuthService) Login(ctx context.Context, c Credentials) (*TokenPair, error) {
	if err := validate.Struct(c); err != nil {
		return nil, err
	}
	u, err := s.users.GetByUsername(ctx, c.Username)
	if errors.Is(err, data.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, apperr.FromStorage("user lookup", err)
	}

	ok, err := s.hasher.Verify(c.Password, u.PasswordHash)
	if err != nil {
		s.log.Warn("stored hash unreadable", zap.Int64("user_id", u.ID), zap.Error(err))
		return nil, ErrBadCredentials
	}
	if !ok {
		return nil, ErrBadCredentials
	}
	if !u.Status {
		return nil, ErrUserDisabled
	}
	s.upgradeHash(ctx, u, c.Password)

	return s.issue(ctx, u)
}

// upgradeHash re-hashes the password under the current parameters. Failure
// only costs another attempt on the next login.
func (s *AuthService) upgradeHash(ctx context.Context, u *data.User, password string) {
	if !s.hasher.NeedsRehash(u.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn("rehash failed", zap.Int64("user_id", u.ID), zap.Error(err))
		return
	}
	upgraded := *u
	upgraded.PasswordHash = hash
	if err := s.users.Update(ctx, &upgraded); err != nil {
		s.log.Warn("storing upgraded hash failed", zap.Int64("user_id", u.ID), zap.Error(err))
		return
	}
	u.PasswordHash = hash
}

// Refresh exchanges a refresh token for a new pair and revokes the old one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.check(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokens.Refresh {
		return nil, apperr.Unauthenticated("not a refresh token")
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, apperr.Unauthenticated("invalid token subject")
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, data.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("user no longer exists")
	}
	if err != nil {
		return nil, apperr.FromStorage("user lookup", err)
	}
	if !u.Status {
		return nil, ErrUserDisabled
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.check(ctx, token)
	if err != nil {
		return err
	}
	return s.revoke(ctx, claims)
}

func (s *AuthService) check(ctx context.Context, token string) (*tokens.Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.Unauthorized, Message: "invalid token", Err: err}
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.Unexpected, Message: "blacklist lookup failed", Err: err}
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (s *AuthService) revoke(ctx context.Context, claims *tokens.Claims) error {
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, ttl); err != nil {
		return &apperr.Error{Kind: apperr.Unexpected, Message: "token revoke failed", Err: err}
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, u *data.User) (*TokenPair, error) {
	roleName := ""
	if r, err := s.roles.GetByID(ctx, u.RoleID); err == nil {
		roleName = r.Name
	} else if !errors.Is(err, data.ErrRecordNotFound) {
		return nil, apperr.FromStorage("role lookup", err)
	}

	access, err := s.tokens.GenerateAccessToken(u.ID, roleName)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.Unexpected, Message: "token signing failed", Err: err}
	}
	refresh, err := s.tokens.GenerateRefreshToken(u.ID, roleName)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.Unexpected, Message: "token signing failed", Err: err}
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(tokens.AccessTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}
