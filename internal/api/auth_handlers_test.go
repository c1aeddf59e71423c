package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/api"
	"github.com/technosupport/vms-inventory/internal/auth"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/middleware"
	"github.com/technosupport/vms-inventory/internal/tokens"
	"github.com/technosupport/vms-inventory/internal/users"
)

// userStore holds a single account; only the lookups used by login and
// refresh are meaningful.
type userStore struct {
	user *data.User
}

func (s *userStore) Create(context.Context, *data.User) error { return nil }
func (s *userStore) GetByID(_ context.Context, id int64) (*data.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, data.ErrRecordNotFound
	}
	return s.user, nil
}
func (s *userStore) GetByUsername(_ context.Context, name string) (*data.User, error) {
	if s.user == nil || s.user.Username != name {
		return nil, data.ErrRecordNotFound
	}
	return s.user, nil
}
func (s *userStore) Update(context.Context, *data.User) error           { return nil }
func (s *userStore) SetStatus(context.Context, int64, bool) error       { return nil }
func (s *userStore) Delete(context.Context, int64) error                { return nil }
func (s *userStore) ListWithRole(context.Context) ([]*data.User, error) { return nil, nil }
func (s *userStore) Page(context.Context, int, int) ([]*data.User, int, error) {
	return nil, 0, nil
}

type roleStore struct{}

func (roleStore) GetByID(_ context.Context, id int64) (*data.Role, error) {
	if id != 1 {
		return nil, data.ErrRecordNotFound
	}
	return &data.Role{ID: 1, Name: "Admin", Status: true}, nil
}

func newAuthServer(t *testing.T, status bool) http.Handler {
	t.Helper()
	hasher := auth.NewHasher(auth.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	hash, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	store := &userStore{user: &data.User{ID: 7, Username: "operator", PasswordHash: hash, RoleID: 1, Status: status}}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	bl := auth.NewRedisBlacklist(client, "blacklist:")
	tm := tokens.NewManager(testSigningKey, "vms-inventory")

	svc := users.NewAuthService(store, roleStore{}, hasher, tm, bl, zap.NewNop())
	return api.NewRouter(api.RouterConfig{
		Auth: middleware.NewJWTAuth(tm, bl, nil),
	}, api.Collect(api.NewAuthHandler(svc, nil)))
}

func post(t *testing.T, h http.Handler, target, body, bearer string) (int, []byte) {
	t.Helper()
	s := &testServer{handler: h, token: bearer}
	rec := s.do(t, http.MethodPost, target, body, bearer != "")
	return rec.Code, rec.Body.Bytes()
}

func TestAuthRoutes_LoginRefreshLogout(t *testing.T) {
	h := newAuthServer(t, true)

	code, body := post(t, h, "/api/auth/login", `{"username":"operator","password":"s3cret-pass"}`, "")
	require.Equal(t, http.StatusOK, code, string(body))
	var pair users.TokenPair
	require.NoError(t, json.Unmarshal(body, &pair))
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Positive(t, pair.ExpiresIn)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	code, body = post(t, h, "/api/auth/refresh", `{"refreshToken":"`+pair.RefreshToken+`"}`, "")
	require.Equal(t, http.StatusOK, code, string(body))
	var rotated users.TokenPair
	require.NoError(t, json.Unmarshal(body, &rotated))

	// The used refresh token is spent.
	code, _ = post(t, h, "/api/auth/refresh", `{"refreshToken":"`+pair.RefreshToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = post(t, h, "/api/auth/logout", "", rotated.AccessToken)
	require.Equal(t, http.StatusNoContent, code)

	code, _ = post(t, h, "/api/auth/logout", "", rotated.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthRoutes_LoginRejections(t *testing.T) {
	tests := []struct {
		name   string
		status bool
		body   string
		want   int
	}{
		{"wrong password", true, `{"username":"operator","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", true, `{"username":"ghost","password":"s3cret-pass"}`, http.StatusUnauthorized},
		{"disabled user", false, `{"username":"operator","password":"s3cret-pass"}`, http.StatusUnauthorized},
		{"missing password", true, `{"username":"operator"}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := post(t, newAuthServer(t, tc.status), "/api/auth/login", tc.body, "")
			assert.Equal(t, tc.want, code, string(body))
		})
	}
}

func TestAuthRoutes_RefreshNeedsToken(t *testing.T) {
	h := newAuthServer(t, true)

	code, _ := post(t, h, "/api/auth/refresh", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = post(t, h, "/api/auth/refresh", `{"refreshToken":"not-a-jwt"}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthRoutes_AccessTokenCannotRefresh(t *testing.T) {
	h := newAuthServer(t, true)

	_, body := post(t, h, "/api/auth/login", `{"username":"operator","password":"s3cret-pass"}`, "")
	var pair users.TokenPair
	require.NoError(t, json.Unmarshal(body, &pair))

	code, _ := post(t, h, "/api/auth/refresh", `{"refreshToken":"`+pair.AccessToken+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}
