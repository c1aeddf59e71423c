package users_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/auth"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/tokens"
	"github.com/technosupport/vms-inventory/internal/users"
)

var testParams = auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type mockUserRepo struct {
	users  map[int64]*data.User
	nextID int64
}

func newUserRepo() *mockUserRepo { return &mockUserRepo{users: map[int64]*data.User{}} }

func (m *mockUserRepo) Create(ctx context.Context, u *data.User) error {
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*data.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, data.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*data.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, data.ErrRecordNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, u *data.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return data.ErrRecordNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) SetStatus(ctx context.Context, id int64, status bool) error {
	u, ok := m.users[id]
	if !ok {
		return data.ErrRecordNotFound
	}
	u.Status = status
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) ListWithRole(ctx context.Context) ([]*data.User, error) {
	out := []*data.User{}
	for id := m.nextID; id > 0; id-- {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) Page(ctx context.Context, limit, offset int) ([]*data.User, int, error) {
	all, _ := m.ListWithRole(ctx)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

type mockRoleRepo struct {
	roles map[int64]*data.Role
}

func (m *mockRoleRepo) Create(ctx context.Context, r *data.Role) error {
	r.ID = int64(len(m.roles) + 1)
	cp := *r
	m.roles[r.ID] = &cp
	return nil
}

func (m *mockRoleRepo) GetByID(ctx context.Context, id int64) (*data.Role, error) {
	if r, ok := m.roles[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, data.ErrRecordNotFound
}

func (m *mockRoleRepo) Update(ctx context.Context, r *data.Role) error {
	if _, ok := m.roles[r.ID]; !ok {
		return data.ErrRecordNotFound
	}
	cp := *r
	m.roles[r.ID] = &cp
	return nil
}

func (m *mockRoleRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(m.roles, id)
	return nil
}

func (m *mockRoleRepo) List(ctx context.Context) ([]*data.Role, error) {
	out := []*data.Role{}
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }

func TestCreate_HashesPassword(t *testing.T) {
	repo := newUserRepo()
	h := auth.NewHasher(testParams)
	svc := users.NewService(repo, h, nil, nil, 0)

	u, err := svc.Create(context.Background(), users.Input{Username: "operator", Password: "password1", RoleID: 1})
	require.NoError(t, err)
	assert.True(t, u.Status)
	assert.NotEqual(t, "password1", repo.users[u.ID].PasswordHash)

	ok, err := h.Verify("password1", repo.users[u.ID].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	b, _ := json.Marshal(u)
	assert.NotContains(t, string(b), "password")
}

func TestCreate_Validation(t *testing.T) {
	svc := users.NewService(newUserRepo(), auth.NewHasher(testParams), nil, nil, 0)

	_, err := svc.Create(context.Background(), users.Input{Username: "x", Password: "short", EmailID: ptr("not-an-email")})
	require.Error(t, err)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.Validation, ae.Kind)
	assert.Contains(t, ae.Fields, "password")
	assert.Contains(t, ae.Fields, "roleId")
	assert.Contains(t, ae.Fields, "emailId")
}

func TestUpdate_RehashesOnlyWhenPasswordSet(t *testing.T) {
	repo := newUserRepo()
	h := auth.NewHasher(testParams)
	svc := users.NewService(repo, h, nil, nil, 0)
	ctx := context.Background()

	u, err := svc.Create(ctx, users.Input{Username: "op", Password: "password1", RoleID: 1, FirstName: ptr("Ann")})
	require.NoError(t, err)
	before := repo.users[u.ID].PasswordHash

	var p users.Patch
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"lastName":"Lee","firstName":null}`), &p))
	require.NoError(t, svc.Update(ctx, p))
	assert.Equal(t, before, repo.users[u.ID].PasswordHash)
	assert.Equal(t, "Ann", *repo.users[u.ID].FirstName)
	assert.Equal(t, "Lee", *repo.users[u.ID].LastName)

	p = users.Patch{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"password":"password2"}`), &p))
	require.NoError(t, svc.Update(ctx, p))
	ok, _ := h.Verify("password2", repo.users[u.ID].PasswordHash)
	assert.True(t, ok)
}

func TestUpdate_MissingAndInvalid(t *testing.T) {
	svc := users.NewService(newUserRepo(), auth.NewHasher(testParams), nil, nil, 0)
	ctx := context.Background()

	assert.True(t, apperr.IsNotFound(svc.Update(ctx, users.Patch{ID: 42})))
	assert.Equal(t, apperr.Validation, apperr.KindOf(svc.Update(ctx, users.Patch{})))
	assert.True(t, apperr.IsNotFound(svc.UpdateStatus(ctx, users.StatusUpdate{ID: 42, Status: ptr(false)})))
	assert.True(t, apperr.IsNotFound(svc.Delete(ctx, 42)))
}

func TestPaginate(t *testing.T) {
	repo := newUserRepo()
	svc := users.NewService(repo, auth.NewHasher(testParams), nil, nil, 0)
	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(context.Background(), users.Input{Username: name, Password: "password1", RoleID: 1})
		require.NoError(t, err)
	}

	page, err := svc.Paginate(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "a", page.Users[0].Username)

	_, err = svc.Paginate(context.Background(), 0, 2)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestRoleService(t *testing.T) {
	svc := users.NewRoleService(&mockRoleRepo{roles: map[int64]*data.Role{}})
	ctx := context.Background()

	r, err := svc.Create(ctx, users.RoleInput{Name: "Operator"})
	require.NoError(t, err)
	assert.True(t, r.Status)

	require.NoError(t, svc.Update(ctx, users.RoleInput{ID: r.ID, Name: "Supervisor", Status: ptr(false)}))
	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Supervisor", got.Name)
	assert.False(t, got.Status)

	assert.True(t, apperr.IsNotFound(svc.Update(ctx, users.RoleInput{ID: 9, Name: "x"})))
	_, err = svc.Create(ctx, users.RoleInput{})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

type authFixture struct {
	svc   *users.AuthService
	users *mockUserRepo
	mr    *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newUserRepo()
	roles := &mockRoleRepo{roles: map[int64]*data.Role{1: {ID: 1, Name: "Admin", Status: true}}}
	h := auth.NewHasher(testParams)

	_, err := users.NewService(repo, h, nil, nil, 0).
		Create(context.Background(), users.Input{Username: "admin", Password: "password1", RoleID: 1})
	require.NoError(t, err)

	tm := tokens.NewManager("test-signing-key", "vms-inventory")
	svc := users.NewAuthService(repo, roles, h, tm, auth.NewRedisBlacklist(client, ""), nil)
	return &authFixture{svc: svc, users: repo, mr: mr}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, users.Credentials{Username: "admin", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, 900, pair.ExpiresIn)

	claims, err := tokens.NewManager("test-signing-key", "vms-inventory").ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Admin", claims.Role)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = f.svc.Login(ctx, users.Credentials{Username: "admin", Password: "wrong-password"})
	assert.ErrorIs(t, err, users.ErrBadCredentials)
	_, err = f.svc.Login(ctx, users.Credentials{Username: "ghost", Password: "password1"})
	assert.ErrorIs(t, err, users.ErrBadCredentials)
}

func TestLogin_DisabledUser(t *testing.T) {
	f := newAuthFixture(t)
	f.users.users[1].Status = false

	_, err := f.svc.Login(context.Background(), users.Credentials{Username: "admin", Password: "password1"})
	assert.ErrorIs(t, err, users.ErrUserDisabled)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, users.Credentials{Username: "admin", Password: "password1"})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.AccessToken)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))

	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The consumed refresh token cannot be replayed.
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, users.ErrTokenRevoked)

	require.NoError(t, f.svc.Logout(ctx, next.AccessToken))
	assert.ErrorIs(t, f.svc.Logout(ctx, next.AccessToken), users.ErrTokenRevoked)
	assert.Len(t, f.mr.Keys(), 2)
}

func TestLogin_UpgradesWeakHash(t *testing.T) {
	f := newAuthFixture(t)
	weak := testParams
	weak.Memory = 512
	old, err := auth.NewHasher(weak).Hash("password1")
	require.NoError(t, err)
	f.users.users[1].PasswordHash = old

	_, err = f.svc.Login(context.Background(), users.Credentials{Username: "admin", Password: "password1"})
	require.NoError(t, err)

	stored := f.users.users[1].PasswordHash
	assert.NotEqual(t, old, stored)
	assert.False(t, auth.NewHasher(testParams).NeedsRehash(stored))
	ok, err := auth.NewHasher(testParams).Verify("password1", stored)
	require.NoError(t, err)
	assert.True(t, ok)
}
