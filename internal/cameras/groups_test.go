package cameras_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/cameras"
	"github.com/technosupport/vms-inventory/internal/data"
)

type MockGroupRepo struct {
	groups  map[int64]*data.Group
	Deleted []int64
}

func newGroupRepo() *MockGroupRepo {
	return &MockGroupRepo{groups: map[int64]*data.Group{}}
}

func (m *MockGroupRepo) Create(ctx context.Context, g *data.Group) error {
	g.ID = int64(len(m.groups) + 1)
	cp := *g
	m.groups[g.ID] = &cp
	return nil
}

func (m *MockGroupRepo) GetByID(ctx context.Context, id int64) (*data.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MockGroupRepo) Update(ctx context.Context, g *data.Group) error {
	if _, ok := m.groups[g.ID]; !ok {
		return data.ErrRecordNotFound
	}
	cp := *g
	m.groups[g.ID] = &cp
	return nil
}

func (m *MockGroupRepo) SetStatus(ctx context.Context, id int64, status bool) error {
	g, ok := m.groups[id]
	if !ok {
		return data.ErrRecordNotFound
	}
	g.Status = status
	return nil
}

func (m *MockGroupRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.groups[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(m.groups, id)
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockGroupRepo) List(ctx context.Context) ([]*data.Group, error) {
	out := []*data.Group{}
	for _, g := range m.groups {
		out = append(out, g)
	}
	return out, nil
}

func (m *MockGroupRepo) Stats(ctx context.Context) (data.StatusCounts, error) {
	var s data.StatusCounts
	for _, g := range m.groups {
		s.Total++
		if g.Status {
			s.Active++
		} else {
			s.Inactive++
		}
	}
	return s, nil
}

func TestGroupService_Lifecycle(t *testing.T) {
	repo := newGroupRepo()
	svc := cameras.NewGroupService(repo, nil, nil)
	ctx := context.Background()

	g, err := svc.Create(ctx, cameras.GroupInput{Name: "Perimeter", Description: ptr("outer fence")})
	require.NoError(t, err)
	assert.True(t, g.Status)

	var p cameras.GroupPatch
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"description":null,"status":false}`), &p))
	require.NoError(t, svc.Update(ctx, p))

	got, err := svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Perimeter", got.Name)
	assert.Equal(t, "outer fence", *got.Description)
	assert.False(t, got.Status)

	counts, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, counts.TotalGroup, counts.ActiveGroup+counts.InActiveGroup)

	require.NoError(t, svc.Delete(ctx, g.ID))
	assert.Equal(t, []int64{1}, repo.Deleted)
	assert.True(t, apperr.IsNotFound(svc.Delete(ctx, g.ID)))
}

func TestGroupService_CreateRequiresName(t *testing.T) {
	svc := cameras.NewGroupService(newGroupRepo(), nil, nil)

	_, err := svc.Create(context.Background(), cameras.GroupInput{})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestGroupService_UpdateMissing(t *testing.T) {
	svc := cameras.NewGroupService(newGroupRepo(), nil, nil)

	err := svc.Update(context.Background(), cameras.GroupPatch{ID: 999})
	assert.True(t, apperr.IsNotFound(err))

	err = svc.UpdateStatus(context.Background(), cameras.StatusUpdate{ID: 999, Status: ptr(true)})
	assert.True(t, apperr.IsNotFound(err))
}
