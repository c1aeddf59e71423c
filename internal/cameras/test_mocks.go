package cameras

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/technosupport/vms-inventory/internal/data"
)

// MemRepo is an in-memory Repository used by service and handler tests.
// Foreign keys are checked against NVRs and Groups.
type MemRepo struct {
	mu      sync.Mutex
	nextID  int64
	cams    map[int64]*data.Camera
	NVRs    map[int64]bool
	Groups  map[int64]bool
	Err     error
	Updates int
}

func NewMemRepo() *MemRepo {
	return &MemRepo{
		cams:   make(map[int64]*data.Camera),
		NVRs:   map[int64]bool{1: true},
		Groups: map[int64]bool{1: true},
	}
}

var errFK = &pq.Error{Code: "23503", Message: "insert or update on table \"cameras\" violates foreign key constraint"}

func (m *MemRepo) checkFK(c *data.Camera) error {
	if !m.NVRs[c.NVRID] || !m.Groups[c.GroupID] {
		return errFK
	}
	return nil
}

func (m *MemRepo) insert(c *data.Camera) {
	m.nextID++
	c.ID = m.nextID
	c.RegDate = time.Now().UTC()
	cp := *c
	m.cams[c.ID] = &cp
}

func (m *MemRepo) Create(ctx context.Context, c *data.Camera) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := m.checkFK(c); err != nil {
		return err
	}
	m.insert(c)
	return nil
}

func (m *MemRepo) CreateMany(ctx context.Context, cams []*data.Camera) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, c := range cams {
		if err := m.checkFK(c); err != nil {
			return err
		}
	}
	for _, c := range cams {
		m.insert(c)
	}
	return nil
}

func (m *MemRepo) GetByID(ctx context.Context, id int64) (*data.Camera, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.cams[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemRepo) Update(ctx context.Context, c *data.Camera) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	old, ok := m.cams[c.ID]
	if !ok {
		return data.ErrRecordNotFound
	}
	if err := m.checkFK(c); err != nil {
		return err
	}
	cp := *c
	cp.RegDate = old.RegDate
	m.cams[c.ID] = &cp
	m.Updates++
	return nil
}

func (m *MemRepo) SetStatus(ctx context.Context, id int64, status bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	c, ok := m.cams[id]
	if !ok {
		return data.ErrRecordNotFound
	}
	c.Status = status
	return nil
}

func (m *MemRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.cams[id]; !ok {
		return data.ErrRecordNotFound
	}
	delete(m.cams, id)
	return nil
}

// sorted returns copies ordered by id, ascending or descending.
func (m *MemRepo) sorted(desc bool) []*data.Camera {
	out := make([]*data.Camera, 0, len(m.cams))
	for _, c := range m.cams {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemRepo) ExportAll(ctx context.Context) ([]*data.Camera, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sorted(false), nil
}

func (m *MemRepo) ListWithRelations(ctx context.Context) ([]*data.Camera, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := m.sorted(true)
	for _, c := range out {
		c.Group = &data.Group{ID: c.GroupID}
		c.NVR = &data.NVR{ID: c.NVRID}
	}
	return out, nil
}

func (m *MemRepo) Page(ctx context.Context, limit, offset int) ([]*data.Camera, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	all := m.sorted(true)
	if offset >= len(all) {
		return []*data.Camera{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *MemRepo) Stats(ctx context.Context) (data.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return data.StatusCounts{}, m.Err
	}
	var s data.StatusCounts
	for _, c := range m.cams {
		s.Total++
		if c.Status {
			s.Active++
		} else {
			s.Inactive++
		}
	}
	return s, nil
}

func (m *MemRepo) ListForMap(ctx context.Context) ([]*data.CameraMapItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	items := []*data.CameraMapItem{}
	for _, c := range m.sorted(true) {
		if !c.Status {
			continue
		}
		items = append(items, &data.CameraMapItem{
			ID: c.ID, Name: c.Name, RTSPURL: c.RTSPURL, Latitude: c.Latitude, Longitude: c.Longitude,
		})
	}
	return items, nil
}

// Len reports the number of stored cameras.
func (m *MemRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cams)
}

var ErrMemRepoDown = errors.New("storage unavailable")
