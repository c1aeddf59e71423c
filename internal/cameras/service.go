package cameras

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/events"
	"github.com/technosupport/vms-inventory/internal/paging"
	"github.com/technosupport/vms-inventory/internal/validate"
)

const resource = "camera"

// Repository holds the named query shapes the camera resource uses.
type Repository interface {
	Create(ctx context.Context, c *data.Camera) error
	CreateMany(ctx context.Context, cams []*data.Camera) error
	GetByID(ctx context.Context, id int64) (*data.Camera, error)
	Update(ctx context.Context, c *data.Camera) error
	SetStatus(ctx context.Context, id int64, status bool) error
	Delete(ctx context.Context, id int64) error
	ExportAll(ctx context.Context) ([]*data.Camera, error)
	ListWithRelations(ctx context.Context) ([]*data.Camera, error)
	Page(ctx context.Context, limit, offset int) ([]*data.Camera, int, error)
	Stats(ctx context.Context) (data.StatusCounts, error)
	ListForMap(ctx context.Context) ([]*data.CameraMapItem, error)
}

type Options struct {
	// MaxPageSize caps pageSize when positive.
	MaxPageSize int
}

type Service struct {
	repo Repository
	pub  events.Publisher
	log  *zap.Logger
	opts Options
}

func NewService(repo Repository, pub events.Publisher, log *zap.Logger, opts Options) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, pub: pub, log: log.Named(resource), opts: opts}
}

// Import validates every item then inserts them in one transaction.
func (s *Service) Import(ctx context.Context, items []CameraInput) (int, error) {
	if len(items) == 0 {
		return 0, ErrEmptyImport
	}

	cams := make([]*data.Camera, 0, len(items))
	for i, in := range items {
		if err := validate.Struct(in); err != nil {
			return 0, withItemIndex(err, i)
		}
		cams = append(cams, in.ToCamera())
	}

	if err := s.repo.CreateMany(ctx, cams); err != nil {
		s.log.Warn("import rejected", zap.Int("items", len(cams)), zap.Error(err))
		return 0, apperr.FromStorage("camera import", err)
	}

	s.publish(ctx, events.Event{Resource: resource, Action: events.Imported, Data: map[string]int{"count": len(cams)}})
	return len(cams), nil
}

func (s *Service) ExportAll(ctx context.Context) ([]*data.Camera, error) {
	cams, err := s.repo.ExportAll(ctx)
	return cams, apperr.FromStorage("camera export", err)
}

func (s *Service) List(ctx context.Context) ([]*data.Camera, error) {
	cams, err := s.repo.ListWithRelations(ctx)
	return cams, apperr.FromStorage("camera list", err)
}

func (s *Service) Count(ctx context.Context) (Counts, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return Counts{}, apperr.FromStorage("camera count", err)
	}
	return Counts{TotalCamera: st.Total, ActiveCamera: st.Active, InActiveCamera: st.Inactive}, nil
}

func (s *Service) Paginate(ctx context.Context, pageNumber, pageSize int) (*PageResult, error) {
	p, err := paging.New(pageNumber, pageSize, s.opts.MaxPageSize)
	if err != nil {
		return nil, err
	}
	cams, total, err := s.repo.Page(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, apperr.FromStorage("camera page", err)
	}
	return &PageResult{TotalCount: total, PageNumber: p.Number, PageSize: p.Size, Cameras: cams}, nil
}

func (s *Service) ListForMap(ctx context.Context) ([]*data.CameraMapItem, error) {
	items, err := s.repo.ListForMap(ctx)
	return items, apperr.FromStorage("camera map list", err)
}

func (s *Service) Get(ctx context.Context, id int64) (*data.Camera, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.ForID(resource, id, "camera get", err)
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, in CameraInput) (*data.Camera, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c := in.ToCamera()
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperr.FromStorage("camera create", err)
	}

	s.publish(ctx, events.Event{Resource: resource, Action: events.Created, ID: c.ID, Data: c})
	return c, nil
}

// Update applies p to the stored camera. A patch with only an id is a no-op write.
func (s *Service) Update(ctx context.Context, p CameraPatch) error {
	if p.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(p); err != nil {
		return err
	}

	c, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Apply(c)

	if err := s.repo.Update(ctx, c); err != nil {
		return apperr.FromStorage("camera update", err)
	}

	s.publish(ctx, events.Event{Resource: resource, Action: events.Updated, ID: c.ID, Data: c})
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, su StatusUpdate) error {
	if su.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(su); err != nil {
		return err
	}

	if err := s.repo.SetStatus(ctx, su.ID, *su.Status); err != nil {
		return apperr.ForID(resource, su.ID, "camera status update", err)
	}

	s.publish(ctx, events.Event{Resource: resource, Action: events.StatusChanged, ID: su.ID, Data: map[string]bool{"status": *su.Status}})
	return nil
}

// Delete removes the camera and its dependent rows.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.ForID(resource, id, "camera delete", err)
	}

	s.publish(ctx, events.Event{Resource: resource, Action: events.Deleted, ID: id})
	return nil
}

// publish is best effort; the mutation has already committed.
func (s *Service) publish(ctx context.Context, evt events.Event) {
	evt.At = time.Now().UTC()
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.log.Warn("event publish failed",
			zap.String("action", string(evt.Action)),
			zap.Int64("id", evt.ID),
			zap.Error(err),
		)
	}
}
