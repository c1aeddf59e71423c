package cameras

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/events"
	"github.com/technosupport/vms-inventory/internal/optional"
	"github.com/technosupport/vms-inventory/internal/validate"
)

type GroupRepository interface {
	Create(ctx context.Context, g *data.Group) error
	GetByID(ctx context.Context, id int64) (*data.Group, error)
	Update(ctx context.Context, g *data.Group) error
	SetStatus(ctx context.Context, id int64, status bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*data.Group, error)
	Stats(ctx context.Context) (data.StatusCounts, error)
}

type GroupInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description"`
	Status      *bool   `json:"status"`
}

type GroupPatch struct {
	ID          int64                  `json:"id"`
	Name        optional.Value[string] `json:"name" validate:"omitempty,max=200"`
	Description optional.Value[string] `json:"description"`
	Status      optional.Value[bool]   `json:"status"`
}

type GroupCounts struct {
	TotalGroup    int `json:"TotalGroup"`
	ActiveGroup   int `json:"ActiveGroup"`
	InActiveGroup int `json:"InActiveGroup"`
}

// GroupService manages camera groups. Deleting a group deletes its cameras.
type GroupService struct {
	repo GroupRepository
	pub  events.Publisher
	log  *zap.Logger
}

func NewGroupService(repo GroupRepository, pub events.Publisher, log *zap.Logger) *GroupService {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GroupService{repo: repo, pub: pub, log: log.Named("group")}
}

func (s *GroupService) List(ctx context.Context) ([]*data.Group, error) {
	list, err := s.repo.List(ctx)
	return list, apperr.FromStorage("group list", err)
}

func (s *GroupService) Count(ctx context.Context) (GroupCounts, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return GroupCounts{}, apperr.FromStorage("group count", err)
	}
	return GroupCounts{TotalGroup: st.Total, ActiveGroup: st.Active, InActiveGroup: st.Inactive}, nil
}

func (s *GroupService) Get(ctx context.Context, id int64) (*data.Group, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.ForID("group", id, "group get", err)
	}
	return g, nil
}

func (s *GroupService) Create(ctx context.Context, in GroupInput) (*data.Group, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	g := &data.Group{Name: in.Name, Description: in.Description, Status: true}
	if in.Status != nil {
		g.Status = *in.Status
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, apperr.FromStorage("group create", err)
	}
	s.publish(ctx, events.Created, g.ID)
	return g, nil
}

func (s *GroupService) Update(ctx context.Context, p GroupPatch) error {
	if p.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(p); err != nil {
		return err
	}
	g, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Name.Apply(&g.Name)
	p.Description.ApplyPtr(&g.Description)
	p.Status.Apply(&g.Status)

	if err := s.repo.Update(ctx, g); err != nil {
		return apperr.FromStorage("group update", err)
	}
	s.publish(ctx, events.Updated, g.ID)
	return nil
}

func (s *GroupService) UpdateStatus(ctx context.Context, su StatusUpdate) error {
	if su.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(su); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, su.ID, *su.Status); err != nil {
		return apperr.ForID("group", su.ID, "group status update", err)
	}
	s.publish(ctx, events.StatusChanged, su.ID)
	return nil
}

func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.ForID("group", id, "group delete", err)
	}
	s.publish(ctx, events.Deleted, id)
	return nil
}

func (s *GroupService) publish(ctx context.Context, action events.Action, id int64) {
	evt := events.Event{Resource: "group", Action: action, ID: id, At: time.Now().UTC()}
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.log.Warn("event publish failed", zap.String("action", string(action)), zap.Int64("id", id), zap.Error(err))
	}
}
