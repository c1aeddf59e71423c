package users

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/events"
	"github.com/technosupport/vms-inventory/internal/optional"
	"github.com/technosupport/vms-inventory/internal/paging"
	"github.com/technosupport/vms-inventory/internal/validate"
)

var ErrInvalidID = apperr.Invalid("id must be a positive integer")

type Repository interface {
	Create(ctx context.Context, u *data.User) error
	GetByID(ctx context.Context, id int64) (*data.User, error)
	GetByUsername(ctx context.Context, username string) (*data.User, error)
	Update(ctx context.Context, u *data.User) error
	SetStatus(ctx context.Context, id int64, status bool) error
	Delete(ctx context.Context, id int64) error
	ListWithRole(ctx context.Context) ([]*data.User, error)
	Page(ctx context.Context, limit, offset int) ([]*data.User, int, error)
}

// PasswordHasher is satisfied by *auth.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
	NeedsRehash(encodedHash string) bool
}

type Input struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	MobileNo  *string `json:"mobileNo" validate:"omitempty,max=20"`
	EmailID   *string `json:"emailId" validate:"omitempty,email"`
	Username  string  `json:"username" validate:"required,max=100"`
	Password  string  `json:"password" validate:"required,min=8,max=200"`
	RoleID    int64   `json:"roleId" validate:"required,gt=0"`
	Image     *string `json:"image"`
	Status    *bool   `json:"status"`
}

type Patch struct {
	ID        int64                  `json:"id"`
	FirstName optional.Value[string] `json:"firstName" validate:"omitempty,max=100"`
	LastName  optional.Value[string] `json:"lastName" validate:"omitempty,max=100"`
	MobileNo  optional.Value[string] `json:"mobileNo" validate:"omitempty,max=20"`
	EmailID   optional.Value[string] `json:"emailId" validate:"omitempty,email"`
	Username  optional.Value[string] `json:"username" validate:"omitempty,max=100"`
	Password  optional.Value[string] `json:"password" validate:"omitempty,min=8,max=200"`
	RoleID    optional.Value[int64]  `json:"roleId" validate:"omitempty,gt=0"`
	Image     optional.Value[string] `json:"image"`
	Status    optional.Value[bool]   `json:"status"`
}

type StatusUpdate struct {
	ID     int64 `json:"id"`
	Status *bool `json:"status" validate:"required"`
}

type PageResult struct {
	TotalCount int          `json:"TotalCount"`
	PageNumber int          `json:"PageNumber"`
	PageSize   int          `json:"PageSize"`
	Users      []*data.User `json:"Users"`
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	pub    events.Publisher
	log    *zap.Logger
	maxPg  int
}

func NewService(repo Repository, hasher PasswordHasher, pub events.Publisher, log *zap.Logger, maxPageSize int) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, hasher: hasher, pub: pub, log: log.Named("user"), maxPg: maxPageSize}
}

func (s *Service) hash(password string) (string, error) {
	h, err := s.hasher.Hash(password)
	if err != nil {
		return "", &apperr.Error{Kind: apperr.Unexpected, Message: "password hashing failed", Err: err}
	}
	return h, nil
}

func (s *Service) List(ctx context.Context) ([]*data.User, error) {
	list, err := s.repo.ListWithRole(ctx)
	return list, apperr.FromStorage("user list", err)
}

func (s *Service) Paginate(ctx context.Context, pageNumber, pageSize int) (*PageResult, error) {
	p, err := paging.New(pageNumber, pageSize, s.maxPg)
	if err != nil {
		return nil, err
	}
	list, total, err := s.repo.Page(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, apperr.FromStorage("user page", err)
	}
	return &PageResult{TotalCount: total, PageNumber: p.Number, PageSize: p.Size, Users: list}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*data.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.ForID("user", id, "user get", err)
	}
	return u, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*data.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &data.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MobileNo:     in.MobileNo,
		EmailID:      in.EmailID,
		Username:     in.Username,
		PasswordHash: hash,
		RoleID:       in.RoleID,
		Image:        in.Image,
		Status:       true,
	}
	if in.Status != nil {
		u.Status = *in.Status
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, apperr.FromStorage("user create", err)
	}
	s.publish(ctx, events.Created, u.ID)
	return u, nil
}

// Update applies p. A new password is re-hashed before it is stored.
func (s *Service) Update(ctx context.Context, p Patch) error {
	if p.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(p); err != nil {
		return err
	}
	u, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}

	p.FirstName.ApplyPtr(&u.FirstName)
	p.LastName.ApplyPtr(&u.LastName)
	p.MobileNo.ApplyPtr(&u.MobileNo)
	p.EmailID.ApplyPtr(&u.EmailID)
	p.Username.Apply(&u.Username)
	p.RoleID.Apply(&u.RoleID)
	p.Image.ApplyPtr(&u.Image)
	p.Status.Apply(&u.Status)
	if pw, ok := p.Password.Get(); ok {
		if u.PasswordHash, err = s.hash(pw); err != nil {
			return err
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return apperr.FromStorage("user update", err)
	}
	s.publish(ctx, events.Updated, u.ID)
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
		return apperr.ForID("user", su.ID, "user status update", err)
	}
	s.publish(ctx, events.StatusChanged, su.ID)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.ForID("user", id, "user delete", err)
	}
	s.publish(ctx, events.Deleted, id)
	return nil
}

func (s *Service) publish(ctx context.Context, action events.Action, id int64) {
	evt := events.Event{Resource: "user", Action: action, ID: id, At: time.Now().UTC()}
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.log.Warn("event publish failed", zap.String("action", string(action)), zap.Int64("id", id), zap.Error(err))
	}
}
