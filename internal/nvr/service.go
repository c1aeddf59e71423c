package nvr

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/events"
	"github.com/technosupport/vms-inventory/internal/optional"
	"github.com/technosupport/vms-inventory/internal/paging"
	"github.com/technosupport/vms-inventory/internal/validate"
)

const resource = "nvr"

// passwordAAD binds sealed NVR passwords to their column.
var passwordAAD = []byte("nvrs.password")

var (
	ErrInvalidID     = apperr.Invalid("id must be a positive integer")
	ErrNoCredentials = errors.New("nvr has no stored password")
)

type Repository interface {
	Create(ctx context.Context, n *data.NVR) error
	GetByID(ctx context.Context, id int64) (*data.NVR, error)
	Update(ctx context.Context, n *data.NVR) error
	SetStatus(ctx context.Context, id int64, status bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*data.NVR, error)
	Page(ctx context.Context, limit, offset int) ([]*data.NVR, int, error)
	Stats(ctx context.Context) (data.StatusCounts, error)
}

// Sealer encrypts secrets at rest. *crypto.Keyring satisfies it.
type Sealer interface {
	Seal(plaintext, aad []byte) (string, error)
	Open(sealed string, aad []byte) ([]byte, error)
}

type Input struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	NVRIP    *string `json:"nvrIP" validate:"omitempty,max=64"`
	Port     *int    `json:"port" validate:"omitempty,min=0,max=65535"`
	Username *string `json:"username" validate:"omitempty,max=100"`
	Password *string `json:"password" validate:"omitempty,max=200"`
	NVRType  *string `json:"nvrType"`
	Model    *string `json:"model"`
	Status   *bool   `json:"status" validate:"required"`
}

type Patch struct {
	ID       int64                  `json:"id"`
	Name     optional.Value[string] `json:"name" validate:"omitempty,max=200"`
	NVRIP    optional.Value[string] `json:"nvrIP" validate:"omitempty,max=64"`
	Port     optional.Value[int]    `json:"port" validate:"omitempty,min=0,max=65535"`
	Username optional.Value[string] `json:"username" validate:"omitempty,max=100"`
	Password optional.Value[string] `json:"password" validate:"omitempty,max=200"`
	NVRType  optional.Value[string] `json:"nvrType"`
	Model    optional.Value[string] `json:"model"`
	Status   optional.Value[bool]   `json:"status"`
}

type StatusUpdate struct {
	ID     int64 `json:"id"`
	Status *bool `json:"status" validate:"required"`
}

type Counts struct {
	TotalNVR    int `json:"TotalNVR"`
	ActiveNVR   int `json:"ActiveNVR"`
	InActiveNVR int `json:"InActiveNVR"`
}

type PageResult struct {
	TotalCount int         `json:"TotalCount"`
	PageNumber int         `json:"PageNumber"`
	PageSize   int         `json:"PageSize"`
	NVRs       []*data.NVR `json:"NVRs"`
}

// Credentials is the decrypted login for an NVR.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Options struct {
	MaxPageSize int
}

type Service struct {
	repo   Repository
	sealer Sealer
	pub    events.Publisher
	log    *zap.Logger
	opts   Options
}

func NewService(repo Repository, sealer Sealer, pub events.Publisher, log *zap.Logger, opts Options) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, sealer: sealer, pub: pub, log: log.Named(resource), opts: opts}
}

func (s *Service) seal(password string) (*string, error) {
	sealed, err := s.sealer.Seal([]byte(password), passwordAAD)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.Unexpected, Message: "nvr password seal failed", Err: err}
	}
	return &sealed, nil
}

func (s *Service) List(ctx context.Context) ([]*data.NVR, error) {
	list, err := s.repo.List(ctx)
	return list, apperr.FromStorage("nvr list", err)
}

func (s *Service) Count(ctx context.Context) (Counts, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return Counts{}, apperr.FromStorage("nvr count", err)
	}
	return Counts{TotalNVR: st.Total, ActiveNVR: st.Active, InActiveNVR: st.Inactive}, nil
}

func (s *Service) Paginate(ctx context.Context, pageNumber, pageSize int) (*PageResult, error) {
	p, err := paging.New(pageNumber, pageSize, s.opts.MaxPageSize)
	if err != nil {
		return nil, err
	}
	list, total, err := s.repo.Page(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, apperr.FromStorage("nvr page", err)
	}
	return &PageResult{TotalCount: total, PageNumber: p.Number, PageSize: p.Size, NVRs: list}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*data.NVR, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.ForID(resource, id, "nvr get", err)
	}
	return n, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*data.NVR, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	n := &data.NVR{
		Name:     in.Name,
		NVRIP:    in.NVRIP,
		Port:     in.Port,
		Username: in.Username,
		NVRType:  in.NVRType,
		Model:    in.Model,
		Status:   *in.Status,
	}
	if in.Password != nil {
		sealed, err := s.seal(*in.Password)
		if err != nil {
			return nil, err
		}
		n.PasswordSealed = sealed
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, apperr.FromStorage("nvr create", err)
	}
	s.publish(ctx, events.Created, n.ID)
	return n, nil
}

func (s *Service) Update(ctx context.Context, p Patch) error {
	if p.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(p); err != nil {
		return err
	}
	n, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}

	p.Name.ApplyPtr(&n.Name)
	p.NVRIP.ApplyPtr(&n.NVRIP)
	p.Port.ApplyPtr(&n.Port)
	p.Username.ApplyPtr(&n.Username)
	p.NVRType.ApplyPtr(&n.NVRType)
	p.Model.ApplyPtr(&n.Model)
	p.Status.Apply(&n.Status)
	if pw, ok := p.Password.Get(); ok {
		if n.PasswordSealed, err = s.seal(pw); err != nil {
			return err
		}
	}

	if err := s.repo.Update(ctx, n); err != nil {
		return apperr.FromStorage("nvr update", err)
	}
	s.publish(ctx, events.Updated, n.ID)
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
		return apperr.ForID(resource, su.ID, "nvr status update", err)
	}
	s.publish(ctx, events.StatusChanged, su.ID)
	return nil
}

// Delete removes the NVR together with its cameras and their dependent rows.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.ForID(resource, id, "nvr delete", err)
	}
	s.publish(ctx, events.Deleted, id)
	return nil
}

// Credentials opens the stored password.
func (s *Service) Credentials(ctx context.Context, id int64) (*Credentials, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.PasswordSealed == nil {
		return nil, &apperr.Error{Kind: apperr.NotFound, Message: "nvr has no stored password", Err: ErrNoCredentials}
	}
	plain, err := s.sealer.Open(*n.PasswordSealed, passwordAAD)
	if err != nil {
		s.log.Error("nvr password open failed", zap.Int64("id", id), zap.Error(err))
		return nil, &apperr.Error{Kind: apperr.Unexpected, Message: "nvr password open failed", Err: err}
	}

	c := &Credentials{Password: string(plain)}
	if n.Username != nil {
		c.Username = *n.Username
	}
	return c, nil
}

func (s *Service) publish(ctx context.Context, action events.Action, id int64) {
	evt := events.Event{Resource: resource, Action: action, ID: id, At: time.Now().UTC()}
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.log.Warn("event publish failed", zap.String("action", string(action)), zap.Int64("id", id), zap.Error(err))
	}
}
