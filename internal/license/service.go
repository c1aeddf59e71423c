// Package license manages product licenses and their per-machine activations.
package license

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/optional"
	"github.com/technosupport/vms-inventory/internal/validate"
)

var ErrInvalidID = apperr.Invalid("id must be a positive integer")

type Repository interface {
	Create(ctx context.Context, l *data.License) error
	GetByID(ctx context.Context, id int64) (*data.License, error)
	Update(ctx context.Context, l *data.License) error
	SetStatus(ctx context.Context, id int64, status bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*data.License, error)
	Activate(ctx context.Context, a *data.LicenseActivation, now time.Time) error
	ListActivations(ctx context.Context, licenseID int64) ([]*data.LicenseActivation, error)
}

type Input struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	LicenseKey  *string `json:"licenseKey" validate:"omitempty,max=200"`
	ProductCode string  `json:"productCode" validate:"required,max=50"`
	Days        *int    `json:"days" validate:"omitempty,gt=0"`
	TotalPC     *int    `json:"totalPC" validate:"omitempty,min=0"`
	TotalCamera *int    `json:"totalCamera" validate:"omitempty,min=0"`
	Description *string `json:"description"`
	Status      *bool   `json:"status"`
}

type Patch struct {
	ID          int64                  `json:"id"`
	Name        optional.Value[string] `json:"name" validate:"omitempty,max=200"`
	LicenseKey  optional.Value[string] `json:"licenseKey" validate:"omitempty,max=200"`
	ProductCode optional.Value[string] `json:"productCode" validate:"omitempty,max=50"`
	Days        optional.Value[int]    `json:"days" validate:"omitempty,gt=0"`
	TotalPC     optional.Value[int]    `json:"totalPC" validate:"omitempty,min=0"`
	TotalCamera optional.Value[int]    `json:"totalCamera" validate:"omitempty,min=0"`
	Description optional.Value[string] `json:"description"`
	Status      optional.Value[bool]   `json:"status"`
}

type StatusUpdate struct {
	ID     int64 `json:"id"`
	Status *bool `json:"status" validate:"required"`
}

type ActivationInput struct {
	LicenseID int64   `json:"licenseId" validate:"required,gt=0"`
	MachineIP *string `json:"machineIP" validate:"omitempty,ip"`
}

type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log.Named("license"), now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]*data.License, error) {
	list, err := s.repo.List(ctx)
	return list, apperr.FromStorage("license list", err)
}

func (s *Service) Get(ctx context.Context, id int64) (*data.License, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.ForID("license", id, "license get", err)
	}
	return l, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*data.License, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	l := &data.License{
		Name:        in.Name,
		LicenseKey:  in.LicenseKey,
		ProductCode: in.ProductCode,
		Days:        in.Days,
		TotalPC:     in.TotalPC,
		TotalCamera: in.TotalCamera,
		Description: in.Description,
		Status:      in.Status == nil || *in.Status,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, apperr.FromStorage("license create", err)
	}
	return l, nil
}

func (s *Service) Update(ctx context.Context, p Patch) error {
	if p.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(p); err != nil {
		return err
	}
	l, err := s.Get(ctx, p.ID)
	if err != nil {
		return err
	}

	p.Name.ApplyPtr(&l.Name)
	p.LicenseKey.ApplyPtr(&l.LicenseKey)
	p.ProductCode.Apply(&l.ProductCode)
	p.Days.ApplyPtr(&l.Days)
	p.TotalPC.ApplyPtr(&l.TotalPC)
	p.TotalCamera.ApplyPtr(&l.TotalCamera)
	p.Description.ApplyPtr(&l.Description)
	p.Status.Apply(&l.Status)

	return apperr.ForID("license", p.ID, "license update", s.repo.Update(ctx, l))
}

func (s *Service) UpdateStatus(ctx context.Context, su StatusUpdate) error {
	if su.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(su); err != nil {
		return err
	}
	return apperr.ForID("license", su.ID, "license status update", s.repo.SetStatus(ctx, su.ID, *su.Status))
}

// Delete also removes the license's activations.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return apperr.ForID("license", id, "license delete", s.repo.Delete(ctx, id))
}

// Activate binds the license to a machine for userID.
func (s *Service) Activate(ctx context.Context, in ActivationInput, userID int64) (*data.LicenseActivation, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, apperr.Unauthenticated("activation requires a signed-in user")
	}

	a := &data.LicenseActivation{UserID: userID, LicenseID: in.LicenseID, MachineIP: in.MachineIP, Status: true}
	err := s.repo.Activate(ctx, a, s.now().UTC())
	switch {
	case err == nil:
		s.log.Info("license activated", zap.Int64("license_id", in.LicenseID), zap.Int64("user_id", userID))
		return a, nil
	case errors.Is(err, data.ErrLicenseDisabled):
		return nil, apperr.Invalid("license is disabled")
	case errors.Is(err, data.ErrActivationsSpent):
		return nil, apperr.Invalid("license has no free activations")
	default:
		return nil, apperr.ForID("license", in.LicenseID, "license activate", err)
	}
}

func (s *Service) Activations(ctx context.Context, licenseID int64) ([]*data.LicenseActivation, error) {
	if licenseID <= 0 {
		return nil, ErrInvalidID
	}
	if _, err := s.Get(ctx, licenseID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListActivations(ctx, licenseID)
	return list, apperr.FromStorage("license activations", err)
}
