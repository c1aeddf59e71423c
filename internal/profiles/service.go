// Package profiles manages the named camera profiles operators can assign.
package profiles

import (
	"context"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/validate"
)

var ErrInvalidID = apperr.Invalid("id must be a positive integer")

type Repository interface {
	Create(ctx context.Context, p *data.Profile) error
	GetByID(ctx context.Context, id int64) (*data.Profile, error)
	Update(ctx context.Context, p *data.Profile) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*data.Profile, error)
}

type Input struct {
	ID     int64  `json:"id"`
	Name   string `json:"name" validate:"required,max=200"`
	Status *bool  `json:"status"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*data.Profile, error) {
	list, err := s.repo.List(ctx)
	return list, apperr.FromStorage("profile list", err)
}

func (s *Service) Get(ctx context.Context, id int64) (*data.Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.ForID("profile", id, "profile get", err)
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*data.Profile, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p := &data.Profile{Name: in.Name, Status: in.Status == nil || *in.Status}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.FromStorage("profile create", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, in Input) error {
	if in.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(in); err != nil {
		return err
	}
	p, err := s.Get(ctx, in.ID)
	if err != nil {
		return err
	}
	p.Name = in.Name
	if in.Status != nil {
		p.Status = *in.Status
	}
	return apperr.ForID("profile", in.ID, "profile update", s.repo.Update(ctx, p))
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return apperr.ForID("profile", id, "profile delete", s.repo.Delete(ctx, id))
}
