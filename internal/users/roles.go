package users

import (
	"context"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/validate"
)

type RoleRepository interface {
	Create(ctx context.Context, r *data.Role) error
	GetByID(ctx context.Context, id int64) (*data.Role, error)
	Update(ctx context.Context, r *data.Role) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*data.Role, error)
}

type RoleInput struct {
	ID     int64  `json:"id"`
	Name   string `json:"name" validate:"required,max=100"`
	Status *bool  `json:"status"`
}

type RoleService struct {
	repo RoleRepository
}

func NewRoleService(repo RoleRepository) *RoleService {
	return &RoleService{repo: repo}
}

func (s *RoleService) List(ctx context.Context) ([]*data.Role, error) {
	list, err := s.repo.List(ctx)
	return list, apperr.FromStorage("role list", err)
}

func (s *RoleService) Get(ctx context.Context, id int64) (*data.Role, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.ForID("role", id, "role get", err)
	}
	return r, nil
}

func (s *RoleService) Create(ctx context.Context, in RoleInput) (*data.Role, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	r := &data.Role{Name: in.Name, Status: in.Status == nil || *in.Status}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, apperr.FromStorage("role create", err)
	}
	return r, nil
}

// Update replaces name and, when given, status.
func (s *RoleService) Update(ctx context.Context, in RoleInput) error {
	if in.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(in); err != nil {
		return err
	}
	r, err := s.Get(ctx, in.ID)
	if err != nil {
		return err
	}
	r.Name = in.Name
	if in.Status != nil {
		r.Status = *in.Status
	}
	return apperr.ForID("role", in.ID, "role update", s.repo.Update(ctx, r))
}

// Delete fails with a conflict while users still reference the role.
func (s *RoleService) Delete(ctx context.Context, id int64) error {
	return apperr.ForID("role", id, "role delete", s.repo.Delete(ctx, id))
}
