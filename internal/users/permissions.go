package users

import (
	"context"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/validate"
)

type PermissionRepository interface {
	Grant(ctx context.Context, p *data.UserCameraPermission) error
	Delete(ctx context.Context, id int64) error
	ListForUser(ctx context.Context, userID int64) ([]*data.UserCameraPermission, error)
}

type GrantInput struct {
	UserID   int64 `json:"userId" validate:"required,gt=0"`
	CameraID int64 `json:"cameraId" validate:"required,gt=0"`
	Status   *bool `json:"status"`
}

// PermissionService manages which cameras a user may see.
type PermissionService struct {
	repo PermissionRepository
}

func NewPermissionService(repo PermissionRepository) *PermissionService {
	return &PermissionService{repo: repo}
}

func (s *PermissionService) ListForUser(ctx context.Context, userID int64) ([]*data.UserCameraPermission, error) {
	if userID <= 0 {
		return nil, ErrInvalidID
	}
	list, err := s.repo.ListForUser(ctx, userID)
	return list, apperr.FromStorage("permission list", err)
}

// Grant is idempotent per (user, camera) pair. Unknown users or cameras fail the FK check.
func (s *PermissionService) Grant(ctx context.Context, in GrantInput) (*data.UserCameraPermission, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	p := &data.UserCameraPermission{UserID: in.UserID, CameraID: in.CameraID, Status: in.Status == nil || *in.Status}
	if err := s.repo.Grant(ctx, p); err != nil {
		return nil, apperr.FromStorage("permission grant", err)
	}
	return p, nil
}

func (s *PermissionService) Revoke(ctx context.Context, id int64) error {
	return apperr.ForID("permission", id, "permission revoke", s.repo.Delete(ctx, id))
}
