package data

import (
	"context"
	"time"
)

// UserCameraPermission grants one user access to one camera.
type UserCameraPermission struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"userId"`
	CameraID int64     `json:"cameraId"`
	Status   bool      `json:"status"`
	RegDate  time.Time `json:"regDate"`

	// Populated only by ListForUser.
	CameraName *string `json:"cameraName,omitempty"`
}

type PermissionModel struct {
	DB DBTX
}

// Grant inserts the pair, or re-enables it when it already exists.
func (m PermissionModel) Grant(ctx context.Context, p *UserCameraPermission) error {
	query := `
		INSERT INTO user_camera_permissions (user_id, camera_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, camera_id) DO UPDATE SET status = EXCLUDED.status
		RETURNING id, reg_date`
	return m.DB.QueryRowContext(ctx, query, p.UserID, p.CameraID, p.Status).Scan(&p.ID, &p.RegDate)
}

func (m PermissionModel) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, m.DB, "user_camera_permissions", id)
}

// ListForUser returns the user's grants joined with the camera name.
func (m PermissionModel) ListForUser(ctx context.Context, userID int64) ([]*UserCameraPermission, error) {
	query := `
		SELECT p.id, p.user_id, p.camera_id, p.status, p.reg_date, c.name
		FROM user_camera_permissions p
		JOIN cameras c ON c.id = p.camera_id
		WHERE p.user_id = $1
		ORDER BY p.id DESC`

	rows, err := m.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []*UserCameraPermission{}
	for rows.Next() {
		var p UserCameraPermission
		if err := rows.Scan(&p.ID, &p.UserID, &p.CameraID, &p.Status, &p.RegDate, &p.CameraName); err != nil {
			return nil, err
		}
		perms = append(perms, &p)
	}
	return perms, rows.Err()
}
