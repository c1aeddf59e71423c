package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Coordinates go out as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Camera is a single video capture device registered against an NVR and a Group.
type Camera struct {
	ID               int64               `json:"id"`
	Name             *string             `json:"name"`
	CameraIP         *string             `json:"cameraIP"`
	Area             *string             `json:"area"`
	Location         *string             `json:"location"`
	NVRID            int64               `json:"nvrId"`
	GroupID          int64               `json:"groupId"`
	Brand            *string             `json:"brand"`
	Manufacture      *string             `json:"manufacture"`
	MacAddress       *string             `json:"macAddress"`
	Port             *int                `json:"port"`
	ChannelID        *int                `json:"channelId"`
	Latitude         decimal.NullDecimal `json:"latitude"`
	Longitude        decimal.NullDecimal `json:"longitude"`
	InstallationDate *time.Time          `json:"installationDate"`
	LastLive         *time.Time          `json:"lastLive"`
	RTSPURL          *string             `json:"rtspURL"`
	PinCode          *int                `json:"pinCode"`
	IsRecording      *bool               `json:"isRecording"`
	IsStreaming      *bool               `json:"isStreaming"`
	IsANPR           *bool               `json:"isANPR"`
	Status           bool                `json:"status"`
	UpdateDate       *time.Time          `json:"updateDate"`
	RegDate          time.Time           `json:"regDate"`

	// Populated only by ListWithRelations.
	Group *Group `json:"group,omitempty"`
	NVR   *NVR   `json:"nvr,omitempty"`
}

// CameraMapItem is the reduced projection used by map and stream overlays.
type CameraMapItem struct {
	ID        int64               `json:"id"`
	Name      *string             `json:"name"`
	RTSPURL   *string             `json:"rtspURL"`
	Latitude  decimal.NullDecimal `json:"latitude"`
	Longitude decimal.NullDecimal `json:"longitude"`
}

// Tables whose rows reference cameras.id and go with the camera on delete.
var cameraDependents = []string{
	"camera_activities",
	"camera_alerts",
	"camera_tracking_data",
	"anpr_status",
	"read_vehicle_plates",
	"camera_records",
	"user_camera_permissions",
}

const cameraColumns = `id, name, camera_ip, area, location, nvr_id, group_id,
		brand, manufacture, mac_address, port, channel_id, latitude, longitude,
		installation_date, last_live, rtsp_url, pin_code,
		is_recording, is_streaming, is_anpr, status, update_date, reg_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCamera(s rowScanner, c *Camera, extra ...any) error {
	dest := []any{
		&c.ID, &c.Name, &c.CameraIP, &c.Area, &c.Location, &c.NVRID, &c.GroupID,
		&c.Brand, &c.Manufacture, &c.MacAddress, &c.Port, &c.ChannelID, &c.Latitude, &c.Longitude,
		&c.InstallationDate, &c.LastLive, &c.RTSPURL, &c.PinCode,
		&c.IsRecording, &c.IsStreaming, &c.IsANPR, &c.Status, &c.UpdateDate, &c.RegDate,
	}
	return s.Scan(append(dest, extra...)...)
}

type CameraModel struct {
	DB DBTX
}

// Create inserts a camera. NVR and Group existence is enforced by the FKs.
func (m CameraModel) Create(ctx context.Context, c *Camera) error {
	return insertCamera(ctx, m.DB, c)
}

// CreateMany inserts every camera in one transaction; the first failure aborts the batch.
func (m CameraModel) CreateMany(ctx context.Context, cams []*Camera) error {
	return withTx(ctx, m.DB, func(tx DBTX) error {
		for i, c := range cams {
			if err := insertCamera(ctx, tx, c); err != nil {
				return fmt.Errorf("camera %d: %w", i, err)
			}
		}
		return nil
	})
}

func insertCamera(ctx context.Context, db DBTX, c *Camera) error {
	query := `
		INSERT INTO cameras (
			name, camera_ip, area, location, nvr_id, group_id,
			brand, manufacture, mac_address, port, channel_id, latitude, longitude,
			installation_date, last_live, rtsp_url, pin_code,
			is_recording, is_streaming, is_anpr, status, update_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, reg_date`

	return db.QueryRowContext(ctx, query,
		c.Name, c.CameraIP, c.Area, c.Location, c.NVRID, c.GroupID,
		c.Brand, c.Manufacture, c.MacAddress, c.Port, c.ChannelID, c.Latitude, c.Longitude,
		c.InstallationDate, c.LastLive, c.RTSPURL, c.PinCode,
		c.IsRecording, c.IsStreaming, c.IsANPR, c.Status, c.UpdateDate,
	).Scan(&c.ID, &c.RegDate)
}

// GetByID returns the first match under descending id order.
func (m CameraModel) GetByID(ctx context.Context, id int64) (*Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM cameras WHERE id = $1 ORDER BY id DESC LIMIT 1`

	var c Camera
	err := scanCamera(m.DB.QueryRowContext(ctx, query, id), &c)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update writes every patchable column. reg_date, last_live and update_date are left alone.
func (m CameraModel) Update(ctx context.Context, c *Camera) error {
	query := `
		UPDATE cameras
		SET name = $1, camera_ip = $2, area = $3, location = $4, nvr_id = $5, group_id = $6,
		    brand = $7, manufacture = $8, mac_address = $9, port = $10, channel_id = $11,
		    latitude = $12, longitude = $13, installation_date = $14, rtsp_url = $15, pin_code = $16,
		    is_recording = $17, is_streaming = $18, is_anpr = $19, status = $20
		WHERE id = $21`

	res, err := m.DB.ExecContext(ctx, query,
		c.Name, c.CameraIP, c.Area, c.Location, c.NVRID, c.GroupID,
		c.Brand, c.Manufacture, c.MacAddress, c.Port, c.ChannelID,
		c.Latitude, c.Longitude, c.InstallationDate, c.RTSPURL, c.PinCode,
		c.IsRecording, c.IsStreaming, c.IsANPR, c.Status,
		c.ID,
	)
	return affectedOrNotFound(res, err)
}

func (m CameraModel) SetStatus(ctx context.Context, id int64, status bool) error {
	return setStatus(ctx, m.DB, "cameras", id, status)
}

// Delete removes the camera and every dependent row in one transaction.
func (m CameraModel) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, m.DB, func(tx DBTX) error {
		for _, table := range cameraDependents {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE camera_id = $1`, id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM cameras WHERE id = $1`, id)
		return affectedOrNotFound(res, err)
	})
}

// deleteCamerasBy removes all cameras whose parentColumn equals id, dependents first.
// parentColumn is always a package constant, never caller input.
func deleteCamerasBy(ctx context.Context, tx DBTX, parentColumn string, id int64) error {
	sub := `SELECT id FROM cameras WHERE ` + parentColumn + ` = $1`
	for _, table := range cameraDependents {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE camera_id IN (`+sub+`)`, id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cameras WHERE `+parentColumn+` = $1`, id); err != nil {
		return fmt.Errorf("delete cameras: %w", err)
	}
	return nil
}

// ExportAll returns every camera in storage order.
func (m CameraModel) ExportAll(ctx context.Context) ([]*Camera, error) {
	return m.query(ctx, `SELECT `+cameraColumns+` FROM cameras ORDER BY id`)
}

// Page returns one page under descending id order plus the unpaginated total,
// both read from the same snapshot.
func (m CameraModel) Page(ctx context.Context, limit, offset int) ([]*Camera, int, error) {
	var (
		list  []*Camera
		total int
	)
	err := withReadTx(ctx, m.DB, func(tx DBTX) error {
		var err error
		if total, err = countAll(ctx, tx, "cameras"); err != nil {
			return err
		}
		list, err = CameraModel{DB: tx}.query(ctx,
			`SELECT `+cameraColumns+` FROM cameras ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (m CameraModel) query(ctx context.Context, query string, args ...any) ([]*Camera, error) {
	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cams := []*Camera{}
	for rows.Next() {
		var c Camera
		if err := scanCamera(rows, &c); err != nil {
			return nil, err
		}
		cams = append(cams, &c)
	}
	return cams, rows.Err()
}

// ListWithRelations returns all cameras, newest first, with Group and NVR attached.
func (m CameraModel) ListWithRelations(ctx context.Context) ([]*Camera, error) {
	query := `
		SELECT c.id, c.name, c.camera_ip, c.area, c.location, c.nvr_id, c.group_id,
		       c.brand, c.manufacture, c.mac_address, c.port, c.channel_id, c.latitude, c.longitude,
		       c.installation_date, c.last_live, c.rtsp_url, c.pin_code,
		       c.is_recording, c.is_streaming, c.is_anpr, c.status, c.update_date, c.reg_date,
		       g.id, g.name, g.description, g.status, g.reg_date,
		       n.id, n.name, n.nvr_ip, n.port, n.username, n.nvr_type, n.model, n.status, n.reg_date
		FROM cameras c
		JOIN groups g ON g.id = c.group_id
		JOIN nvrs n ON n.id = c.nvr_id
		ORDER BY c.id DESC`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cams := []*Camera{}
	for rows.Next() {
		var c Camera
		var g Group
		var n NVR
		err := scanCamera(rows, &c,
			&g.ID, &g.Name, &g.Description, &g.Status, &g.RegDate,
			&n.ID, &n.Name, &n.NVRIP, &n.Port, &n.Username, &n.NVRType, &n.Model, &n.Status, &n.RegDate,
		)
		if err != nil {
			return nil, err
		}
		c.Group = &g
		c.NVR = &n
		cams = append(cams, &c)
	}
	return cams, rows.Err()
}

func (m CameraModel) Stats(ctx context.Context) (StatusCounts, error) {
	return countByStatus(ctx, m.DB, "cameras")
}

// ListForMap returns active cameras, newest first, in the map projection.
func (m CameraModel) ListForMap(ctx context.Context) ([]*CameraMapItem, error) {
	query := `
		SELECT id, name, rtsp_url, latitude, longitude
		FROM cameras
		WHERE status
		ORDER BY id DESC`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*CameraMapItem{}
	for rows.Next() {
		var it CameraMapItem
		if err := rows.Scan(&it.ID, &it.Name, &it.RTSPURL, &it.Latitude, &it.Longitude); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// Exists is used to check camera references before writing child rows.
func (m CameraModel) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := m.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cameras WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
