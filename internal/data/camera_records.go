package data

import (
	"context"
	"database/sql"
	"time"
)

// CameraActivity is an operator action recorded against a camera.
type CameraActivity struct {
	ID       int64     `json:"id"`
	CameraID int64     `json:"cameraId"`
	UserID   *int64    `json:"userId"`
	Activity string    `json:"activity"`
	Status   bool      `json:"status"`
	RegDate  time.Time `json:"regDate"`
}

// CameraAlert is a detection raised by analytics on a camera frame.
type CameraAlert struct {
	ID          int64     `json:"id"`
	CameraID    int64     `json:"cameraId"`
	FramePath   *string   `json:"framePath"`
	ObjectName  *string   `json:"objectName"`
	ObjectCount *int      `json:"objectCount"`
	AlertStatus *string   `json:"alertStatus"`
	Status      bool      `json:"status"`
	RegDate     time.Time `json:"regDate"`
}

// CameraTrackingData is a vehicle sighting with plate capture.
type CameraTrackingData struct {
	ID           int64     `json:"id"`
	CameraID     int64     `json:"cameraId"`
	VehicleImage *string   `json:"vehicleImage"`
	NoPlateImage *string   `json:"noPlateImage"`
	VehicleNo    *string   `json:"vehicleNo"`
	Status       bool      `json:"status"`
	RegDate      time.Time `json:"regDate"`
}

type ActivityModel struct {
	DB DBTX
}

func (m ActivityModel) Create(ctx context.Context, a *CameraActivity) error {
	query := `
		INSERT INTO camera_activities (camera_id, user_id, activity, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, reg_date`
	return m.DB.QueryRowContext(ctx, query, a.CameraID, a.UserID, a.Activity, a.Status).Scan(&a.ID, &a.RegDate)
}

func (m ActivityModel) GetByID(ctx context.Context, id int64) (*CameraActivity, error) {
	query := `SELECT id, camera_id, user_id, activity, status, reg_date FROM camera_activities WHERE id = $1`
	var a CameraActivity
	err := m.DB.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.CameraID, &a.UserID, &a.Activity, &a.Status, &a.RegDate)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (m ActivityModel) Update(ctx context.Context, a *CameraActivity) error {
	query := `UPDATE camera_activities SET camera_id = $1, user_id = $2, activity = $3, status = $4 WHERE id = $5`
	res, err := m.DB.ExecContext(ctx, query, a.CameraID, a.UserID, a.Activity, a.Status, a.ID)
	return affectedOrNotFound(res, err)
}

func (m ActivityModel) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, m.DB, "camera_activities", id)
}

func (m ActivityModel) List(ctx context.Context) ([]*CameraActivity, error) {
	rows, err := m.DB.QueryContext(ctx,
		`SELECT id, camera_id, user_id, activity, status, reg_date FROM camera_activities ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*CameraActivity{}
	for rows.Next() {
		var a CameraActivity
		if err := rows.Scan(&a.ID, &a.CameraID, &a.UserID, &a.Activity, &a.Status, &a.RegDate); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

type AlertModel struct {
	DB DBTX
}

const alertColumns = `id, camera_id, frame_path, object_name, object_count, alert_status, status, reg_date`

func (m AlertModel) Create(ctx context.Context, a *CameraAlert) error {
	query := `
		INSERT INTO camera_alerts (camera_id, frame_path, object_name, object_count, alert_status, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, reg_date`
	return m.DB.QueryRowContext(ctx, query,
		a.CameraID, a.FramePath, a.ObjectName, a.ObjectCount, a.AlertStatus, a.Status,
	).Scan(&a.ID, &a.RegDate)
}

func (m AlertModel) SetStatus(ctx context.Context, id int64, status bool) error {
	return setStatus(ctx, m.DB, "camera_alerts", id, status)
}

func (m AlertModel) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, m.DB, "camera_alerts", id)
}

func (m AlertModel) List(ctx context.Context) ([]*CameraAlert, error) {
	return m.query(ctx, `SELECT `+alertColumns+` FROM camera_alerts ORDER BY id DESC`)
}

func (m AlertModel) ListByCamera(ctx context.Context, cameraID int64) ([]*CameraAlert, error) {
	return m.query(ctx, `SELECT `+alertColumns+` FROM camera_alerts WHERE camera_id = $1 ORDER BY id DESC`, cameraID)
}

func (m AlertModel) query(ctx context.Context, query string, args ...any) ([]*CameraAlert, error) {
	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*CameraAlert{}
	for rows.Next() {
		var a CameraAlert
		if err := rows.Scan(&a.ID, &a.CameraID, &a.FramePath, &a.ObjectName, &a.ObjectCount,
			&a.AlertStatus, &a.Status, &a.RegDate); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

type TrackingModel struct {
	DB DBTX
}

const trackingColumns = `id, camera_id, vehicle_image, no_plate_image, vehicle_no, status, reg_date`

func (m TrackingModel) Create(ctx context.Context, t *CameraTrackingData) error {
	query := `
		INSERT INTO camera_tracking_data (camera_id, vehicle_image, no_plate_image, vehicle_no, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, reg_date`
	return m.DB.QueryRowContext(ctx, query,
		t.CameraID, t.VehicleImage, t.NoPlateImage, t.VehicleNo, t.Status,
	).Scan(&t.ID, &t.RegDate)
}

func (m TrackingModel) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, m.DB, "camera_tracking_data", id)
}

func (m TrackingModel) Page(ctx context.Context, limit, offset int) ([]*CameraTrackingData, int, error) {
	var (
		list  []*CameraTrackingData
		total int
	)
	err := withReadTx(ctx, m.DB, func(tx DBTX) error {
		var err error
		if total, err = countAll(ctx, tx, "camera_tracking_data"); err != nil {
			return err
		}
		list, err = TrackingModel{DB: tx}.query(ctx,
			`SELECT `+trackingColumns+` FROM camera_tracking_data ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (m TrackingModel) ListByCamera(ctx context.Context, cameraID int64) ([]*CameraTrackingData, error) {
	return m.query(ctx,
		`SELECT `+trackingColumns+` FROM camera_tracking_data WHERE camera_id = $1 ORDER BY id DESC`, cameraID)
}

func (m TrackingModel) query(ctx context.Context, query string, args ...any) ([]*CameraTrackingData, error) {
	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*CameraTrackingData{}
	for rows.Next() {
		var t CameraTrackingData
		if err := rows.Scan(&t.ID, &t.CameraID, &t.VehicleImage, &t.NoPlateImage, &t.VehicleNo,
			&t.Status, &t.RegDate); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
