package data

import (
	"context"
	"database/sql"
	"time"
)

// NVR is a network video recorder. The password is stored sealed and never serialized.
type NVR struct {
	ID             int64     `json:"id"`
	Name           *string   `json:"name"`
	NVRIP          *string   `json:"nvrIP"`
	Port           *int      `json:"port"`
	Username       *string   `json:"username"`
	PasswordSealed *string   `json:"-"`
	NVRType        *string   `json:"nvrType"`
	Model          *string   `json:"model"`
	Status         bool      `json:"status"`
	RegDate        time.Time `json:"regDate"`
}

type NVRModel struct {
	DB DBTX
}

const nvrColumns = `id, name, nvr_ip, port, username, password_sealed, nvr_type, model, status, reg_date`

func scanNVR(s rowScanner, n *NVR) error {
	return s.Scan(&n.ID, &n.Name, &n.NVRIP, &n.Port, &n.Username, &n.PasswordSealed,
		&n.NVRType, &n.Model, &n.Status, &n.RegDate)
}

func (m NVRModel) Create(ctx context.Context, n *NVR) error {
	query := `
		INSERT INTO nvrs (name, nvr_ip, port, username, password_sealed, nvr_type, model, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, reg_date`

	return m.DB.QueryRowContext(ctx, query,
		n.Name, n.NVRIP, n.Port, n.Username, n.PasswordSealed, n.NVRType, n.Model, n.Status,
	).Scan(&n.ID, &n.RegDate)
}

func (m NVRModel) GetByID(ctx context.Context, id int64) (*NVR, error) {
	var n NVR
	err := scanNVR(m.DB.QueryRowContext(ctx, `SELECT `+nvrColumns+` FROM nvrs WHERE id = $1`, id), &n)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (m NVRModel) Update(ctx context.Context, n *NVR) error {
	query := `
		UPDATE nvrs
		SET name = $1, nvr_ip = $2, port = $3, username = $4, password_sealed = $5,
		    nvr_type = $6, model = $7, status = $8
		WHERE id = $9`

	res, err := m.DB.ExecContext(ctx, query,
		n.Name, n.NVRIP, n.Port, n.Username, n.PasswordSealed, n.NVRType, n.Model, n.Status, n.ID)
	return affectedOrNotFound(res, err)
}

func (m NVRModel) SetStatus(ctx context.Context, id int64, status bool) error {
	return setStatus(ctx, m.DB, "nvrs", id, status)
}

// Delete removes the NVR together with its cameras and their dependents.
func (m NVRModel) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, m.DB, func(tx DBTX) error {
		if err := deleteCamerasBy(ctx, tx, "nvr_id", id); err != nil {
			return err
		}
		return deleteByID(ctx, tx, "nvrs", id)
	})
}

func (m NVRModel) List(ctx context.Context) ([]*NVR, error) {
	return m.query(ctx, `SELECT `+nvrColumns+` FROM nvrs ORDER BY id DESC`)
}

func (m NVRModel) Page(ctx context.Context, limit, offset int) ([]*NVR, int, error) {
	var (
		list  []*NVR
		total int
	)
	err := withReadTx(ctx, m.DB, func(tx DBTX) error {
		var err error
		if total, err = countAll(ctx, tx, "nvrs"); err != nil {
			return err
		}
		list, err = NVRModel{DB: tx}.query(ctx, `SELECT `+nvrColumns+` FROM nvrs ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (m NVRModel) Stats(ctx context.Context) (StatusCounts, error) {
	return countByStatus(ctx, m.DB, "nvrs")
}

func (m NVRModel) query(ctx context.Context, query string, args ...any) ([]*NVR, error) {
	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nvrs := []*NVR{}
	for rows.Next() {
		var n NVR
		if err := scanNVR(rows, &n); err != nil {
			return nil, err
		}
		nvrs = append(nvrs, &n)
	}
	return nvrs, rows.Err()
}
