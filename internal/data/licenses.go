package data

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrLicenseDisabled  = errors.New("license is disabled")
	ErrActivationsSpent = errors.New("license has no free activations")
)

type License struct {
	ID          int64     `json:"id"`
	Name        *string   `json:"name"`
	LicenseKey  *string   `json:"licenseKey"`
	ProductCode string    `json:"productCode"`
	Days        *int      `json:"days"`
	TotalPC     *int      `json:"totalPC"`
	TotalCamera *int      `json:"totalCamera"`
	Description *string   `json:"description"`
	Status      bool      `json:"status"`
	RegDate     time.Time `json:"regDate"`
}

// LicenseActivation binds a license to one machine for a user until ExpiryDate.
type LicenseActivation struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	LicenseID  int64      `json:"licenseId"`
	MachineIP  *string    `json:"machineIP"`
	ExpiryDate *time.Time `json:"expiryDate"`
	Status     bool       `json:"status"`
	RegDate    time.Time  `json:"regDate"`
}

type LicenseModel struct {
	DB DBTX
}

const licenseColumns = `id, name, license_key, product_code, days, total_pc, total_camera, description, status, reg_date`

func scanLicense(s rowScanner, l *License) error {
	return s.Scan(&l.ID, &l.Name, &l.LicenseKey, &l.ProductCode, &l.Days, &l.TotalPC,
		&l.TotalCamera, &l.Description, &l.Status, &l.RegDate)
}

func (m LicenseModel) Create(ctx context.Context, l *License) error {
	query := `
		INSERT INTO licenses (name, license_key, product_code, days, total_pc, total_camera, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, reg_date`

	return m.DB.QueryRowContext(ctx, query,
		l.Name, l.LicenseKey, l.ProductCode, l.Days, l.TotalPC, l.TotalCamera, l.Description, l.Status,
	).Scan(&l.ID, &l.RegDate)
}

func (m LicenseModel) GetByID(ctx context.Context, id int64) (*License, error) {
	var l License
	err := scanLicense(m.DB.QueryRowContext(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE id = $1`, id), &l)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (m LicenseModel) Update(ctx context.Context, l *License) error {
	query := `
		UPDATE licenses
		SET name = $1, license_key = $2, product_code = $3, days = $4, total_pc = $5,
		    total_camera = $6, description = $7, status = $8
		WHERE id = $9`

	res, err := m.DB.ExecContext(ctx, query,
		l.Name, l.LicenseKey, l.ProductCode, l.Days, l.TotalPC, l.TotalCamera, l.Description, l.Status, l.ID)
	return affectedOrNotFound(res, err)
}

func (m LicenseModel) SetStatus(ctx context.Context, id int64, status bool) error {
	return setStatus(ctx, m.DB, "licenses", id, status)
}

func (m LicenseModel) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, m.DB, "licenses", id)
}

func (m LicenseModel) List(ctx context.Context) ([]*License, error) {
	rows, err := m.DB.QueryContext(ctx, `SELECT `+licenseColumns+` FROM licenses ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*License{}
	for rows.Next() {
		var l License
		if err := scanLicense(rows, &l); err != nil {
			return nil, err
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// CountActiveActivations counts unexpired, enabled activations of a license.
func (m LicenseModel) CountActiveActivations(ctx context.Context, licenseID int64, now time.Time) (int, error) {
	query := `
		SELECT count(*)
		FROM license_activations
		WHERE license_id = $1 AND status AND (expiry_date IS NULL OR expiry_date > $2)`

	var n int
	err := m.DB.QueryRowContext(ctx, query, licenseID, now).Scan(&n)
	return n, err
}

// Activate locks the license row, checks the seat limit and inserts a, all in one
// transaction. ExpiryDate is set from the license's day count when it has one.
func (m LicenseModel) Activate(ctx context.Context, a *LicenseActivation, now time.Time) error {
	return withTx(ctx, m.DB, func(tx DBTX) error {
		var (
			status  bool
			days    sql.NullInt64
			totalPC sql.NullInt64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT status, days, total_pc FROM licenses WHERE id = $1 FOR UPDATE`, a.LicenseID,
		).Scan(&status, &days, &totalPC)
		if err == sql.ErrNoRows {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		if !status {
			return ErrLicenseDisabled
		}

		if totalPC.Valid {
			n, err := LicenseModel{DB: tx}.CountActiveActivations(ctx, a.LicenseID, now)
			if err != nil {
				return err
			}
			if int64(n) >= totalPC.Int64 {
				return ErrActivationsSpent
			}
		}

		if days.Valid {
			exp := now.AddDate(0, 0, int(days.Int64))
			a.ExpiryDate = &exp
		}
		return LicenseModel{DB: tx}.CreateActivation(ctx, a)
	})
}

func (m LicenseModel) CreateActivation(ctx context.Context, a *LicenseActivation) error {
	query := `
		INSERT INTO license_activations (user_id, license_id, machine_ip, expiry_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, reg_date`

	return m.DB.QueryRowContext(ctx, query,
		a.UserID, a.LicenseID, a.MachineIP, a.ExpiryDate, a.Status,
	).Scan(&a.ID, &a.RegDate)
}

func (m LicenseModel) ListActivations(ctx context.Context, licenseID int64) ([]*LicenseActivation, error) {
	query := `
		SELECT id, user_id, license_id, machine_ip, expiry_date, status, reg_date
		FROM license_activations
		WHERE license_id = $1
		ORDER BY id DESC`

	rows, err := m.DB.QueryContext(ctx, query, licenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*LicenseActivation{}
	for rows.Next() {
		var a LicenseActivation
		if err := rows.Scan(&a.ID, &a.UserID, &a.LicenseID, &a.MachineIP, &a.ExpiryDate, &a.Status, &a.RegDate); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
