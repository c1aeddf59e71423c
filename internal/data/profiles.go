package data

import (
	"context"
	"database/sql"
	"time"
)

// Profile and Role share the same shape: a named, switchable lookup row.

type Profile struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Status  bool      `json:"status"`
	RegDate time.Time `json:"regDate"`
}

type Role struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Status  bool      `json:"status"`
	RegDate time.Time `json:"regDate"`
}

type ProfileModel struct {
	DB DBTX
}

func (m ProfileModel) Create(ctx context.Context, p *Profile) error {
	return createNamed(ctx, m.DB, "profiles", p.Name, p.Status, &p.ID, &p.RegDate)
}

func (m ProfileModel) GetByID(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	if err := getNamed(ctx, m.DB, "profiles", id, &p.ID, &p.Name, &p.Status, &p.RegDate); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m ProfileModel) Update(ctx context.Context, p *Profile) error {
	return updateNamed(ctx, m.DB, "profiles", p.ID, p.Name, p.Status)
}

func (m ProfileModel) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, m.DB, "profiles", id)
}

func (m ProfileModel) List(ctx context.Context) ([]*Profile, error) {
	list := []*Profile{}
	err := listNamed(ctx, m.DB, "profiles", func() []any {
		p := &Profile{}
		list = append(list, p)
		return []any{&p.ID, &p.Name, &p.Status, &p.RegDate}
	})
	return list, err
}

type RoleModel struct {
	DB DBTX
}

func (m RoleModel) Create(ctx context.Context, r *Role) error {
	return createNamed(ctx, m.DB, "roles", r.Name, r.Status, &r.ID, &r.RegDate)
}

func (m RoleModel) GetByID(ctx context.Context, id int64) (*Role, error) {
	var r Role
	if err := getNamed(ctx, m.DB, "roles", id, &r.ID, &r.Name, &r.Status, &r.RegDate); err != nil {
		return nil, err
	}
	return &r, nil
}

func (m RoleModel) GetByName(ctx context.Context, name string) (*Role, error) {
	var r Role
	err := m.DB.QueryRowContext(ctx,
		`SELECT id, name, status, reg_date FROM roles WHERE name = $1`, name,
	).Scan(&r.ID, &r.Name, &r.Status, &r.RegDate)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (m RoleModel) Update(ctx context.Context, r *Role) error {
	return updateNamed(ctx, m.DB, "roles", r.ID, r.Name, r.Status)
}

// Delete removes the role. Users holding it go with it through ON DELETE CASCADE.
func (m RoleModel) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, m.DB, "roles", id)
}

func (m RoleModel) List(ctx context.Context) ([]*Role, error) {
	list := []*Role{}
	err := listNamed(ctx, m.DB, "roles", func() []any {
		r := &Role{}
		list = append(list, r)
		return []any{&r.ID, &r.Name, &r.Status, &r.RegDate}
	})
	return list, err
}

func createNamed(ctx context.Context, db DBTX, table, name string, status bool, id *int64, regDate *time.Time) error {
	query := `INSERT INTO ` + table + ` (name, status) VALUES ($1, $2) RETURNING id, reg_date`
	return db.QueryRowContext(ctx, query, name, status).Scan(id, regDate)
}

func getNamed(ctx context.Context, db DBTX, table string, id int64, dest ...any) error {
	err := db.QueryRowContext(ctx,
		`SELECT id, name, status, reg_date FROM `+table+` WHERE id = $1`, id,
	).Scan(dest...)
	if err == sql.ErrNoRows {
		return ErrRecordNotFound
	}
	return err
}

func updateNamed(ctx context.Context, db DBTX, table string, id int64, name string, status bool) error {
	res, err := db.ExecContext(ctx, `UPDATE `+table+` SET name = $1, status = $2 WHERE id = $3`, name, status, id)
	return affectedOrNotFound(res, err)
}

// listNamed calls next once per row for fresh scan destinations.
func listNamed(ctx context.Context, db DBTX, table string, next func() []any) error {
	rows, err := db.QueryContext(ctx, `SELECT id, name, status, reg_date FROM `+table+` ORDER BY id DESC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := rows.Scan(next()...); err != nil {
			return err
		}
	}
	return rows.Err()
}
