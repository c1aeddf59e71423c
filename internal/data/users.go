package data

import (
	"context"
	"database/sql"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	FirstName    *string   `json:"firstName"`
	LastName     *string   `json:"lastName"`
	MobileNo     *string   `json:"mobileNo"`
	EmailID      *string   `json:"emailId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"roleId"`
	Image        *string   `json:"image"`
	Status       bool      `json:"status"`
	RegDate      time.Time `json:"regDate"`

	// Populated only by ListWithRole.
	Role *Role `json:"role,omitempty"`
}

type UserModel struct {
	DB DBTX
}

const userColumns = `id, first_name, last_name, mobile_no, email_id, username, password_hash, role_id, image, status, reg_date`

func scanUser(s rowScanner, u *User, extra ...any) error {
	dest := []any{&u.ID, &u.FirstName, &u.LastName, &u.MobileNo, &u.EmailID, &u.Username,
		&u.PasswordHash, &u.RoleID, &u.Image, &u.Status, &u.RegDate}
	return s.Scan(append(dest, extra...)...)
}

func (m UserModel) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (first_name, last_name, mobile_no, email_id, username, password_hash, role_id, image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, reg_date`

	return m.DB.QueryRowContext(ctx, query,
		u.FirstName, u.LastName, u.MobileNo, u.EmailID, u.Username, u.PasswordHash, u.RoleID, u.Image, u.Status,
	).Scan(&u.ID, &u.RegDate)
}

func (m UserModel) GetByID(ctx context.Context, id int64) (*User, error) {
	return m.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername is used by login; disabled users are still returned so the caller can refuse them.
func (m UserModel) GetByUsername(ctx context.Context, username string) (*User, error) {
	return m.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (m UserModel) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := scanUser(m.DB.QueryRowContext(ctx, query, arg), &u)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (m UserModel) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, mobile_no = $3, email_id = $4, username = $5,
		    password_hash = $6, role_id = $7, image = $8, status = $9
		WHERE id = $10`

	res, err := m.DB.ExecContext(ctx, query,
		u.FirstName, u.LastName, u.MobileNo, u.EmailID, u.Username,
		u.PasswordHash, u.RoleID, u.Image, u.Status, u.ID)
	return affectedOrNotFound(res, err)
}

func (m UserModel) SetStatus(ctx context.Context, id int64, status bool) error {
	return setStatus(ctx, m.DB, "users", id, status)
}

// Delete removes the user. Permissions, activations, activities and logs
// referencing the user are removed by ON DELETE CASCADE.
func (m UserModel) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, m.DB, "users", id)
}

// ListWithRole returns all users, newest first, with their Role attached.
func (m UserModel) ListWithRole(ctx context.Context) ([]*User, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.mobile_no, u.email_id, u.username, u.password_hash,
		       u.role_id, u.image, u.status, u.reg_date,
		       r.id, r.name, r.status, r.reg_date
		FROM users u
		JOIN roles r ON r.id = u.role_id
		ORDER BY u.id DESC`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		var u User
		var r Role
		if err := scanUser(rows, &u, &r.ID, &r.Name, &r.Status, &r.RegDate); err != nil {
			return nil, err
		}
		u.Role = &r
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (m UserModel) Page(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var (
		users []*User
		total int
	)
	err := withReadTx(ctx, m.DB, func(tx DBTX) error {
		var err error
		if total, err = countAll(ctx, tx, "users"); err != nil {
			return err
		}
		users, err = UserModel{DB: tx}.page(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (m UserModel) page(ctx context.Context, limit, offset int) ([]*User, error) {
	rows, err := m.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
