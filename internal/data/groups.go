package data

import (
	"context"
	"database/sql"
	"time"
)

// Group is a named collection of cameras.
type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Status      bool      `json:"status"`
	RegDate     time.Time `json:"regDate"`
}

type GroupModel struct {
	DB DBTX
}

func (m GroupModel) Create(ctx context.Context, g *Group) error {
	query := `
		INSERT INTO groups (name, description, status)
		VALUES ($1, $2, $3)
		RETURNING id, reg_date`
	return m.DB.QueryRowContext(ctx, query, g.Name, g.Description, g.Status).Scan(&g.ID, &g.RegDate)
}

func (m GroupModel) GetByID(ctx context.Context, id int64) (*Group, error) {
	query := `SELECT id, name, description, status, reg_date FROM groups WHERE id = $1`
	var g Group
	err := m.DB.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.Name, &g.Description, &g.Status, &g.RegDate)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (m GroupModel) Update(ctx context.Context, g *Group) error {
	query := `UPDATE groups SET name = $1, description = $2, status = $3 WHERE id = $4`
	res, err := m.DB.ExecContext(ctx, query, g.Name, g.Description, g.Status, g.ID)
	return affectedOrNotFound(res, err)
}

func (m GroupModel) SetStatus(ctx context.Context, id int64, status bool) error {
	return setStatus(ctx, m.DB, "groups", id, status)
}

// Delete removes the group together with its cameras and their dependents.
func (m GroupModel) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, m.DB, func(tx DBTX) error {
		if err := deleteCamerasBy(ctx, tx, "group_id", id); err != nil {
			return err
		}
		return deleteByID(ctx, tx, "groups", id)
	})
}

func (m GroupModel) List(ctx context.Context) ([]*Group, error) {
	rows, err := m.DB.QueryContext(ctx, `SELECT id, name, description, status, reg_date FROM groups ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []*Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Status, &g.RegDate); err != nil {
			return nil, err
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (m GroupModel) Stats(ctx context.Context) (StatusCounts, error) {
	return countByStatus(ctx, m.DB, "groups")
}
