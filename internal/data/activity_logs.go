package data

import (
	"context"
	"encoding/json"
	"time"
)

// ActivityLog is an append-only record of a mutating API call.
type ActivityLog struct {
	ID         int64           `json:"id"`
	UserID     *int64          `json:"userId"`
	ModuleName string          `json:"moduleName"`
	Action     string          `json:"action"`
	Data       json.RawMessage `json:"data,omitempty"`
	RegDate    time.Time       `json:"regDate"`
}

type ActivityLogModel struct {
	DB DBTX
}

func (m ActivityLogModel) Insert(ctx context.Context, l *ActivityLog) error {
	query := `
		INSERT INTO activity_logs (user_id, module_name, action, data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, reg_date`

	var payload []byte
	if len(l.Data) > 0 {
		payload = l.Data
	}
	return m.DB.QueryRowContext(ctx, query, l.UserID, l.ModuleName, l.Action, payload).Scan(&l.ID, &l.RegDate)
}

func (m ActivityLogModel) Page(ctx context.Context, limit, offset int) ([]*ActivityLog, int, error) {
	var (
		logs  []*ActivityLog
		total int
	)
	err := withReadTx(ctx, m.DB, func(tx DBTX) error {
		var err error
		if total, err = countAll(ctx, tx, "activity_logs"); err != nil {
			return err
		}
		logs, err = ActivityLogModel{DB: tx}.page(ctx, limit, offset)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (m ActivityLogModel) page(ctx context.Context, limit, offset int) ([]*ActivityLog, error) {
	query := `
		SELECT id, user_id, module_name, action, data, reg_date
		FROM activity_logs
		ORDER BY id DESC
		LIMIT $1 OFFSET $2`

	rows, err := m.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*ActivityLog{}
	for rows.Next() {
		var l ActivityLog
		var payload []byte
		if err := rows.Scan(&l.ID, &l.UserID, &l.ModuleName, &l.Action, &payload, &l.RegDate); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			l.Data = json.RawMessage(payload)
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

// DeleteBefore purges entries older than cutoff and reports how many went.
func (m ActivityLogModel) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := m.DB.ExecContext(ctx, `DELETE FROM activity_logs WHERE reg_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
