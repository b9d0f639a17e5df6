package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/special-academy-api/internal/model"
)

// mysqlActivityLogs appends to activity_logs. Rows are never updated.
type mysqlActivityLogs struct{ db *sql.DB }

func (r *mysqlActivityLogs) Create(ctx context.Context, l *model.ActivityLog) error {
	var created time.Time
	stamp(&l.ID, &created, &created)
	if l.Timestamp.IsZero() {
		l.Timestamp = created
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, admin_id, action, entity, entity_id, ts, device, ip_address)
		 VALUES (?,?,?,?,?,?,?,?)`,
		l.ID, l.AdminID, l.Action, l.Entity, l.EntityID, l.Timestamp, l.Device, l.IPAddress)
	return sqlErr("insert activity log", err)
}

// List returns the newest entries first.
func (r *mysqlActivityLogs) List(ctx context.Context, f ActivityFilter) ([]*model.ActivityLog, error) {
	p := f.Normalize()
	where, args := f.where()
	args = append(args, p.Limit, p.Offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, admin_id, action, entity, entity_id, ts, device, ip_address
		 FROM activity_logs`+where+` ORDER BY ts DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, sqlErr("list activity logs", err)
	}
	defer rows.Close()

	out := make([]*model.ActivityLog, 0)
	for rows.Next() {
		l := new(model.ActivityLog)
		if err := rows.Scan(&l.ID, &l.AdminID, &l.Action, &l.Entity, &l.EntityID, &l.Timestamp, &l.Device, &l.IPAddress); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *mysqlActivityLogs) Count(ctx context.Context, f ActivityFilter) (int64, error) {
	where, args := f.where()
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM activity_logs"+where, args...)
}

func (f ActivityFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.AdminID != "" {
		conds = append(conds, "admin_id = ?")
		args = append(args, f.AdminID)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, f.Action)
	}
	if f.Entity != "" {
		conds = append(conds, "entity = ?")
		args = append(args, f.Entity)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
