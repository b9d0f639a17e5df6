package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/special-academy-api/internal/model"
)

// NewMySQLStore builds a Store over a MySQL pool migrated with database.Migrate.
func NewMySQLStore(db *sql.DB) *Store {
	return &Store{
		Users:         &mysqlUsers{db: db},
		Categories:    &mysqlCategories{db: db},
		Subcategories: &mysqlSubcategories{db: db},
		Items:         &mysqlItems{db: db},
		ActivityLogs:  &mysqlActivityLogs{db: db},
		closer:        func(context.Context) error { return db.Close() },
	}
}

// sqlErr maps driver errors onto the package sentinels.
func sqlErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affected turns a zero RowsAffected into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type mysqlUsers struct{ db *sql.DB }

const userColumns = "id,full_name,email,password_hash,role,refresh_token_hash,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.RefreshTokenHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts the user with a normalized email.
func (r *mysqlUsers) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?)",
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Role, u.RefreshTokenHash, u.CreatedAt, u.UpdatedAt)
	return sqlErr("insert user", err)
}

// GetByID fetches a user by id.
func (r *mysqlUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, sqlErr("get user", err)
}

// GetByEmail fetches a user by normalized email.
func (r *mysqlUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	return u, sqlErr("get user by email", err)
}

func (r *mysqlUsers) List(ctx context.Context, p Page) ([]*model.User, error) {
	p = p.Normalize()
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at, id LIMIT ? OFFSET ?", p.Limit, p.Offset)
	if err != nil {
		return nil, sqlErr("list users", err)
	}
	defer rows.Close()

	out := make([]*model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *mysqlUsers) Update(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET full_name=?, email=?, password_hash=?, role=?, updated_at=? WHERE id=?",
		u.FullName, u.Email, u.PasswordHash, u.Role, u.UpdatedAt, u.ID)
	if err != nil {
		return sqlErr("update user", err)
	}
	if err := affected(res); err != nil {
		// MySQL reports zero rows when nothing changed; confirm the row exists.
		if _, gerr := r.GetByID(ctx, u.ID); gerr != nil {
			return gerr
		}
	}
	fresh, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *fresh
	return nil
}

func (r *mysqlUsers) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return sqlErr("delete user", err)
	}
	return affected(res)
}

func (r *mysqlUsers) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, sqlErr("count users", err)
}
