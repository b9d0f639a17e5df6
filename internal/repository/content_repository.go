// This file holds the MySQL repositories for the content hierarchy:
// categories, subcategories and items. Each mirrors its table one to one.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/special-academy-api/internal/model"
)

type mysqlCategories struct{ db *sql.DB }

// Create inserts a category. The id is generated when the caller left it blank.
func (r *mysqlCategories) Create(ctx context.Context, c *model.Category) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (id, name, description, created_at, updated_at) VALUES (?,?,?,?,?)",
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return sqlErr("insert category", err)
}

// GetByID returns ErrNotFound when no row matches.
func (r *mysqlCategories) GetByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at, updated_at FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, sqlErr("get category", err)
	}
	return &c, nil
}

// List returns categories ordered by creation time.
func (r *mysqlCategories) List(ctx context.Context, p Page) ([]*model.Category, error) {
	p = p.Normalize()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM categories ORDER BY created_at, id LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	if err != nil {
		return nil, sqlErr("list categories", err)
	}
	defer rows.Close()

	out := make([]*model.Category, 0)
	for rows.Next() {
		c := new(model.Category)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites name and description, then reloads the row.
func (r *mysqlCategories) Update(ctx context.Context, c *model.Category) error {
	if _, err := r.GetByID(ctx, c.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE id = ?",
		c.Name, c.Description, time.Now().UTC(), c.ID)
	if err != nil {
		return sqlErr("update category", err)
	}
	fresh, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *fresh
	return nil
}

func (r *mysqlCategories) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return sqlErr("delete category", err)
	}
	return affected(res)
}

func (r *mysqlCategories) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM categories")
}

type mysqlSubcategories struct{ db *sql.DB }

const subcategoryColumns = "id, category_id, name, description, created_at, updated_at"

func scanSubcategory(row interface{ Scan(...any) error }) (*model.Subcategory, error) {
	s := new(model.Subcategory)
	if err := row.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *mysqlSubcategories) Create(ctx context.Context, s *model.Subcategory) error {
	stamp(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO subcategories ("+subcategoryColumns+") VALUES (?,?,?,?,?,?)",
		s.ID, s.CategoryID, s.Name, s.Description, s.CreatedAt, s.UpdatedAt)
	return sqlErr("insert subcategory", err)
}

func (r *mysqlSubcategories) GetByID(ctx context.Context, id string) (*model.Subcategory, error) {
	s, err := scanSubcategory(r.db.QueryRowContext(ctx,
		"SELECT "+subcategoryColumns+" FROM subcategories WHERE id = ?", id))
	return s, sqlErr("get subcategory", err)
}

func (r *mysqlSubcategories) List(ctx context.Context, p Page) ([]*model.Subcategory, error) {
	p = p.Normalize()
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+subcategoryColumns+" FROM subcategories ORDER BY created_at, id LIMIT ? OFFSET ?",
		p.Limit, p.Offset)
	if err != nil {
		return nil, sqlErr("list subcategories", err)
	}
	defer rows.Close()

	out := make([]*model.Subcategory, 0)
	for rows.Next() {
		s, err := scanSubcategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *mysqlSubcategories) Update(ctx context.Context, s *model.Subcategory) error {
	if _, err := r.GetByID(ctx, s.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE subcategories SET category_id = ?, name = ?, description = ?, updated_at = ? WHERE id = ?",
		s.CategoryID, s.Name, s.Description, time.Now().UTC(), s.ID)
	if err != nil {
		return sqlErr("update subcategory", err)
	}
	fresh, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

func (r *mysqlSubcategories) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM subcategories WHERE id = ?", id)
	if err != nil {
		return sqlErr("delete subcategory", err)
	}
	return affected(res)
}

func (r *mysqlSubcategories) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM subcategories")
}

func (r *mysqlSubcategories) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM subcategories WHERE category_id = ?", categoryID)
}

type mysqlItems struct{ db *sql.DB }

const itemColumns = "id, subcategory_id, title, description, type, file_path, youtube_url, created_at, updated_at"

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	it := new(model.Item)
	err := row.Scan(&it.ID, &it.SubcategoryID, &it.Title, &it.Description, &it.Type,
		&it.FilePath, &it.YoutubeURL, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (r *mysqlItems) Create(ctx context.Context, it *model.Item) error {
	stamp(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO items ("+itemColumns+") VALUES (?,?,?,?,?,?,?,?,?)",
		it.ID, it.SubcategoryID, it.Title, it.Description, it.Type,
		it.FilePath, it.YoutubeURL, it.CreatedAt, it.UpdatedAt)
	return sqlErr("insert item", err)
}

func (r *mysqlItems) GetByID(ctx context.Context, id string) (*model.Item, error) {
	it, err := scanItem(r.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id = ?", id))
	return it, sqlErr("get item", err)
}

func (r *mysqlItems) List(ctx context.Context, p Page) ([]*model.Item, error) {
	p = p.Normalize()
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items ORDER BY created_at, id LIMIT ? OFFSET ?",
		p.Limit, p.Offset)
	if err != nil {
		return nil, sqlErr("list items", err)
	}
	defer rows.Close()

	out := make([]*model.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *mysqlItems) Update(ctx context.Context, it *model.Item) error {
	if _, err := r.GetByID(ctx, it.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE items SET subcategory_id = ?, title = ?, description = ?, type = ?,
		 file_path = ?, youtube_url = ?, updated_at = ? WHERE id = ?`,
		it.SubcategoryID, it.Title, it.Description, it.Type,
		it.FilePath, it.YoutubeURL, time.Now().UTC(), it.ID)
	if err != nil {
		return sqlErr("update item", err)
	}
	fresh, err := r.GetByID(ctx, it.ID)
	if err != nil {
		return err
	}
	*it = *fresh
	return nil
}

func (r *mysqlItems) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return sqlErr("delete item", err)
	}
	return affected(res)
}

func (r *mysqlItems) Count(ctx context.Context) (int64, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM items")
}

func (r *mysqlItems) CountBySubcategory(ctx context.Context, subcategoryID string) (int64, error) {
	return countRows(ctx, r.db, "SELECT COUNT(*) FROM items WHERE subcategory_id = ?", subcategoryID)
}

func countRows(ctx context.Context, db *sql.DB, q string, args ...any) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, sqlErr("count", err)
	}
	return n, nil
}
