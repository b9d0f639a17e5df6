package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/special-academy-api/internal/model"
)

// NewMemoryStore returns a process-local Store. It backs STORE_DRIVER=memory
// and the package tests; data is lost on restart.
func NewMemoryStore() *Store {
	return &Store{
		Users:         &memUsers{t: newTable[model.User]()},
		Categories:    &memCategories{t: newTable[model.Category]()},
		Subcategories: &memSubcategories{t: newTable[model.Subcategory]()},
		Items:         &memItems{t: newTable[model.Item]()},
		ActivityLogs:  &memActivityLogs{t: newTable[model.ActivityLog]()},
	}
}

// table is an insertion-ordered map guarded by one RWMutex. Values are
// copied on the way in and out so callers never share memory with it.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[string]*T
	order []string
}

func newTable[T any]() *table[T] { return &table[T]{rows: map[string]*T{}} }

func (t *table[T]) insert(id string, v T, clash func(*T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return ErrDuplicate
	}
	if clash != nil {
		for _, row := range t.rows {
			if clash(row) {
				return ErrDuplicate
			}
		}
	}
	t.rows[id] = &v
	t.order = append(t.order, id)
	return nil
}

func (t *table[T]) get(id string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *row
	return &c, nil
}

func (t *table[T]) find(match func(*T) bool) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, id := range t.order {
		if row := t.rows[id]; match(row) {
			c := *row
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// mutate runs fn on the stored row under the write lock. clash is checked
// against every other row after fn ran; a clash rolls the change back.
func (t *table[T]) mutate(id string, fn func(*T) error, clash func(other *T, updated *T) bool) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := *row
	if err := fn(&next); err != nil {
		return nil, err
	}
	if clash != nil {
		for oid, other := range t.rows {
			if oid != id && clash(other, &next) {
				return nil, ErrDuplicate
			}
		}
	}
	*row = next
	c := next
	return &c, nil
}

func (t *table[T]) remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *table[T]) list(p Page, newestFirst bool, keep func(*T) bool) []*T {
	p = p.Normalize()
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*T, 0)
	var skipped int64
	n := len(t.order)
	for i := 0; i < n; i++ {
		idx := i
		if newestFirst {
			idx = n - 1 - i
		}
		row := t.rows[t.order[idx]]
		if keep != nil && !keep(row) {
			continue
		}
		if skipped < p.Offset {
			skipped++
			continue
		}
		c := *row
		out = append(out, &c)
		if int64(len(out)) >= p.Limit {
			break
		}
	}
	return out
}

func (t *table[T]) count(keep func(*T) bool) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if keep == nil {
		return int64(len(t.rows))
	}
	var n int64
	for _, row := range t.rows {
		if keep(row) {
			n++
		}
	}
	return n
}

type memUsers struct{ t *table[model.User] }

func (r *memUsers) Create(_ context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return r.t.insert(u.ID, *u, func(o *model.User) bool { return o.Email == u.Email })
}

func (r *memUsers) GetByID(_ context.Context, id string) (*model.User, error) { return r.t.get(id) }

func (r *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.t.find(func(u *model.User) bool { return u.Email == email })
}

func (r *memUsers) List(_ context.Context, p Page) ([]*model.User, error) {
	return r.t.list(p, false, nil), nil
}

func (r *memUsers) Update(_ context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	updated, err := r.t.mutate(u.ID, func(row *model.User) error {
		row.FullName = u.FullName
		row.Email = u.Email
		row.PasswordHash = u.PasswordHash
		row.Role = u.Role
		row.UpdatedAt = time.Now().UTC()
		return nil
	}, func(o, n *model.User) bool { return o.Email == n.Email })
	if err != nil {
		return err
	}
	*u = *updated
	return nil
}

func (r *memUsers) Delete(_ context.Context, id string) error { return r.t.remove(id) }

func (r *memUsers) Count(_ context.Context) (int64, error) { return r.t.count(nil), nil }

func (r *memUsers) SetRefreshToken(_ context.Context, id, hash string) error {
	_, err := r.t.mutate(id, func(row *model.User) error {
		row.RefreshTokenHash = hash
		return nil
	}, nil)
	return err
}

func (r *memUsers) SwapRefreshToken(_ context.Context, id, oldHash, newHash string) error {
	_, err := r.t.mutate(id, func(row *model.User) error {
		if oldHash == "" || row.RefreshTokenHash != oldHash {
			return ErrConflict
		}
		row.RefreshTokenHash = newHash
		return nil
	}, nil)
	return err
}

type memCategories struct{ t *table[model.Category] }

func (r *memCategories) Create(_ context.Context, c *model.Category) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return r.t.insert(c.ID, *c, nil)
}

func (r *memCategories) GetByID(_ context.Context, id string) (*model.Category, error) {
	return r.t.get(id)
}

func (r *memCategories) List(_ context.Context, p Page) ([]*model.Category, error) {
	return r.t.list(p, false, nil), nil
}

func (r *memCategories) Update(_ context.Context, c *model.Category) error {
	updated, err := r.t.mutate(c.ID, func(row *model.Category) error {
		row.Name = c.Name
		row.Description = c.Description
		row.UpdatedAt = time.Now().UTC()
		return nil
	}, nil)
	if err != nil {
		return err
	}
	*c = *updated
	return nil
}

func (r *memCategories) Delete(_ context.Context, id string) error { return r.t.remove(id) }

func (r *memCategories) Count(_ context.Context) (int64, error) { return r.t.count(nil), nil }

type memSubcategories struct{ t *table[model.Subcategory] }

func (r *memSubcategories) Create(_ context.Context, s *model.Subcategory) error {
	stamp(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	s.Category = nil
	return r.t.insert(s.ID, *s, nil)
}

func (r *memSubcategories) GetByID(_ context.Context, id string) (*model.Subcategory, error) {
	return r.t.get(id)
}

func (r *memSubcategories) List(_ context.Context, p Page) ([]*model.Subcategory, error) {
	return r.t.list(p, false, nil), nil
}

func (r *memSubcategories) Update(_ context.Context, s *model.Subcategory) error {
	updated, err := r.t.mutate(s.ID, func(row *model.Subcategory) error {
		row.CategoryID = s.CategoryID
		row.Name = s.Name
		row.Description = s.Description
		row.UpdatedAt = time.Now().UTC()
		return nil
	}, nil)
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

func (r *memSubcategories) Delete(_ context.Context, id string) error { return r.t.remove(id) }

func (r *memSubcategories) Count(_ context.Context) (int64, error) { return r.t.count(nil), nil }

func (r *memSubcategories) CountByCategory(_ context.Context, categoryID string) (int64, error) {
	return r.t.count(func(s *model.Subcategory) bool { return s.CategoryID == categoryID }), nil
}

type memItems struct{ t *table[model.Item] }

func (r *memItems) Create(_ context.Context, it *model.Item) error {
	stamp(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	it.Subcategory = nil
	return r.t.insert(it.ID, *it, nil)
}

func (r *memItems) GetByID(_ context.Context, id string) (*model.Item, error) { return r.t.get(id) }

func (r *memItems) List(_ context.Context, p Page) ([]*model.Item, error) {
	return r.t.list(p, false, nil), nil
}

func (r *memItems) Update(_ context.Context, it *model.Item) error {
	updated, err := r.t.mutate(it.ID, func(row *model.Item) error {
		row.SubcategoryID = it.SubcategoryID
		row.Title = it.Title
		row.Description = it.Description
		row.Type = it.Type
		row.FilePath = it.FilePath
		row.YoutubeURL = it.YoutubeURL
		row.UpdatedAt = time.Now().UTC()
		return nil
	}, nil)
	if err != nil {
		return err
	}
	*it = *updated
	return nil
}

func (r *memItems) Delete(_ context.Context, id string) error { return r.t.remove(id) }

func (r *memItems) Count(_ context.Context) (int64, error) { return r.t.count(nil), nil }

func (r *memItems) CountBySubcategory(_ context.Context, subcategoryID string) (int64, error) {
	return r.t.count(func(it *model.Item) bool { return it.SubcategoryID == subcategoryID }), nil
}

type memActivityLogs struct{ t *table[model.ActivityLog] }

func (r *memActivityLogs) Create(_ context.Context, l *model.ActivityLog) error {
	var created time.Time
	stamp(&l.ID, &created, &created)
	if l.Timestamp.IsZero() {
		l.Timestamp = created
	}
	return r.t.insert(l.ID, *l, nil)
}

func (r *memActivityLogs) List(_ context.Context, f ActivityFilter) ([]*model.ActivityLog, error) {
	return r.t.list(f.Page, true, f.match), nil
}

func (r *memActivityLogs) Count(_ context.Context, f ActivityFilter) (int64, error) {
	return r.t.count(f.match), nil
}

func (f ActivityFilter) match(l *model.ActivityLog) bool {
	if f.AdminID != "" && l.AdminID != f.AdminID {
		return false
	}
	if f.Action != "" && l.Action != f.Action {
		return false
	}
	if f.Entity != "" && l.Entity != f.Entity {
		return false
	}
	return true
}
