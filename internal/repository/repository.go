package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/special-academy-api/internal/model"
)

// Page bounds a list query.
type Page struct {
	Limit  int64
	Offset int64
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Normalize applies the default and maximum limit and clamps a negative offset.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ActivityFilter narrows an activity log listing. Empty fields match all.
type ActivityFilter struct {
	AdminID string
	Action  string
	Entity  string
	Page
}

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, p Page) ([]*model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	// SetRefreshToken overwrites the refresh-token slot. An empty hash logs the user out.
	SetRefreshToken(ctx context.Context, id, hash string) error
	// SwapRefreshToken replaces the slot only while it still holds oldHash.
	// It returns ErrConflict when the slot holds anything else.
	SwapRefreshToken(ctx context.Context, id, oldHash, newHash string) error
}

type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	GetByID(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context, p Page) ([]*model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type SubcategoryRepository interface {
	Create(ctx context.Context, s *model.Subcategory) error
	GetByID(ctx context.Context, id string) (*model.Subcategory, error)
	List(ctx context.Context, p Page) ([]*model.Subcategory, error)
	Update(ctx context.Context, s *model.Subcategory) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
}

type ItemRepository interface {
	Create(ctx context.Context, it *model.Item) error
	GetByID(ctx context.Context, id string) (*model.Item, error)
	List(ctx context.Context, p Page) ([]*model.Item, error)
	Update(ctx context.Context, it *model.Item) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountBySubcategory(ctx context.Context, subcategoryID string) (int64, error)
}

// ActivityLogRepository is append-only.
type ActivityLogRepository interface {
	Create(ctx context.Context, l *model.ActivityLog) error
	List(ctx context.Context, f ActivityFilter) ([]*model.ActivityLog, error)
	Count(ctx context.Context, f ActivityFilter) (int64, error)
}

// Store bundles the repositories of one storage driver.
type Store struct {
	Users         UserRepository
	Categories    CategoryRepository
	Subcategories SubcategoryRepository
	Items         ItemRepository
	ActivityLogs  ActivityLogRepository

	closer func(ctx context.Context) error
}

// Close releases the underlying connection, if any.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}

// stamp assigns an id when the caller left it blank and sets both timestamps.
func stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now().UTC()
	*created = now
	*updated = now
}
