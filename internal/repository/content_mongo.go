package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/model"
)

type mongoCategories struct {
	coll *mongo.Collection
	log  *zap.Logger
}

func (r *mongoCategories) Create(ctx context.Context, c *model.Category) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, c)
	return mongoErr("insert category", err)
}

func (r *mongoCategories) GetByID(ctx context.Context, id string) (*model.Category, error) {
	return findByID[model.Category](ctx, r.coll, id)
}

func (r *mongoCategories) List(ctx context.Context, p Page) ([]*model.Category, error) {
	out, err := findAll[model.Category](ctx, r.coll, bson.M{}, findOptions(p, "createdAt", 1))
	if err != nil {
		r.log.Error("failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (r *mongoCategories) Update(ctx context.Context, c *model.Category) error {
	return updateByID(ctx, r.coll, c.ID, bson.M{
		"name":        c.Name,
		"description": c.Description,
		"updatedAt":   time.Now().UTC(),
	}, c)
}

func (r *mongoCategories) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

func (r *mongoCategories) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

type mongoSubcategories struct {
	coll *mongo.Collection
	log  *zap.Logger
}

func (r *mongoSubcategories) Create(ctx context.Context, s *model.Subcategory) error {
	stamp(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, s)
	return mongoErr("insert subcategory", err)
}

func (r *mongoSubcategories) GetByID(ctx context.Context, id string) (*model.Subcategory, error) {
	return findByID[model.Subcategory](ctx, r.coll, id)
}

func (r *mongoSubcategories) List(ctx context.Context, p Page) ([]*model.Subcategory, error) {
	out, err := findAll[model.Subcategory](ctx, r.coll, bson.M{}, findOptions(p, "createdAt", 1))
	if err != nil {
		r.log.Error("failed to list subcategories", zap.Error(err))
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	return out, nil
}

func (r *mongoSubcategories) Update(ctx context.Context, s *model.Subcategory) error {
	return updateByID(ctx, r.coll, s.ID, bson.M{
		"category_id": s.CategoryID,
		"name":        s.Name,
		"description": s.Description,
		"updatedAt":   time.Now().UTC(),
	}, s)
}

func (r *mongoSubcategories) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

func (r *mongoSubcategories) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *mongoSubcategories) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"category_id": categoryID})
}

type mongoItems struct {
	coll *mongo.Collection
	log  *zap.Logger
}

func (r *mongoItems) Create(ctx context.Context, it *model.Item) error {
	stamp(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, it)
	return mongoErr("insert item", err)
}

func (r *mongoItems) GetByID(ctx context.Context, id string) (*model.Item, error) {
	return findByID[model.Item](ctx, r.coll, id)
}

func (r *mongoItems) List(ctx context.Context, p Page) ([]*model.Item, error) {
	out, err := findAll[model.Item](ctx, r.coll, bson.M{}, findOptions(p, "createdAt", 1))
	if err != nil {
		r.log.Error("failed to list items", zap.Error(err))
		return nil, fmt.Errorf("list items: %w", err)
	}
	return out, nil
}

func (r *mongoItems) Update(ctx context.Context, it *model.Item) error {
	return updateByID(ctx, r.coll, it.ID, bson.M{
		"subcategory_id": it.SubcategoryID,
		"title":          it.Title,
		"description":    it.Description,
		"type":           it.Type,
		"file_path":      it.FilePath,
		"youtube_url":    it.YoutubeURL,
		"updatedAt":      time.Now().UTC(),
	}, it)
}

func (r *mongoItems) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

func (r *mongoItems) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *mongoItems) CountBySubcategory(ctx context.Context, subcategoryID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"subcategory_id": subcategoryID})
}

type mongoActivityLogs struct {
	coll *mongo.Collection
	log  *zap.Logger
}

func (r *mongoActivityLogs) Create(ctx context.Context, l *model.ActivityLog) error {
	var created time.Time
	stamp(&l.ID, &created, &created)
	if l.Timestamp.IsZero() {
		l.Timestamp = created
	}
	_, err := r.coll.InsertOne(ctx, l)
	return mongoErr("insert activity log", err)
}

func (r *mongoActivityLogs) List(ctx context.Context, f ActivityFilter) ([]*model.ActivityLog, error) {
	out, err := findAll[model.ActivityLog](ctx, r.coll, f.bson(), findOptions(f.Page, "timestamp", -1))
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return out, nil
}

func (r *mongoActivityLogs) Count(ctx context.Context, f ActivityFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, f.bson())
}

func (f ActivityFilter) bson() bson.M {
	q := bson.M{}
	if f.AdminID != "" {
		q["adminId"] = f.AdminID
	}
	if f.Action != "" {
		q["action"] = f.Action
	}
	if f.Entity != "" {
		q["entity"] = f.Entity
	}
	return q
}
