package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection names.
const (
	collUsers         = "users"
	collCategories    = "categories"
	collSubcategories = "subcategories"
	collItems         = "items"
	collActivityLogs  = "activitylogs"
)

// NewMongoStore builds a Store over db and ensures the indexes the
// repositories rely on. Index failures are logged, not fatal.
func NewMongoStore(client *mongo.Client, db *mongo.Database, log *zap.Logger) *Store {
	ensureIndexes(db, log)
	return &Store{
		Users:         &mongoUsers{coll: db.Collection(collUsers), log: log},
		Categories:    &mongoCategories{coll: db.Collection(collCategories), log: log},
		Subcategories: &mongoSubcategories{coll: db.Collection(collSubcategories), log: log},
		Items:         &mongoItems{coll: db.Collection(collItems), log: log},
		ActivityLogs:  &mongoActivityLogs{coll: db.Collection(collActivityLogs), log: log},
		closer: func(ctx context.Context) error {
			if client == nil {
				return nil
			}
			return client.Disconnect(ctx)
		},
	}
}

func ensureIndexes(db *mongo.Database, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collSubcategories: {
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
		},
		collItems: {
			{Keys: bson.D{{Key: "subcategory_id", Value: 1}}},
		},
		collActivityLogs: {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "adminId", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			log.Warn("failed to create indexes", zap.String("collection", coll), zap.Error(err))
		}
	}
}

func findOptions(p Page, sortField string, dir int) *options.FindOptions {
	p = p.Normalize()
	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: dir}}).
		SetSkip(p.Offset).
		SetLimit(p.Limit)
}

// mongoErr maps driver errors onto the package sentinels.
func mongoErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return fmt.Errorf("%s: %w", op, err)
}

// findAll decodes every document a cursor yields into a slice of T.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts *options.FindOptions) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// deleteByID removes one document and reports ErrNotFound when nothing matched.
func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// findByID decodes the document with the given id into T.
func findByID[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	var v T
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, mongoErr("find "+coll.Name(), err)
	}
	return &v, nil
}

// updateByID applies set to one document and decodes the result into out.
func updateByID(ctx context.Context, coll *mongo.Collection, id string, set bson.M, out any) error {
	res := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err := res.Err(); err != nil {
		return mongoErr("update "+coll.Name(), err)
	}
	return res.Decode(out)
}
