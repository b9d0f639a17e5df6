package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/model"
)

type mongoUsers struct {
	coll *mongo.Collection
	log  *zap.Logger
}

// Create inserts the user; a taken email yields ErrDuplicate.
func (r *mongoUsers) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		err = mongoErr("insert user", err)
		if !errors.Is(err, ErrDuplicate) {
			r.log.Error("failed to create user", zap.Error(err))
		}
		return err
	}
	return nil
}

func (r *mongoUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	return findByID[model.User](ctx, r.coll, id)
}

// GetByEmail looks the user up by normalized email.
func (r *mongoUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mongoErr("find user by email", err)
	}
	return &u, nil
}

func (r *mongoUsers) List(ctx context.Context, p Page) ([]*model.User, error) {
	users, err := findAll[model.User](ctx, r.coll, bson.M{}, findOptions(p, "createdAt", 1))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update rewrites the mutable profile fields.
func (r *mongoUsers) Update(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	set := bson.M{
		"fullName":  u.FullName,
		"email":     u.Email,
		"password":  u.PasswordHash,
		"role":      u.Role,
		"updatedAt": time.Now().UTC(),
	}
	return updateByID(ctx, r.coll, u.ID, set, u)
}

func (r *mongoUsers) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

func (r *mongoUsers) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *mongoUsers) SetRefreshToken(ctx context.Context, id, hash string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"refreshToken": hash}},
	)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapRefreshToken is a single conditional update, so two concurrent
// refreshes with the same token cannot both win.
func (r *mongoUsers) SwapRefreshToken(ctx context.Context, id, oldHash, newHash string) error {
	if oldHash == "" {
		return ErrConflict
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "refreshToken": oldHash},
		bson.M{"$set": bson.M{"refreshToken": newHash}},
	)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}
