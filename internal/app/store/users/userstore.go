// internal/app/store/users/userstore.go

package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	counterstore "github.com/schoolhub/schoolhub/internal/app/store/counters"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

type Store struct {
	c        *mongo.Collection
	counters *counterstore.Store
}

func New(db *mongo.Database, counters *counterstore.Store) *Store {
	return &Store{c: db.Collection("users"), counters: counters}
}

func (s *Store) GetByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apperr.NotFound("user", id)
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail looks up a user by the case-folded email key.
func (s *Store) GetByEmail(ctx context.Context, emailCI string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": emailCI}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apperr.NotFound("user", 0)
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new user, issuing its id and deriving the folded email
// key. The unique index on email_ci maps duplicates to a conflict.
func (s *Store) Create(ctx context.Context, u *models.User) error {
	id, err := s.counters.Next(ctx, "users")
	if err != nil {
		return err
	}
	u.ID = id
	u.EmailCI = text.Fold(u.Email)
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict("a user with email %q already exists", u.Email)
		}
		return err
	}
	return nil
}

func (s *Store) Update(ctx context.Context, u models.User) error {
	u.EmailCI = text.Fold(u.Email)
	u.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.Conflict("a user with email %q already exists", u.Email)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user", u.ID)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}
