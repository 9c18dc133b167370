// internal/app/store/classes/classstore.go

package classstore

import (
	"context"
	"errors"
	"time"

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
	return &Store{c: db.Collection("classes"), counters: counters}
}

func (s *Store) GetByID(ctx context.Context, id int64) (models.Class, error) {
	var c models.Class
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Class{}, apperr.NotFound("class", id)
		}
		return models.Class{}, err
	}
	return c, nil
}

func (s *Store) List(ctx context.Context) ([]models.Class, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Class
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Class, error) {
	cur, err := s.c.Find(ctx, bson.M{"teacher_id": teacherID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Class
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, c *models.Class) error {
	id, err := s.counters.Next(ctx, "classes")
	if err != nil {
		return err
	}
	c.ID = id
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err = s.c.InsertOne(ctx, c)
	return err
}

func (s *Store) Update(ctx context.Context, c models.Class) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("class", c.ID)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("class", id)
	}
	return nil
}
