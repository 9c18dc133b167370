// internal/app/store/posts/poststore.go

package poststore

import (
	"context"
	"errors"

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
	return &Store{c: db.Collection("posts"), counters: counters}
}

func (s *Store) GetByID(ctx context.Context, id int64) (models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, apperr.NotFound("post", id)
		}
		return models.Post{}, err
	}
	return p, nil
}

// List returns every post newest first; per-viewer filtering happens in
// the visibility layer, which preserves this order.
func (s *Store) List(ctx context.Context) ([]models.Post, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "_id", Value: -1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Post
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, p *models.Post) error {
	id, err := s.counters.Next(ctx, "posts")
	if err != nil {
		return err
	}
	p.ID = id
	_, err = s.c.InsertOne(ctx, p)
	return err
}

func (s *Store) Update(ctx context.Context, p models.Post) error {
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post", p.ID)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("post", id)
	}
	return nil
}
