// internal/app/store/assignments/assignmentstore.go

package assignmentstore

import (
	"context"
	"errors"
	"strconv"
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
	return &Store{c: db.Collection("assignments"), counters: counters}
}

func (s *Store) GetByID(ctx context.Context, id int64) (models.Assignment, error) {
	var a models.Assignment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Assignment{}, apperr.NotFound("assignment", id)
		}
		return models.Assignment{}, err
	}
	return a, nil
}

func (s *Store) List(ctx context.Context) ([]models.Assignment, error) {
	return s.find(ctx, bson.M{})
}

func (s *Store) ListByClass(ctx context.Context, classID int64) ([]models.Assignment, error) {
	return s.find(ctx, bson.M{"class_id": classID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Assignment, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{
		{Key: "due_date", Value: 1},
		{Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, a *models.Assignment) error {
	id, err := s.counters.Next(ctx, "assignments")
	if err != nil {
		return err
	}
	a.ID = id
	a.CreatedAt = time.Now().UTC()
	if a.Submissions == nil {
		a.Submissions = make(map[int64]models.Submission)
	}
	_, err = s.c.InsertOne(ctx, a)
	return err
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("assignment", id)
	}
	return nil
}

// PutSubmission sets the student's entry in the submissions map with a
// single findAndModify, returning whatever it replaced. The server-side
// update is what makes racing resubmissions safe without read-modify-write.
func (s *Store) PutSubmission(ctx context.Context, assignmentID int64, sub models.Submission) (models.Submission, bool, error) {
	field := "submissions." + strconv.FormatInt(sub.StudentID, 10)

	var before models.Assignment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": assignmentID},
		bson.M{"$set": bson.M{field: sub}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Submission{}, false, apperr.NotFound("assignment", assignmentID)
		}
		return models.Submission{}, false, err
	}
	prev, replaced := before.Submissions[sub.StudentID]
	return prev, replaced, nil
}
