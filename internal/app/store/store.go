// internal/app/store/store.go

// Package store declares the repository contracts the core services depend
// on. Backends (Mongo, in-memory) implement these; the services never touch
// a driver or a global variable directly.
//
// Id generation contract: Create assigns a monotonically increasing integer
// id unique per entity type and writes it back into the record. Getters
// return apperr.NotFound when the entity is absent.
package store

import (
	"context"

	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// Users is the identity store boundary. Records include the password hash;
// verification itself happens in the auth features, never in core services.
type Users interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
	// GetByEmail looks up by the folded (case-insensitive) email.
	GetByEmail(ctx context.Context, emailCI string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// Create assigns the id and fails with apperr.Conflict on duplicate email.
	Create(ctx context.Context, u *models.User) error
	// Update fails with apperr.Conflict when the email collides with another user.
	Update(ctx context.Context, u models.User) error
	Delete(ctx context.Context, id int64) error
}

type Classes interface {
	GetByID(ctx context.Context, id int64) (models.Class, error)
	List(ctx context.Context) ([]models.Class, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.Class, error)
	Create(ctx context.Context, c *models.Class) error
	Update(ctx context.Context, c models.Class) error
	Delete(ctx context.Context, id int64) error
}

type Posts interface {
	GetByID(ctx context.Context, id int64) (models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	Create(ctx context.Context, p *models.Post) error
	// Update exists only for the class-deletion cascade, which narrows a
	// scoped post's class set; posts are never edited by users.
	Update(ctx context.Context, p models.Post) error
	Delete(ctx context.Context, id int64) error
}

type Assignments interface {
	GetByID(ctx context.Context, id int64) (models.Assignment, error)
	List(ctx context.Context) ([]models.Assignment, error)
	ListByClass(ctx context.Context, classID int64) ([]models.Assignment, error)
	Create(ctx context.Context, a *models.Assignment) error
	Delete(ctx context.Context, id int64) error
	// PutSubmission atomically installs sub as the student's current
	// submission, returning the record it replaced, if any.
	PutSubmission(ctx context.Context, assignmentID int64, sub models.Submission) (prev models.Submission, replaced bool, err error)
}

// Tx runs fn as a single logical unit when the backend supports
// multi-record transactions. Backends without that capability run fn
// directly; callers must then stage changes so a failure surfaces as one
// aggregate error rather than a half-applied mutation.
type Tx interface {
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error
}
