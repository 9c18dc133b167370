// internal/app/submissions/service.go

// Package submissions handles the assignment submission lifecycle: a
// student uploads one file per assignment, resubmitting replaces the
// previous file, and deleting an assignment purges every stored file.
package submissions

import (
	"context"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/store"
	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/app/system/locks"
	"github.com/schoolhub/schoolhub/internal/app/system/timeouts"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// BlobStore persists submission file contents. Delete is idempotent:
// removing a path that is already gone is not an error.
type BlobStore interface {
	Store(ctx context.Context, filename, contentType string, size int64, r io.Reader) (models.FileRef, error)
	Delete(ctx context.Context, path string) error
	Resolve(ctx context.Context, ref models.FileRef) (string, error)
}

// Upload is an incoming submission file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type Service struct {
	assignments store.Assignments
	blobs       BlobStore
	locks       *locks.Keyed
	log         *zap.Logger
	now         func() time.Time
}

func NewService(assignments store.Assignments, blobs BlobStore, logger *zap.Logger) *Service {
	return &Service{
		assignments: assignments,
		blobs:       blobs,
		locks:       locks.NewKeyed(),
		log:         logger,
		now:         time.Now,
	}
}

// Submit records the student's submission for the assignment. The new
// file is stored before the record changes, so a storage failure leaves
// the previous submission intact. The replaced file, if any, is deleted
// on a best-effort basis after the record points at the new one.
func (s *Service) Submit(ctx context.Context, assignmentID int64, up Upload, p *authz.Principal) (models.Submission, error) {
	if err := authz.HasRole(p, models.RoleStudent); err != nil {
		return models.Submission{}, err
	}
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return models.Submission{}, err
	}
	if !p.InClass(a.ClassID) {
		return models.Submission{}, apperr.Forbidden("you are not enrolled in this assignment's class")
	}
	if up.Filename == "" || up.Content == nil {
		return models.Submission{}, apperr.Validation("a submission file is required")
	}

	// One resubmission at a time per (assignment, student): without this
	// two racing uploads could both record themselves current and orphan
	// a stored file.
	unlock := s.locks.Lock(locks.SubmissionKey(assignmentID, p.ID))
	defer unlock()

	ref, err := s.blobs.Store(ctx, up.Filename, up.ContentType, up.Size, up.Content)
	if err != nil {
		return models.Submission{}, apperr.Storage("store submission file", err)
	}

	sub := models.Submission{
		StudentID:   p.ID,
		StudentName: p.Name,
		File:        ref,
		SubmittedAt: s.now().UTC(),
	}
	prev, replaced, err := s.assignments.PutSubmission(ctx, assignmentID, sub)
	if err != nil {
		// The record never changed; remove the file we just stored.
		s.bestEffortDelete(ref.Path, "rollback stored submission file")
		return models.Submission{}, err
	}

	if replaced && !prev.File.IsZero() && prev.File.Path != ref.Path {
		s.bestEffortDelete(prev.File.Path, "delete replaced submission file")
	}
	return sub, nil
}

// List returns the assignment's submissions, visible to admins and the
// assignment's teacher, ordered by student id.
func (s *Service) List(ctx context.Context, assignmentID int64, p *authz.Principal) ([]models.Submission, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.canReview(p, a); err != nil {
		return nil, err
	}
	out := make([]models.Submission, 0, len(a.Submissions))
	for _, sub := range a.Submissions {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

// FileURL resolves a download location for one student's submission file.
// Admins and the assignment's teacher may fetch any submission; a student
// may fetch only their own.
func (s *Service) FileURL(ctx context.Context, assignmentID, studentID int64, p *authz.Principal) (string, models.FileRef, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return "", models.FileRef{}, err
	}
	if err := s.canReview(p, a); err != nil {
		// A student may still fetch their own submission.
		if p == nil || p.Role != models.RoleStudent || p.ID != studentID {
			return "", models.FileRef{}, err
		}
	}
	sub, ok := a.Submissions[studentID]
	if !ok {
		return "", models.FileRef{}, apperr.NotFound("submission", studentID)
	}
	loc, err := s.blobs.Resolve(ctx, sub.File)
	if err != nil {
		return "", models.FileRef{}, apperr.Storage("resolve submission file", err)
	}
	return loc, sub.File, nil
}

// Delete removes an assignment after an authorization check. Admins may
// delete any assignment, teachers only their own.
func (s *Service) Delete(ctx context.Context, assignmentID int64, p *authz.Principal) error {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if err := s.canReview(p, a); err != nil {
		return err
	}
	return s.PurgeOnAssignmentDelete(ctx, assignmentID)
}

// PurgeOnAssignmentDelete deletes the assignment record along with every
// submission file. File deletion is best effort: an unreachable blob is
// logged and skipped, and the record is removed regardless.
func (s *Service) PurgeOnAssignmentDelete(ctx context.Context, assignmentID int64) error {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}
	for _, sub := range a.Submissions {
		if sub.File.IsZero() {
			continue
		}
		s.bestEffortDelete(sub.File.Path, "delete submission file on assignment purge")
	}
	return s.assignments.Delete(ctx, assignmentID)
}

func (s *Service) canReview(p *authz.Principal, a models.Assignment) error {
	if err := authz.Authenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() || (p.Role == models.RoleTeacher && a.TeacherID == p.ID) {
		return nil
	}
	return apperr.Forbidden("only the assignment's teacher or an admin may do that")
}

// bestEffortDelete removes a blob on its own short deadline. The caller's
// operation already succeeded; a failed cleanup only leaves an orphaned
// file, so it is logged rather than returned.
func (s *Service) bestEffortDelete(path, op string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()
	if err := s.blobs.Delete(ctx, path); err != nil {
		s.log.Warn(op,
			zap.String("path", path),
			zap.Error(err))
	}
}
