// internal/app/enrollment/service.go

// Package enrollment maintains the bidirectional Class/Student membership
// relation. Every membership change writes both sides as one logical unit;
// handlers never assign User.ClassIDs or Class.StudentIDs directly.
package enrollment

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/store"
	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/app/system/locks"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// AssignmentPurger deletes an assignment together with its submission
// files. Implemented by the submissions service; injected here so class
// deletion can cascade without a package cycle.
type AssignmentPurger interface {
	PurgeOnAssignmentDelete(ctx context.Context, assignmentID int64) error
}

type Service struct {
	users       store.Users
	classes     store.Classes
	posts       store.Posts
	assignments store.Assignments
	tx          store.Tx
	purger      AssignmentPurger
	locks       *locks.Keyed
	log         *zap.Logger

	// protectedEmail identifies the seed admin, which can never be
	// deleted or stripped of its role.
	protectedEmail string
}

func NewService(
	users store.Users,
	classes store.Classes,
	posts store.Posts,
	assignments store.Assignments,
	tx store.Tx,
	purger AssignmentPurger,
	protectedEmail string,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:          users,
		classes:        classes,
		posts:          posts,
		assignments:    assignments,
		tx:             tx,
		purger:         purger,
		locks:          locks.NewKeyed(),
		log:            logger,
		protectedEmail: protectedEmail,
	}
}

// ProtectedEmail returns the seed admin's email.
func (s *Service) ProtectedEmail() string { return s.protectedEmail }

// Principal resolves a fresh Principal for userID. Students carry their
// enrollment set; teachers carry the ids of the classes they teach.
func (s *Service) Principal(ctx context.Context, userID int64) (*authz.Principal, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &authz.Principal{ID: u.ID, Name: u.FullName, Role: u.Role}
	switch u.Role {
	case models.RoleStudent:
		p.ClassIDs = append([]int64(nil), u.ClassIDs...)
	case models.RoleTeacher:
		taught, err := s.classes.ListByTeacher(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range taught {
			p.ClassIDs = append(p.ClassIDs, c.ID)
		}
	}
	return p, nil
}

// Enroll adds the student to the class, updating both sides together.
// Requires the requester to be an admin or the class's teacher. Already
// enrolled is a no-op.
func (s *Service) Enroll(ctx context.Context, classID, studentID int64, requester *authz.Principal) error {
	unlock := s.locks.LockAll([]string{locks.ClassKey(classID), locks.StudentKey(studentID)})
	defer unlock()

	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return err
	}
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if err := authz.TeacherOwnsClass(requester, class); err != nil {
		return err
	}

	if class.HasStudent(studentID) && student.InClass(classID) {
		return nil
	}
	if !student.InClass(classID) && len(student.ClassIDs) >= models.MaxClassesPerStudent {
		return apperr.Validation("student %d is already enrolled in %d classes", studentID, models.MaxClassesPerStudent)
	}

	return s.tx.RunTx(ctx, func(ctx context.Context) error {
		student.ClassIDs = addID(student.ClassIDs, classID)
		if err := s.users.Update(ctx, student); err != nil {
			return err
		}
		class.StudentIDs = addID(class.StudentIDs, studentID)
		return s.classes.Update(ctx, class)
	})
}

// Unenroll removes the student from the class, updating both sides
// together. Not enrolled is a no-op.
func (s *Service) Unenroll(ctx context.Context, classID, studentID int64, requester *authz.Principal) error {
	unlock := s.locks.LockAll([]string{locks.ClassKey(classID), locks.StudentKey(studentID)})
	defer unlock()

	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return err
	}
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if err := authz.TeacherOwnsClass(requester, class); err != nil {
		return err
	}

	if !class.HasStudent(studentID) && !student.InClass(classID) {
		return nil
	}

	return s.tx.RunTx(ctx, func(ctx context.Context) error {
		student.ClassIDs = removeID(student.ClassIDs, classID)
		if err := s.users.Update(ctx, student); err != nil {
			return err
		}
		class.StudentIDs = removeID(class.StudentIDs, studentID)
		return s.classes.Update(ctx, class)
	})
}

// SetStudentClasses replaces a student's entire enrollment set (bulk edit).
// Admin only. The delta against the current set is applied all-or-nothing:
// any missing class aborts the whole operation before anything is written.
func (s *Service) SetStudentClasses(ctx context.Context, studentID int64, newClassIDs []int64, requester *authz.Principal) error {
	if err := authz.HasRole(requester, models.RoleAdmin); err != nil {
		return err
	}

	next := dedupe(newClassIDs)
	if len(next) > models.MaxClassesPerStudent {
		return apperr.Validation("a student may belong to at most %d classes", models.MaxClassesPerStudent)
	}

	// Lock the student and every class on either side of the delta, in
	// sorted key order, so concurrent edits touching the same classes
	// serialize instead of losing updates.
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return err
	}
	keys := []string{locks.StudentKey(studentID)}
	for _, id := range next {
		keys = append(keys, locks.ClassKey(id))
	}
	for _, id := range student.ClassIDs {
		keys = append(keys, locks.ClassKey(id))
	}
	unlock := s.locks.LockAll(keys)
	defer unlock()

	// Re-read under the lock; the set may have moved.
	student, err = s.getStudent(ctx, studentID)
	if err != nil {
		return err
	}
	added, removed := diffIDs(student.ClassIDs, next)

	// Stage every class mutation before writing anything, so an absent
	// class surfaces as a single failure with no partial enrollment.
	staged := make([]models.Class, 0, len(added)+len(removed))
	for _, id := range added {
		class, err := s.classes.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("enrolling student %d in class %d: %w", studentID, id, err)
		}
		class.StudentIDs = addID(class.StudentIDs, studentID)
		staged = append(staged, class)
	}
	for _, id := range removed {
		class, err := s.classes.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("unenrolling student %d from class %d: %w", studentID, id, err)
		}
		class.StudentIDs = removeID(class.StudentIDs, studentID)
		staged = append(staged, class)
	}

	return s.tx.RunTx(ctx, func(ctx context.Context) error {
		student.ClassIDs = next
		if err := s.users.Update(ctx, student); err != nil {
			return err
		}
		for _, class := range staged {
			if err := s.classes.Update(ctx, class); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteClass removes the class and everything scoped to it: every
// enrolled student's membership, posts scoped to the class (narrowed, or
// deleted when the class was their only scope), and assignments with their
// submission files.
func (s *Service) DeleteClass(ctx context.Context, classID int64, requester *authz.Principal) error {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		return err
	}
	if err := authz.TeacherOwnsClass(requester, class); err != nil {
		return err
	}

	keys := []string{locks.ClassKey(classID)}
	for _, sid := range class.StudentIDs {
		keys = append(keys, locks.StudentKey(sid))
	}
	unlock := s.locks.LockAll(keys)
	defer unlock()

	// Re-read the roster under the lock.
	class, err = s.classes.GetByID(ctx, classID)
	if err != nil {
		return err
	}

	if err := s.tx.RunTx(ctx, func(ctx context.Context) error {
		for _, sid := range class.StudentIDs {
			student, err := s.users.GetByID(ctx, sid)
			if err != nil {
				if apperr.IsNotFound(err) {
					continue
				}
				return err
			}
			student.ClassIDs = removeID(student.ClassIDs, classID)
			if err := s.users.Update(ctx, student); err != nil {
				return err
			}
		}
		return s.classes.Delete(ctx, classID)
	}); err != nil {
		return err
	}

	if err := s.dropClassFromPosts(ctx, classID); err != nil {
		return err
	}

	assignments, err := s.assignments.ListByClass(ctx, classID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if err := s.purger.PurgeOnAssignmentDelete(ctx, a.ID); err != nil {
			return fmt.Errorf("purging assignment %d of class %d: %w", a.ID, classID, err)
		}
	}
	return nil
}

// DeleteUser removes a user. Admin only; the seed admin is protected.
// Students are unenrolled from every class first; a deleted teacher's
// classes become unassigned.
func (s *Service) DeleteUser(ctx context.Context, userID int64, requester *authz.Principal) error {
	if err := authz.HasRole(requester, models.RoleAdmin); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Email == s.protectedEmail {
		return apperr.Forbidden("the primary admin account cannot be deleted")
	}

	switch user.Role {
	case models.RoleStudent:
		keys := []string{locks.StudentKey(userID)}
		for _, cid := range user.ClassIDs {
			keys = append(keys, locks.ClassKey(cid))
		}
		unlock := s.locks.LockAll(keys)
		defer unlock()

		user, err = s.getStudent(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.tx.RunTx(ctx, func(ctx context.Context) error {
			for _, cid := range user.ClassIDs {
				class, err := s.classes.GetByID(ctx, cid)
				if err != nil {
					if apperr.IsNotFound(err) {
						continue
					}
					return err
				}
				class.StudentIDs = removeID(class.StudentIDs, userID)
				if err := s.classes.Update(ctx, class); err != nil {
					return err
				}
			}
			return s.users.Delete(ctx, userID)
		}); err != nil {
			return err
		}
		return nil

	case models.RoleTeacher:
		taught, err := s.classes.ListByTeacher(ctx, userID)
		if err != nil {
			return err
		}
		return s.tx.RunTx(ctx, func(ctx context.Context) error {
			for _, class := range taught {
				class.TeacherID = 0
				if err := s.classes.Update(ctx, class); err != nil {
					return err
				}
			}
			return s.users.Delete(ctx, userID)
		})

	default:
		return s.users.Delete(ctx, userID)
	}
}

// dropClassFromPosts narrows or deletes posts whose scope referenced the
// class. Public posts are untouched.
func (s *Service) dropClassFromPosts(ctx context.Context, classID int64) error {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if !p.ClassScoped() || !containsID(p.ClassIDs, classID) {
			continue
		}
		remaining := removeID(p.ClassIDs, classID)
		if len(remaining) == 0 {
			if err := s.posts.Delete(ctx, p.ID); err != nil {
				return err
			}
			continue
		}
		p.ClassIDs = remaining
		if err := s.posts.Update(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// getStudent loads userID and verifies the student role; any other role is
// NotFound for enrollment purposes, matching the lookup the original
// membership operations perform.
func (s *Service) getStudent(ctx context.Context, userID int64) (models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if u.Role != models.RoleStudent {
		return models.User{}, apperr.NotFound("student", userID)
	}
	return u, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func addID(ids []int64, id int64) []int64 {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// diffIDs returns next−current (added) and current−next (removed), both in
// deterministic order.
func diffIDs(current, next []int64) (added, removed []int64) {
	for _, id := range next {
		if !containsID(current, id) {
			added = append(added, id)
		}
	}
	for _, id := range current {
		if !containsID(next, id) {
			removed = append(removed, id)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return added, removed
}
