// internal/app/store/memory/memory.go

// Package memory is an in-process implementation of the store interfaces,
// used by tests and by local development without a database. A single
// mutex guards all collections; RunTx snapshots them and restores the
// snapshot when the callback fails, giving the same all-or-nothing
// behavior as the Mongo transaction runner.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	nextUserID       int64
	nextClassID      int64
	nextPostID       int64
	nextAssignmentID int64

	users       map[int64]models.User
	classes     map[int64]models.Class
	posts       map[int64]models.Post
	assignments map[int64]models.Assignment
}

func New() *Store {
	return &Store{
		nextUserID:       1,
		nextClassID:      1,
		nextPostID:       1,
		nextAssignmentID: 1,
		users:            make(map[int64]models.User),
		classes:          make(map[int64]models.Class),
		posts:            make(map[int64]models.Post),
		assignments:      make(map[int64]models.Assignment),
	}
}

// RunTx runs fn with the store state snapshotted; if fn returns an error
// the snapshot is restored, discarding every write fn made. Transactions
// are serialized so a restore cannot discard a concurrent one's writes.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.restoreLocked(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type snapshot struct {
	nextUserID, nextClassID, nextPostID, nextAssignmentID int64

	users       map[int64]models.User
	classes     map[int64]models.Class
	posts       map[int64]models.Post
	assignments map[int64]models.Assignment
}

func (s *Store) snapshotLocked() snapshot {
	snap := snapshot{
		nextUserID:       s.nextUserID,
		nextClassID:      s.nextClassID,
		nextPostID:       s.nextPostID,
		nextAssignmentID: s.nextAssignmentID,
		users:            make(map[int64]models.User, len(s.users)),
		classes:          make(map[int64]models.Class, len(s.classes)),
		posts:            make(map[int64]models.Post, len(s.posts)),
		assignments:      make(map[int64]models.Assignment, len(s.assignments)),
	}
	for id, u := range s.users {
		snap.users[id] = cloneUser(u)
	}
	for id, c := range s.classes {
		snap.classes[id] = cloneClass(c)
	}
	for id, p := range s.posts {
		snap.posts[id] = clonePost(p)
	}
	for id, a := range s.assignments {
		snap.assignments[id] = cloneAssignment(a)
	}
	return snap
}

func (s *Store) restoreLocked(snap snapshot) {
	s.nextUserID = snap.nextUserID
	s.nextClassID = snap.nextClassID
	s.nextPostID = snap.nextPostID
	s.nextAssignmentID = snap.nextAssignmentID
	s.users = snap.users
	s.classes = snap.classes
	s.posts = snap.posts
	s.assignments = snap.assignments
}

// --- users ---

func (s *Store) GetByID(ctx context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, apperr.NotFound("user", id)
	}
	return cloneUser(u), nil
}

func (s *Store) GetByEmail(ctx context.Context, emailCI string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.EmailCI == emailCI {
			return cloneUser(u), nil
		}
	}
	return models.User{}, apperr.NotFound("user", 0)
}

func (s *Store) List(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.EmailCI = FoldEmail(u.Email)
	for _, existing := range s.users {
		if existing.EmailCI == u.EmailCI {
			return apperr.Conflict("a user with email %q already exists", u.Email)
		}
	}
	u.ID = s.nextUserID
	s.nextUserID++
	s.users[u.ID] = cloneUser(*u)
	return nil
}

func (s *Store) Update(ctx context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return apperr.NotFound("user", u.ID)
	}
	u.EmailCI = FoldEmail(u.Email)
	for _, existing := range s.users {
		if existing.ID != u.ID && existing.EmailCI == u.EmailCI {
			return apperr.Conflict("a user with email %q already exists", u.Email)
		}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperr.NotFound("user", id)
	}
	delete(s.users, id)
	return nil
}

// Users, Classes, Posts and Assignments all hang off the same Store; the
// typed views below keep call sites reading like the Mongo stores.

type Users struct{ *Store }
type Classes struct{ *Store }
type Posts struct{ *Store }
type Assignments struct{ *Store }

func (s *Store) Users() Users             { return Users{s} }
func (s *Store) Classes() Classes         { return Classes{s} }
func (s *Store) Posts() Posts             { return Posts{s} }
func (s *Store) Assignments() Assignments { return Assignments{s} }

// --- classes ---

func (v Classes) GetByID(ctx context.Context, id int64) (models.Class, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.classes[id]
	if !ok {
		return models.Class{}, apperr.NotFound("class", id)
	}
	return cloneClass(c), nil
}

func (v Classes) List(ctx context.Context) ([]models.Class, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Class, 0, len(v.classes))
	for _, c := range v.classes {
		out = append(out, cloneClass(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v Classes) ListByTeacher(ctx context.Context, teacherID int64) ([]models.Class, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.Class
	for _, c := range v.classes {
		if c.TeacherID == teacherID {
			out = append(out, cloneClass(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v Classes) Create(ctx context.Context, c *models.Class) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	c.ID = v.nextClassID
	v.nextClassID++
	v.classes[c.ID] = cloneClass(*c)
	return nil
}

func (v Classes) Update(ctx context.Context, c models.Class) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.classes[c.ID]; !ok {
		return apperr.NotFound("class", c.ID)
	}
	v.classes[c.ID] = cloneClass(c)
	return nil
}

func (v Classes) Delete(ctx context.Context, id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.classes[id]; !ok {
		return apperr.NotFound("class", id)
	}
	delete(v.classes, id)
	return nil
}

// --- posts ---

func (v Posts) GetByID(ctx context.Context, id int64) (models.Post, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.posts[id]
	if !ok {
		return models.Post{}, apperr.NotFound("post", id)
	}
	return clonePost(p), nil
}

func (v Posts) List(ctx context.Context) ([]models.Post, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Post, 0, len(v.posts))
	for _, p := range v.posts {
		out = append(out, clonePost(p))
	}
	// Newest first, matching the Mongo feed order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (v Posts) Create(ctx context.Context, p *models.Post) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	p.ID = v.nextPostID
	v.nextPostID++
	v.posts[p.ID] = clonePost(*p)
	return nil
}

func (v Posts) Update(ctx context.Context, p models.Post) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.posts[p.ID]; !ok {
		return apperr.NotFound("post", p.ID)
	}
	v.posts[p.ID] = clonePost(p)
	return nil
}

func (v Posts) Delete(ctx context.Context, id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.posts[id]; !ok {
		return apperr.NotFound("post", id)
	}
	delete(v.posts, id)
	return nil
}

// --- assignments ---

func (v Assignments) GetByID(ctx context.Context, id int64) (models.Assignment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	a, ok := v.assignments[id]
	if !ok {
		return models.Assignment{}, apperr.NotFound("assignment", id)
	}
	return cloneAssignment(a), nil
}

func (v Assignments) List(ctx context.Context) ([]models.Assignment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Assignment, 0, len(v.assignments))
	for _, a := range v.assignments {
		out = append(out, cloneAssignment(a))
	}
	sortAssignments(out)
	return out, nil
}

func (v Assignments) ListByClass(ctx context.Context, classID int64) ([]models.Assignment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.Assignment
	for _, a := range v.assignments {
		if a.ClassID == classID {
			out = append(out, cloneAssignment(a))
		}
	}
	sortAssignments(out)
	return out, nil
}

// Due date ascending, matching the Mongo listing order.
func sortAssignments(out []models.Assignment) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
}

func (v Assignments) Create(ctx context.Context, a *models.Assignment) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	a.ID = v.nextAssignmentID
	v.nextAssignmentID++
	if a.Submissions == nil {
		a.Submissions = make(map[int64]models.Submission)
	}
	v.assignments[a.ID] = cloneAssignment(*a)
	return nil
}

func (v Assignments) Delete(ctx context.Context, id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.assignments[id]; !ok {
		return apperr.NotFound("assignment", id)
	}
	delete(v.assignments, id)
	return nil
}

// PutSubmission sets the student's submission on the assignment and
// returns the previous one, atomically under the store mutex.
func (v Assignments) PutSubmission(ctx context.Context, assignmentID int64, sub models.Submission) (models.Submission, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	a, ok := v.assignments[assignmentID]
	if !ok {
		return models.Submission{}, false, apperr.NotFound("assignment", assignmentID)
	}
	prev, replaced := a.Submissions[sub.StudentID]
	if a.Submissions == nil {
		a.Submissions = make(map[int64]models.Submission)
	}
	a.Submissions[sub.StudentID] = sub
	v.assignments[assignmentID] = a
	return prev, replaced, nil
}

// --- clones ---
//
// Values handed out or stored always get their slice and map fields
// copied, so callers can never alias internal state.

func cloneUser(u models.User) models.User {
	u.ClassIDs = append([]int64(nil), u.ClassIDs...)
	return u
}

func cloneClass(c models.Class) models.Class {
	c.StudentIDs = append([]int64(nil), c.StudentIDs...)
	return c
}

func clonePost(p models.Post) models.Post {
	p.ClassIDs = append([]int64(nil), p.ClassIDs...)
	return p
}

func cloneAssignment(a models.Assignment) models.Assignment {
	subs := make(map[int64]models.Submission, len(a.Submissions))
	for k, s := range a.Submissions {
		subs[k] = s
	}
	a.Submissions = subs
	return a
}

// FoldEmail mirrors the case-insensitive key the user store derives.
func FoldEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
