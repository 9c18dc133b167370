package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/schoolhub/schoolhub/internal/app/store/memory"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// Fixtures seeds an in-memory store with test data.
type Fixtures struct {
	store *memory.Store
	t     *testing.T
}

func NewFixtures(t *testing.T, store *memory.Store) *Fixtures {
	t.Helper()
	return &Fixtures{store: store, t: t}
}

// Store returns the backing store for direct access in tests.
func (f *Fixtures) Store() *memory.Store { return f.store }

func (f *Fixtures) createUser(fullName, email string, role models.Role) models.User {
	f.t.Helper()
	u := models.User{
		FullName:     fullName,
		Email:        email,
		EmailCI:      memory.FoldEmail(email),
		PasswordHash: "x",
		Role:         role,
	}
	if err := f.store.Create(context.Background(), &u); err != nil {
		f.t.Fatalf("create test user %s: %v", email, err)
	}
	return u
}

func (f *Fixtures) CreateAdmin(fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(fullName, email, models.RoleAdmin)
}

func (f *Fixtures) CreateTeacher(fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(fullName, email, models.RoleTeacher)
}

func (f *Fixtures) CreateStudent(fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(fullName, email, models.RoleStudent)
}

// CreateClass creates a class led by teacherID (0 for unassigned).
func (f *Fixtures) CreateClass(name string, teacherID int64) models.Class {
	f.t.Helper()
	c := models.Class{Name: name, Grade: "7", TeacherID: teacherID}
	if err := f.store.Classes().Create(context.Background(), &c); err != nil {
		f.t.Fatalf("create test class %s: %v", name, err)
	}
	return c
}

// CreatePost creates a post by the given author, scoped to classIDs
// (none for a public post).
func (f *Fixtures) CreatePost(title string, authorID int64, classIDs ...int64) models.Post {
	f.t.Helper()
	p := models.Post{
		Title:      title,
		Content:    "content of " + title,
		AuthorID:   authorID,
		AuthorName: fmt.Sprintf("author %d", authorID),
		Date:       time.Now().UTC(),
		ClassIDs:   classIDs,
	}
	if err := f.store.Posts().Create(context.Background(), &p); err != nil {
		f.t.Fatalf("create test post %s: %v", title, err)
	}
	return p
}

// CreateAssignment creates an assignment in classID set by teacherID.
func (f *Fixtures) CreateAssignment(title string, teacherID, classID int64) models.Assignment {
	f.t.Helper()
	a := models.Assignment{
		Title:       title,
		Description: "description of " + title,
		DueDate:     time.Now().Add(7 * 24 * time.Hour).UTC(),
		TeacherID:   teacherID,
		TeacherName: fmt.Sprintf("teacher %d", teacherID),
		ClassID:     classID,
	}
	if err := f.store.Assignments().Create(context.Background(), &a); err != nil {
		f.t.Fatalf("create test assignment %s: %v", title, err)
	}
	return a
}

// Enroll links a student and class directly, both sides at once.
func (f *Fixtures) Enroll(classID, studentID int64) {
	f.t.Helper()
	ctx := context.Background()

	u, err := f.store.GetByID(ctx, studentID)
	if err != nil {
		f.t.Fatalf("enroll: load student %d: %v", studentID, err)
	}
	c, err := f.store.Classes().GetByID(ctx, classID)
	if err != nil {
		f.t.Fatalf("enroll: load class %d: %v", classID, err)
	}
	u.ClassIDs = append(u.ClassIDs, classID)
	c.StudentIDs = append(c.StudentIDs, studentID)
	if err := f.store.Update(ctx, u); err != nil {
		f.t.Fatalf("enroll: update student %d: %v", studentID, err)
	}
	if err := f.store.Classes().Update(ctx, c); err != nil {
		f.t.Fatalf("enroll: update class %d: %v", classID, err)
	}
}
