// internal/app/features/classes/handler_test.go
package classes

import (
	"context"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/enrollment"
	"github.com/schoolhub/schoolhub/internal/app/store/memory"
	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/domain/models"
	"github.com/schoolhub/schoolhub/internal/testutil"
)

type noopPurger struct{}

func (noopPurger) PurgeOnAssignmentDelete(ctx context.Context, assignmentID int64) error {
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	logger := zap.NewNop()
	st := memory.New()
	enrollSvc := enrollment.NewService(
		st, st.Classes(), st.Posts(), st.Assignments(), st,
		noopPurger{}, "root@school.edu", logger)
	return NewHandler(st.Classes(), enrollSvc, nil, logger), testutil.NewFixtures(t, st)
}

func teacherPrincipal(u models.User) *authz.Principal {
	return &authz.Principal{ID: u.ID, Name: u.FullName, Role: u.Role}
}

func TestListIsPublic(t *testing.T) {
	h, f := newTestHandler(t)
	f.CreateClass("Math", 0)
	f.CreateClass("Science", 0)

	rec := httptest.NewRecorder()
	h.List(rec, testutil.NewRequest(t, "GET", "/classes", nil))
	testutil.AssertStatus(t, rec, 200)

	var out []classResponse
	testutil.DecodeBody(t, rec, &out)
	if len(out) != 2 {
		t.Fatalf("got %d classes, want 2", len(out))
	}
}

func TestCreateForcesTeacherOwnership(t *testing.T) {
	h, f := newTestHandler(t)
	teacher := f.CreateTeacher("Pat Teacher", "pat@school.edu")
	other := f.CreateTeacher("Sam Teacher", "sam@school.edu")

	body := map[string]any{"name": "History", "grade": "8", "teacherId": other.ID}
	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AuthedRequest(t, "POST", "/classes", body, teacherPrincipal(teacher)))
	testutil.AssertStatus(t, rec, 201)

	var out classResponse
	testutil.DecodeBody(t, rec, &out)
	if out.TeacherID != teacher.ID {
		t.Fatalf("teacherId = %d, want the caller %d", out.TeacherID, teacher.ID)
	}
}

func TestCreateRequiresStaff(t *testing.T) {
	h, _ := newTestHandler(t)
	body := map[string]any{"name": "History"}

	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AuthedRequest(t, "POST", "/classes", body, testutil.Student(5)))
	testutil.AssertStatus(t, rec, 403)

	rec = httptest.NewRecorder()
	h.Create(rec, testutil.NewRequest(t, "POST", "/classes", body))
	testutil.AssertStatus(t, rec, 401)
}

func TestEnrollAndUnenroll(t *testing.T) {
	h, f := newTestHandler(t)
	teacher := f.CreateTeacher("Pat Teacher", "pat@school.edu")
	student := f.CreateStudent("Ada Lovelace", "ada@school.edu")
	class := f.CreateClass("Math", teacher.ID)

	body := map[string]int64{"studentId": student.ID}
	req := testutil.AuthedRequest(t, "POST", "/classes/1/students", body, teacherPrincipal(teacher))
	req = testutil.WithChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()
	h.Enroll(rec, req)
	testutil.AssertStatus(t, rec, 200)

	var out classResponse
	testutil.DecodeBody(t, rec, &out)
	if len(out.StudentIDs) != 1 || out.StudentIDs[0] != student.ID {
		t.Fatalf("roster = %v after enroll", out.StudentIDs)
	}

	u, err := f.Store().GetByID(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("load student: %v", err)
	}
	if !u.InClass(class.ID) {
		t.Fatal("student side missing the class after enroll")
	}

	req = testutil.AuthedRequest(t, "DELETE", "/classes/1/students/2", nil, teacherPrincipal(teacher))
	req = testutil.WithChiURLParam(req, "id", "1")
	req = testutil.WithChiURLParam(req, "sid", "2")
	rec = httptest.NewRecorder()
	h.Unenroll(rec, req)
	testutil.AssertStatus(t, rec, 200)

	testutil.DecodeBody(t, rec, &out)
	if len(out.StudentIDs) != 0 {
		t.Fatalf("roster = %v after unenroll", out.StudentIDs)
	}
}

func TestEnrollRejectsForeignTeacher(t *testing.T) {
	h, f := newTestHandler(t)
	f.CreateTeacher("Pat Teacher", "pat@school.edu")
	intruder := f.CreateTeacher("Sam Teacher", "sam@school.edu")
	student := f.CreateStudent("Ada Lovelace", "ada@school.edu")
	f.CreateClass("Math", 1)

	body := map[string]int64{"studentId": student.ID}
	req := testutil.AuthedRequest(t, "POST", "/classes/1/students", body, teacherPrincipal(intruder))
	req = testutil.WithChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()
	h.Enroll(rec, req)
	testutil.AssertStatus(t, rec, 403)
}

func TestDeleteClass(t *testing.T) {
	h, f := newTestHandler(t)
	teacher := f.CreateTeacher("Pat Teacher", "pat@school.edu")
	student := f.CreateStudent("Ada Lovelace", "ada@school.edu")
	class := f.CreateClass("Math", teacher.ID)
	f.Enroll(class.ID, student.ID)

	req := testutil.AuthedRequest(t, "DELETE", "/classes/1", nil, teacherPrincipal(teacher))
	req = testutil.WithChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	testutil.AssertStatus(t, rec, 200)

	u, err := f.Store().GetByID(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("load student: %v", err)
	}
	if u.InClass(class.ID) {
		t.Fatal("student still references the deleted class")
	}
}
