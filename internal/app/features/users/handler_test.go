// internal/app/features/users/handler_test.go
package users

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

const protectedEmail = "root@school.edu"

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
		noopPurger{}, protectedEmail, logger)
	return NewHandler(st, enrollSvc, nil, logger), testutil.NewFixtures(t, st)
}

func principalFor(u models.User) *authz.Principal {
	return &authz.Principal{ID: u.ID, Name: u.FullName, Role: u.Role, ClassIDs: u.ClassIDs}
}

func TestListVisibleToStaffOnly(t *testing.T) {
	h, f := newTestHandler(t)
	f.CreateAdmin("Root", protectedEmail)
	f.CreateTeacher("Pat Teacher", "pat@school.edu")
	f.CreateStudent("Ada Lovelace", "ada@school.edu")

	cases := []struct {
		name  string
		p     *authz.Principal
		wantC int
	}{
		{"anonymous", nil, 401},
		{"student", testutil.Student(3), 403},
		{"teacher", testutil.Teacher(2), 200},
		{"admin", testutil.Admin(1), 200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.List(rec, testutil.AuthedRequest(t, "GET", "/users", nil, tc.p))
			testutil.AssertStatus(t, rec, tc.wantC)
		})
	}
}

func TestListFiltersAndPages(t *testing.T) {
	h, f := newTestHandler(t)
	f.CreateAdmin("Root", protectedEmail)
	f.CreateStudent("Ada Lovelace", "ada@school.edu")
	f.CreateStudent("Alan Turing", "alan@school.edu")

	rec := httptest.NewRecorder()
	h.List(rec, testutil.AuthedRequest(t, "GET", "/users?q=lovelace", nil, testutil.Admin(1)))
	testutil.AssertStatus(t, rec, 200)
	var out []userResponse
	testutil.DecodeBody(t, rec, &out)
	if len(out) != 1 || out[0].FullName != "Ada Lovelace" {
		t.Fatalf("q filter gave %+v", out)
	}

	rec = httptest.NewRecorder()
	h.List(rec, testutil.AuthedRequest(t, "GET", "/users?limit=1&offset=1", nil, testutil.Admin(1)))
	testutil.AssertStatus(t, rec, 200)
	testutil.DecodeBody(t, rec, &out)
	if len(out) != 1 || out[0].FullName != "Ada Lovelace" {
		t.Fatalf("paged window gave %+v", out)
	}
}

func TestCreateUser(t *testing.T) {
	h, f := newTestHandler(t)
	admin := f.CreateAdmin("Root", protectedEmail)

	body := map[string]string{
		"fullname": "New Student",
		"email":    "new@school.edu",
		"password": "longenough",
		"role":     "student",
	}
	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AuthedRequest(t, "POST", "/users", body, principalFor(admin)))
	testutil.AssertStatus(t, rec, 201)

	var out userResponse
	testutil.DecodeBody(t, rec, &out)
	if out.Role != "student" || out.ID == 0 {
		t.Fatalf("unexpected response %+v", out)
	}

	// Same email again conflicts.
	rec = httptest.NewRecorder()
	h.Create(rec, testutil.AuthedRequest(t, "POST", "/users", body, principalFor(admin)))
	testutil.AssertStatus(t, rec, 409)
}

func TestCreateStudentWithClass(t *testing.T) {
	h, f := newTestHandler(t)
	admin := f.CreateAdmin("Root", protectedEmail)
	c := f.CreateClass("Math", 0)

	body := map[string]any{
		"fullname": "New Student",
		"email":    "new@school.edu",
		"password": "longenough",
		"role":     "student",
		"classId":  c.ID,
	}
	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AuthedRequest(t, "POST", "/users", body, principalFor(admin)))
	testutil.AssertStatus(t, rec, 201)

	var out userResponse
	testutil.DecodeBody(t, rec, &out)
	if len(out.ClassIDs) != 1 || out.ClassIDs[0] != c.ID {
		t.Fatalf("classIds = %v, want [%d]", out.ClassIDs, c.ID)
	}
	got, err := f.Store().Classes().GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("load class: %v", err)
	}
	if !got.HasStudent(out.ID) {
		t.Fatal("class roster missing the new student")
	}

	// A class id on a staff account is rejected.
	body["email"] = "staff@school.edu"
	body["role"] = "teacher"
	rec = httptest.NewRecorder()
	h.Create(rec, testutil.AuthedRequest(t, "POST", "/users", body, principalFor(admin)))
	testutil.AssertStatus(t, rec, 400)
}

func TestCreateUserValidation(t *testing.T) {
	h, f := newTestHandler(t)
	admin := f.CreateAdmin("Root", protectedEmail)

	body := map[string]string{"fullname": "", "email": "not-an-email", "password": "short", "role": "wizard"}
	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AuthedRequest(t, "POST", "/users", body, principalFor(admin)))
	testutil.AssertStatus(t, rec, 400)

	var out struct {
		Fields map[string]string `json:"fields"`
	}
	testutil.DecodeBody(t, rec, &out)
	for _, field := range []string{"fullname", "email", "password", "role"} {
		if out.Fields[field] == "" {
			t.Errorf("missing validation message for %s", field)
		}
	}
}

func TestCreateUserForbiddenForNonAdmins(t *testing.T) {
	h, _ := newTestHandler(t)
	body := map[string]string{"fullname": "X", "email": "x@school.edu", "password": "longenough", "role": "student"}

	rec := httptest.NewRecorder()
	h.Create(rec, testutil.AuthedRequest(t, "POST", "/users", body, testutil.Teacher(2)))
	testutil.AssertStatus(t, rec, 403)
}

func TestUpdateProtectedAdminRole(t *testing.T) {
	h, f := newTestHandler(t)
	admin := f.CreateAdmin("Root", protectedEmail)

	body := map[string]string{"role": "teacher"}
	req := testutil.AuthedRequest(t, "PUT", "/users/1", body, principalFor(admin))
	req = testutil.WithChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	testutil.AssertStatus(t, rec, 403)
}

func TestUpdateProtectedAdminEmail(t *testing.T) {
	h, f := newTestHandler(t)
	admin := f.CreateAdmin("Root", protectedEmail)

	body := map[string]string{"email": "elsewhere@school.edu"}
	req := testutil.AuthedRequest(t, "PUT", "/users/1", body, principalFor(admin))
	req = testutil.WithChiURLParam(req, "id", "1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	testutil.AssertStatus(t, rec, 403)

	// The account stays recognized, so deleting it still fails.
	req = testutil.AuthedRequest(t, "DELETE", "/users/1", nil, principalFor(admin))
	req = testutil.WithChiURLParam(req, "id", "1")
	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	testutil.AssertStatus(t, rec, 403)

	got, err := f.Store().GetByID(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if got.Email != protectedEmail {
		t.Fatalf("email = %q, want unchanged %q", got.Email, protectedEmail)
	}
}

func TestSetClasses(t *testing.T) {
	h, f := newTestHandler(t)
	admin := f.CreateAdmin("Root", protectedEmail)
	student := f.CreateStudent("Ada Lovelace", "ada@school.edu")
	c1 := f.CreateClass("Math", 0)
	c2 := f.CreateClass("Science", 0)

	body := map[string][]int64{"classIds": {c1.ID, c2.ID}}
	req := testutil.AuthedRequest(t, "PUT", "/users/2/classes", body, principalFor(admin))
	req = testutil.WithChiURLParam(req, "id", "2")
	rec := httptest.NewRecorder()
	h.SetClasses(rec, req)
	testutil.AssertStatus(t, rec, 200)

	var out userResponse
	testutil.DecodeBody(t, rec, &out)
	if len(out.ClassIDs) != 2 {
		t.Fatalf("classIds = %v, want both classes", out.ClassIDs)
	}

	got, err := f.Store().Classes().GetByID(context.Background(), c1.ID)
	if err != nil {
		t.Fatalf("load class: %v", err)
	}
	if !got.HasStudent(student.ID) {
		t.Fatal("class roster missing the student after SetClasses")
	}
}
