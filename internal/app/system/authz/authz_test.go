package authz_test

import (
	"errors"
	"testing"

	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

func admin() *authz.Principal {
	return &authz.Principal{ID: 1, Name: "Head Admin", Role: models.RoleAdmin}
}

func teacher(id int64, classIDs ...int64) *authz.Principal {
	return &authz.Principal{ID: id, Role: models.RoleTeacher, ClassIDs: classIDs}
}

func student(id int64, classIDs ...int64) *authz.Principal {
	return &authz.Principal{ID: id, Role: models.RoleStudent, ClassIDs: classIDs}
}

func TestAuthenticated(t *testing.T) {
	if err := authz.Authenticated(nil); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
	if err := authz.Authenticated(student(3)); err != nil {
		t.Errorf("expected nil for present principal, got %v", err)
	}
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		name    string
		p       *authz.Principal
		roles   []models.Role
		wantErr func(error) bool
	}{
		{"anonymous is unauthenticated", nil, []models.Role{models.RoleAdmin},
			func(err error) bool { return errors.Is(err, apperr.ErrUnauthenticated) }},
		{"admin allowed", admin(), []models.Role{models.RoleAdmin, models.RoleTeacher},
			func(err error) bool { return err == nil }},
		{"teacher allowed", teacher(2), []models.Role{models.RoleAdmin, models.RoleTeacher},
			func(err error) bool { return err == nil }},
		{"student forbidden", student(3), []models.Role{models.RoleAdmin, models.RoleTeacher},
			apperr.IsForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authz.HasRole(tt.p, tt.roles...)
			if !tt.wantErr(err) {
				t.Errorf("HasRole = %v", err)
			}
		})
	}
}

func TestOwnsOrAdmin(t *testing.T) {
	if err := authz.OwnsOrAdmin(admin(), 99); err != nil {
		t.Errorf("admin should pass, got %v", err)
	}
	if err := authz.OwnsOrAdmin(teacher(2), 2); err != nil {
		t.Errorf("owner should pass, got %v", err)
	}
	if err := authz.OwnsOrAdmin(teacher(2), 3); !apperr.IsForbidden(err) {
		t.Errorf("non-owner should be forbidden, got %v", err)
	}
	if err := authz.OwnsOrAdmin(nil, 3); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("anonymous should be unauthenticated, got %v", err)
	}
}

func TestTeacherOwnsClass(t *testing.T) {
	class := models.Class{ID: 101, TeacherID: 2}

	if err := authz.TeacherOwnsClass(admin(), class); err != nil {
		t.Errorf("admin should pass, got %v", err)
	}
	if err := authz.TeacherOwnsClass(teacher(2), class); err != nil {
		t.Errorf("owning teacher should pass, got %v", err)
	}
	if err := authz.TeacherOwnsClass(teacher(5), class); !apperr.IsForbidden(err) {
		t.Errorf("other teacher should be forbidden, got %v", err)
	}
	if err := authz.TeacherOwnsClass(student(3, 101), class); !apperr.IsForbidden(err) {
		t.Errorf("student should be forbidden, got %v", err)
	}
}

func TestPrincipal_InClass(t *testing.T) {
	p := student(3, 101, 102)
	if !p.InClass(101) {
		t.Error("expected InClass(101) true")
	}
	if p.InClass(202) {
		t.Error("expected InClass(202) false")
	}
	var anon *authz.Principal
	if anon.InClass(101) {
		t.Error("expected nil principal InClass false")
	}
}
