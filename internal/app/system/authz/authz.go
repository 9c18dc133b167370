// internal/app/system/authz/authz.go

// Package authz holds the composable capability predicates that gate every
// mutating operation. A Principal is resolved fresh per request by the auth
// middleware; guards here never consult stored state themselves.
package authz

import (
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// Principal is the resolved identity making a request. A nil *Principal
// means the request is anonymous.
//
// ClassIDs carries the principal's class membership: the enrollment set for
// students, the set of classes taught for teachers, empty for admins.
type Principal struct {
	ID       int64
	Name     string
	Role     models.Role
	ClassIDs []int64
}

// InClass reports whether classID is in the principal's class set.
func (p *Principal) InClass(classID int64) bool {
	if p == nil {
		return false
	}
	for _, id := range p.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal is present and an admin.
func (p *Principal) IsAdmin() bool { return p != nil && p.Role == models.RoleAdmin }

// Authenticated fails with ErrUnauthenticated when no principal is present.
func Authenticated(p *Principal) error {
	if p == nil {
		return apperr.ErrUnauthenticated
	}
	return nil
}

// HasRole fails with Forbidden unless the principal's role is in the
// allowed set. An absent principal fails with ErrUnauthenticated.
func HasRole(p *Principal, roles ...models.Role) error {
	if err := Authenticated(p); err != nil {
		return err
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("role %s may not perform this operation", p.Role)
}

// OwnsOrAdmin fails with Forbidden unless the principal is an admin or the
// owner of the resource.
func OwnsOrAdmin(p *Principal, resourceOwnerID int64) error {
	if err := Authenticated(p); err != nil {
		return err
	}
	if p.Role == models.RoleAdmin || p.ID == resourceOwnerID {
		return nil
	}
	return apperr.Forbidden("you do not own this resource")
}

// TeacherOwnsClass fails with Forbidden unless the principal is an admin,
// or a teacher assigned to the class.
func TeacherOwnsClass(p *Principal, class models.Class) error {
	if err := Authenticated(p); err != nil {
		return err
	}
	if p.Role == models.RoleAdmin {
		return nil
	}
	if p.Role == models.RoleTeacher && class.TeacherID == p.ID {
		return nil
	}
	return apperr.Forbidden("class %d is not assigned to you", class.ID)
}
