// internal/app/visibility/visibility.go

// Package visibility computes, for a given principal, the filtered and
// sorted sets of posts and assignments the principal may see, plus the
// create-side capability checks.
//
// Everything here is a pure projection over the inputs: no locking, no
// caching, re-evaluated per request against current committed state.
package visibility

import (
	"sort"

	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// VisiblePosts filters posts for the principal and orders them newest
// first. Ties on date keep the input (insertion/id) order.
//
//   - anonymous: public posts only
//   - admin: everything
//   - teacher/student: public posts plus class-scoped posts whose scope
//     intersects the principal's classes
func VisiblePosts(p *authz.Principal, posts []models.Post) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		switch {
		case p == nil:
			if !post.ClassScoped() {
				out = append(out, post)
			}
		case p.Role == models.RoleAdmin:
			out = append(out, post)
		default:
			if post.VisibleToClasses(p.ClassIDs) {
				out = append(out, post)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// VisibleAssignments filters assignments for the principal and orders them
// by ascending due date. Ties keep the input order.
//
//   - anonymous: nothing
//   - admin: everything
//   - teacher: assignments they authored, plus assignments for classes they
//     teach (a class's teacher sees assignments other staff created for it)
//   - student: assignments for their classes
func VisibleAssignments(p *authz.Principal, assignments []models.Assignment) []models.Assignment {
	if p == nil {
		return []models.Assignment{}
	}
	out := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		switch p.Role {
		case models.RoleAdmin:
			out = append(out, a)
		case models.RoleTeacher:
			if a.TeacherID == p.ID || p.InClass(a.ClassID) {
				out = append(out, a)
			}
		case models.RoleStudent:
			if p.InClass(a.ClassID) {
				out = append(out, a)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

// CanCreatePost checks whether the principal may publish a post scoped to
// classIDs (empty = public). Teachers may only target classes they teach.
func CanCreatePost(p *authz.Principal, classIDs []int64) error {
	if err := authz.HasRole(p, models.RoleAdmin, models.RoleTeacher); err != nil {
		return err
	}
	if p.Role == models.RoleTeacher {
		for _, id := range classIDs {
			if !p.InClass(id) {
				return apperr.Forbidden("class %d is not assigned to you", id)
			}
		}
	}
	return nil
}

// CanCreateAssignment checks whether the principal may create an assignment
// for classID. Teachers may only target a class they teach.
func CanCreateAssignment(p *authz.Principal, classID int64) error {
	if err := authz.HasRole(p, models.RoleAdmin, models.RoleTeacher); err != nil {
		return err
	}
	if p.Role == models.RoleTeacher && !p.InClass(classID) {
		return apperr.Forbidden("class %d is not assigned to you", classID)
	}
	return nil
}

// CanListUsers reports whether the principal may read the user roster.
// Teachers get read-only listing for roster building; this predicate never
// implies mutation rights — check CanManageUsers for those.
func CanListUsers(p *authz.Principal) bool {
	return p != nil && (p.Role == models.RoleAdmin || p.Role == models.RoleTeacher)
}

// CanManageUsers reports whether the principal may create, edit, or delete
// users. Admin only; deliberately independent of CanListUsers.
func CanManageUsers(p *authz.Principal) bool {
	return p != nil && p.Role == models.RoleAdmin
}
