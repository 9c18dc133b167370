// internal/app/features/users/handler.go
package users

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolhub/schoolhub/internal/app/enrollment"
	"github.com/schoolhub/schoolhub/internal/app/features/api"
	"github.com/schoolhub/schoolhub/internal/app/store"
	"github.com/schoolhub/schoolhub/internal/app/system/auditlog"
	"github.com/schoolhub/schoolhub/internal/app/system/auth"
	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/app/system/inputval"
	"github.com/schoolhub/schoolhub/internal/app/system/paging"
	"github.com/schoolhub/schoolhub/internal/app/system/search"
	"github.com/schoolhub/schoolhub/internal/app/visibility"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// Handler covers admin user management plus the teacher-visible roster.
type Handler struct {
	Users      store.Users
	Enrollment *enrollment.Service
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(users store.Users, enroll *enrollment.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Enrollment: enroll, Audit: audit, Log: logger}
}

type userResponse struct {
	ID       int64   `json:"id"`
	FullName string  `json:"fullname"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	ClassIDs []int64 `json:"classIds"`
}

// listUsersErr distinguishes "sign in first" from "wrong role".
func listUsersErr(p *authz.Principal) error {
	if p == nil {
		return apperr.ErrUnauthenticated
	}
	return apperr.Forbidden("only admins and teachers may list users")
}

func manageUsersErr(p *authz.Principal) error {
	if p == nil {
		return apperr.ErrUnauthenticated
	}
	return apperr.Forbidden("only admins may manage users")
}

func toResponse(u models.User) userResponse {
	ids := u.ClassIDs
	if ids == nil {
		ids = []int64{}
	}
	return userResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     string(u.Role),
		ClassIDs: ids,
	}
}

// List handles GET /api/users. Admins and teachers may read the roster;
// teachers need it to pick students for their classes. An optional "q"
// parameter filters by name or email, and limit/offset page the result.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := auth.CurrentPrincipal(r)
	if !visibility.CanListUsers(p) {
		api.WriteError(w, h.Log, listUsersErr(p))
		return
	}
	users, err := h.Users.List(r.Context())
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	q := r.URL.Query().Get("q")
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		if !search.Matches(q, u.FullName, u.Email) {
			continue
		}
		out = append(out, toResponse(u))
	}
	api.WriteJSON(w, http.StatusOK, paging.Window(out, paging.Parse(r)))
}

type createRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	// ClassID optionally enrolls a new student on creation.
	ClassID int64 `json:"classId"`
}

// Create handles POST /api/users (admin only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := auth.CurrentPrincipal(r)
	if !visibility.CanManageUsers(p) {
		api.WriteError(w, h.Log, manageUsersErr(p))
		return
	}

	var req createRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	var fields []apperr.FieldError
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		fields = append(fields, apperr.FieldError{Field: "fullname", Message: "must not be empty"})
	}
	if !inputval.IsValidEmail(strings.TrimSpace(req.Email)) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "must be a valid email address"})
	}
	if len(req.Password) < 8 {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "role", Message: err.Error()})
	}
	if req.ClassID != 0 && role != models.RoleStudent {
		fields = append(fields, apperr.FieldError{Field: "classId", Message: "only students can be enrolled in a class"})
	}
	if len(fields) > 0 {
		api.WriteError(w, h.Log, apperr.NewValidationError("invalid user", fields...))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	u := models.User{
		FullName:     name,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := h.Users.Create(r.Context(), &u); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Audit.UserCreated(r, p.ID, u.ID, string(u.Role))

	// A student created with a class joins it immediately.
	if req.ClassID != 0 {
		if err := h.Enrollment.Enroll(r.Context(), req.ClassID, u.ID, p); err != nil {
			api.WriteError(w, h.Log, err)
			return
		}
		u, err = h.Users.GetByID(r.Context(), u.ID)
		if err != nil {
			api.WriteError(w, h.Log, err)
			return
		}
	}
	api.WriteJSON(w, http.StatusCreated, toResponse(u))
}

type updateRequest struct {
	FullName *string `json:"fullname"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// Update handles PUT /api/users/{id} (admin only). The seed admin keeps
// its email and role.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p := auth.CurrentPrincipal(r)
	if !visibility.CanManageUsers(p) {
		api.WriteError(w, h.Log, manageUsersErr(p))
		return
	}
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	var req updateRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			api.WriteError(w, h.Log, apperr.NewValidationError("invalid user",
				apperr.FieldError{Field: "fullname", Message: "must not be empty"}))
			return
		}
		u.FullName = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !inputval.IsValidEmail(email) {
			api.WriteError(w, h.Log, apperr.NewValidationError("invalid user",
				apperr.FieldError{Field: "email", Message: "must be a valid email address"}))
			return
		}
		// The seed admin is recognized by email; changing it would strip
		// the account's delete and demotion protection.
		if u.Email == h.Enrollment.ProtectedEmail() && email != u.Email {
			api.WriteError(w, h.Log, apperr.Forbidden("the primary admin account cannot change email"))
			return
		}
		u.Email = email
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			api.WriteError(w, h.Log, apperr.NewValidationError("invalid user",
				apperr.FieldError{Field: "password", Message: "must be at least 8 characters"}))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			api.WriteError(w, h.Log, err)
			return
		}
		u.PasswordHash = string(hash)
	}
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			api.WriteError(w, h.Log, apperr.NewValidationError("invalid user",
				apperr.FieldError{Field: "role", Message: err.Error()}))
			return
		}
		if u.Email == h.Enrollment.ProtectedEmail() && role != models.RoleAdmin {
			api.WriteError(w, h.Log, apperr.Forbidden("the primary admin account cannot change role"))
			return
		}
		u.Role = role
	}

	if err := h.Users.Update(r.Context(), u); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Audit.UserUpdated(r, p.ID, u.ID)
	api.WriteJSON(w, http.StatusOK, toResponse(u))
}

// Delete handles DELETE /api/users/{id} (admin only). Students are
// unenrolled everywhere; a deleted teacher's classes become unassigned.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	p := auth.CurrentPrincipal(r)
	if err := h.Enrollment.DeleteUser(r.Context(), id, p); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Audit.UserDeleted(r, p.ID, id)
	api.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type setClassesRequest struct {
	ClassIDs []int64 `json:"classIds"`
}

// SetClasses handles PUT /api/users/{id}/classes: the bulk enrollment
// edit, replacing the student's whole set in one operation.
func (h *Handler) SetClasses(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	var req setClassesRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	p := auth.CurrentPrincipal(r)
	if err := h.Enrollment.SetStudentClasses(r.Context(), id, req.ClassIDs, p); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	u, err := h.Users.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toResponse(u))
}
