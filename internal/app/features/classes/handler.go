// internal/app/features/classes/handler.go
package classes

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/enrollment"
	"github.com/schoolhub/schoolhub/internal/app/features/api"
	"github.com/schoolhub/schoolhub/internal/app/store"
	"github.com/schoolhub/schoolhub/internal/app/system/auditlog"
	"github.com/schoolhub/schoolhub/internal/app/system/auth"
	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// Handler covers the class catalog and roster membership endpoints.
type Handler struct {
	Classes    store.Classes
	Enrollment *enrollment.Service
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(classes store.Classes, enroll *enrollment.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Classes: classes, Enrollment: enroll, Audit: audit, Log: logger}
}

type classResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Grade      string  `json:"grade"`
	TeacherID  int64   `json:"teacherId,omitempty"`
	StudentIDs []int64 `json:"studentIds"`
}

func toResponse(c models.Class) classResponse {
	ids := c.StudentIDs
	if ids == nil {
		ids = []int64{}
	}
	return classResponse{
		ID:         c.ID,
		Name:       c.Name,
		Grade:      c.Grade,
		TeacherID:  c.TeacherID,
		StudentIDs: ids,
	}
}

// List handles GET /api/classes. The catalog is public: prospective
// students browse it before they have an account.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	classes, err := h.Classes.List(r.Context())
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	out := make([]classResponse, 0, len(classes))
	for _, c := range classes {
		out = append(out, toResponse(c))
	}
	api.WriteJSON(w, http.StatusOK, out)
}

type createRequest struct {
	Name      string `json:"name"`
	Grade     string `json:"grade"`
	TeacherID int64  `json:"teacherId"`
}

// Create handles POST /api/classes. Teachers create classes assigned to
// themselves; admins may assign any teacher or leave the class unassigned.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := auth.CurrentPrincipal(r)
	if err := authz.HasRole(p, models.RoleAdmin, models.RoleTeacher); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	var req createRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		api.WriteError(w, h.Log, apperr.NewValidationError("invalid class",
			apperr.FieldError{Field: "name", Message: "must not be empty"}))
		return
	}

	teacherID := req.TeacherID
	if p.Role == models.RoleTeacher {
		// Teachers cannot create classes on someone else's behalf.
		teacherID = p.ID
	}

	c := models.Class{
		Name:      name,
		Grade:     strings.TrimSpace(req.Grade),
		TeacherID: teacherID,
	}
	if err := h.Classes.Create(r.Context(), &c); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("class created",
		zap.Int64("class_id", c.ID),
		zap.Int64("teacher_id", c.TeacherID))
	api.WriteJSON(w, http.StatusCreated, toResponse(c))
}

// Delete handles DELETE /api/classes/{id}: the cascading delete that
// unenrolls students, narrows posts, and purges assignments.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	p := auth.CurrentPrincipal(r)
	if err := h.Enrollment.DeleteClass(r.Context(), id, p); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Audit.ClassDeleted(r, p.ID, id)
	api.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type enrollRequest struct {
	StudentID int64 `json:"studentId"`
}

// Enroll handles POST /api/classes/{id}/students.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	classID, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	var req enrollRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	if req.StudentID <= 0 {
		api.WriteError(w, h.Log, apperr.NewValidationError("invalid enrollment",
			apperr.FieldError{Field: "studentId", Message: "must be a positive id"}))
		return
	}
	p := auth.CurrentPrincipal(r)
	if err := h.Enrollment.Enroll(r.Context(), classID, req.StudentID, p); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Audit.StudentEnrolled(r, p.ID, classID, req.StudentID)
	c, err := h.Classes.GetByID(r.Context(), classID)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toResponse(c))
}

// Unenroll handles DELETE /api/classes/{id}/students/{sid}.
func (h *Handler) Unenroll(w http.ResponseWriter, r *http.Request) {
	classID, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	studentID, err := api.URLID(r, "sid")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	p := auth.CurrentPrincipal(r)
	if err := h.Enrollment.Unenroll(r.Context(), classID, studentID, p); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Audit.StudentUnenrolled(r, p.ID, classID, studentID)
	c, err := h.Classes.GetByID(r.Context(), classID)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, toResponse(c))
}
