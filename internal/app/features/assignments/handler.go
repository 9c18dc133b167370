// internal/app/features/assignments/handler.go
package assignments

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/features/api"
	"github.com/schoolhub/schoolhub/internal/app/store"
	"github.com/schoolhub/schoolhub/internal/app/submissions"
	"github.com/schoolhub/schoolhub/internal/app/system/auth"
	"github.com/schoolhub/schoolhub/internal/app/system/csvutil"
	"github.com/schoolhub/schoolhub/internal/app/system/htmlsanitize"
	"github.com/schoolhub/schoolhub/internal/app/system/limits"
	"github.com/schoolhub/schoolhub/internal/app/uploads"
	"github.com/schoolhub/schoolhub/internal/app/visibility"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// Handler covers assignments and their submissions.
type Handler struct {
	Assignments store.Assignments
	Submissions *submissions.Service
	Blobs       *uploads.Blob
	Log         *zap.Logger
}

func NewHandler(assignments store.Assignments, subs *submissions.Service, blobs *uploads.Blob, logger *zap.Logger) *Handler {
	return &Handler{Assignments: assignments, Submissions: subs, Blobs: blobs, Log: logger}
}

type assignmentResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	TeacherID   int64     `json:"teacherId"`
	TeacherName string    `json:"teacherName"`
	ClassID     int64     `json:"classId"`
	Submitted   bool      `json:"submitted"`
}

// List handles GET /api/assignments. Admins see all, teachers their own
// plus their classes', students their classes', due date ascending. Each
// entry carries whether the viewing student already submitted.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentPrincipal(r)
	all, err := h.Assignments.List(r.Context())
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	visible := visibility.VisibleAssignments(viewer, all)
	out := make([]assignmentResponse, 0, len(visible))
	for _, a := range visible {
		submitted := false
		if viewer != nil && viewer.Role == models.RoleStudent {
			_, submitted = a.Submissions[viewer.ID]
		}
		out = append(out, assignmentResponse{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			DueDate:     a.DueDate,
			TeacherID:   a.TeacherID,
			TeacherName: a.TeacherName,
			ClassID:     a.ClassID,
			Submitted:   submitted,
		})
	}
	api.WriteJSON(w, http.StatusOK, out)
}

type createRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	ClassID     int64     `json:"classId"`
}

// Create handles POST /api/assignments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentPrincipal(r)

	var req createRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	if err := visibility.CanCreateAssignment(viewer, req.ClassID); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	var fields []apperr.FieldError
	title := strings.TrimSpace(req.Title)
	if title == "" {
		fields = append(fields, apperr.FieldError{Field: "title", Message: "must not be empty"})
	}
	if req.DueDate.IsZero() {
		fields = append(fields, apperr.FieldError{Field: "dueDate", Message: "must be set"})
	}
	if req.ClassID <= 0 {
		fields = append(fields, apperr.FieldError{Field: "classId", Message: "must be a positive id"})
	}
	if len(fields) > 0 {
		api.WriteError(w, h.Log, apperr.NewValidationError("invalid assignment", fields...))
		return
	}

	a := models.Assignment{
		Title:       title,
		Description: htmlsanitize.Sanitize(req.Description),
		DueDate:     req.DueDate.UTC(),
		TeacherID:   viewer.ID,
		TeacherName: viewer.Name,
		ClassID:     req.ClassID,
	}
	if err := h.Assignments.Create(r.Context(), &a); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("assignment created",
		zap.Int64("assignment_id", a.ID),
		zap.Int64("class_id", a.ClassID),
		zap.Int64("teacher_id", a.TeacherID))
	api.WriteJSON(w, http.StatusCreated, assignmentResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate,
		TeacherID:   a.TeacherID,
		TeacherName: a.TeacherName,
		ClassID:     a.ClassID,
	})
}

// Delete handles DELETE /api/assignments/{id}, purging submission files.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	viewer := auth.CurrentPrincipal(r)
	if err := h.Submissions.Delete(r.Context(), id, viewer); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("assignment deleted", zap.Int64("assignment_id", id))
	api.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type submissionResponse struct {
	StudentID   int64     `json:"studentId"`
	StudentName string    `json:"studentName"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Submit handles POST /api/assignments/{id}/submit with a multipart
// "file" field. A resubmission replaces the previous file.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	viewer := auth.CurrentPrincipal(r)

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxSubmissionUpload)
	if err := r.ParseMultipartForm(limits.MaxSubmissionUpload); err != nil {
		api.WriteError(w, h.Log, apperr.Validation("invalid upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, h.Log, apperr.Validation("a submission file is required"))
		return
	}
	defer file.Close()

	sub, err := h.Submissions.Submit(r.Context(), id, submissions.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, viewer)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("submission recorded",
		zap.Int64("assignment_id", id),
		zap.Int64("student_id", sub.StudentID),
		zap.Int64("file_size", sub.File.Size))
	api.WriteJSON(w, http.StatusOK, submissionResponse{
		StudentID:   sub.StudentID,
		StudentName: sub.StudentName,
		FileName:    sub.File.Name,
		FileSize:    sub.File.Size,
		SubmittedAt: sub.SubmittedAt,
	})
}

// ListSubmissions handles GET /api/assignments/{id}/submissions.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	viewer := auth.CurrentPrincipal(r)
	subs, err := h.Submissions.List(r.Context(), id, viewer)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	out := make([]submissionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, submissionResponse{
			StudentID:   s.StudentID,
			StudentName: s.StudentName,
			FileName:    s.File.Name,
			FileSize:    s.File.Size,
			SubmittedAt: s.SubmittedAt,
		})
	}
	api.WriteJSON(w, http.StatusOK, out)
}

// SubmissionsCSV handles GET /api/assignments/{id}/submissions.csv, the
// download teachers use to grade offline. Same access rules as the JSON
// listing.
func (h *Handler) SubmissionsCSV(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	viewer := auth.CurrentPrincipal(r)
	subs, err := h.Submissions.List(r.Context(), id, viewer)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("submissions-%d.csv", id)))
	if err := csvutil.WriteSubmissions(w, subs); err != nil {
		h.Log.Error("csv export failed", zap.Int64("assignment_id", id), zap.Error(err))
	}
}

// SubmissionFile handles GET /api/assignments/{id}/submissions/{sid}/file.
// Local storage is served directly; anything else redirects to a signed URL.
func (h *Handler) SubmissionFile(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	studentID, err := api.URLID(r, "sid")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	viewer := auth.CurrentPrincipal(r)

	loc, ref, err := h.Submissions.FileURL(r.Context(), id, studentID, viewer)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	if h.Blobs.ServesLocalFiles() {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ref.Name))
		if ref.ContentType != "" {
			w.Header().Set("Content-Type", ref.ContentType)
		}
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		http.ServeFile(w, r, loc)
		return
	}
	http.Redirect(w, r, loc, http.StatusFound)
}
