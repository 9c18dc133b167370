// internal/app/features/posts/handler.go
package posts

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/schoolhub/schoolhub/internal/app/features/api"
	"github.com/schoolhub/schoolhub/internal/app/store"
	"github.com/schoolhub/schoolhub/internal/app/system/auth"
	"github.com/schoolhub/schoolhub/internal/app/system/authz"
	"github.com/schoolhub/schoolhub/internal/app/system/htmlsanitize"
	"github.com/schoolhub/schoolhub/internal/app/system/paging"
	"github.com/schoolhub/schoolhub/internal/app/visibility"
	"github.com/schoolhub/schoolhub/internal/domain/apperr"
	"github.com/schoolhub/schoolhub/internal/domain/models"
)

// Handler covers the announcement feed.
type Handler struct {
	Posts   store.Posts
	Classes store.Classes
	Log     *zap.Logger
}

func NewHandler(posts store.Posts, classes store.Classes, logger *zap.Logger) *Handler {
	return &Handler{Posts: posts, Classes: classes, Log: logger}
}

type postResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Date       time.Time `json:"date"`
	ClassIDs   []int64   `json:"classIds"`
}

func toResponse(p models.Post) postResponse {
	ids := p.ClassIDs
	if ids == nil {
		ids = []int64{}
	}
	return postResponse{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.AuthorID,
		AuthorName: p.AuthorName,
		Date:       p.Date,
		ClassIDs:   ids,
	}
}

// List handles GET /api/posts. Anonymous viewers see only public posts;
// signed-in viewers see what their role and classes admit, newest first.
// The feed pages with limit/offset.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentPrincipal(r)
	all, err := h.Posts.List(r.Context())
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	visible := visibility.VisiblePosts(viewer, all)
	out := make([]postResponse, 0, len(visible))
	for _, p := range visible {
		out = append(out, toResponse(p))
	}
	api.WriteJSON(w, http.StatusOK, paging.Window(out, paging.Parse(r)))
}

type createRequest struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	ClassScoped bool    `json:"classScoped"`
	ClassIDs    []int64 `json:"classIds"`
}

// Create handles POST /api/posts. A post marked classScoped must name at
// least one class; without the flag and classIds the post is public. A
// teacher may scope only to classes they teach.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	viewer := auth.CurrentPrincipal(r)

	var req createRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	if err := visibility.CanCreatePost(viewer, req.ClassIDs); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		api.WriteError(w, h.Log, apperr.NewValidationError("invalid post",
			apperr.FieldError{Field: "title", Message: "must not be empty"}))
		return
	}
	if req.ClassScoped && len(req.ClassIDs) == 0 {
		api.WriteError(w, h.Log, apperr.NewValidationError("invalid post",
			apperr.FieldError{Field: "classIds", Message: "a class-scoped post needs at least one class"}))
		return
	}
	for _, classID := range req.ClassIDs {
		if _, err := h.Classes.GetByID(r.Context(), classID); err != nil {
			if apperr.IsNotFound(err) {
				err = apperr.NewValidationError("invalid post",
					apperr.FieldError{Field: "classIds", Message: fmt.Sprintf("class %d does not exist", classID)})
			}
			api.WriteError(w, h.Log, err)
			return
		}
	}

	p := models.Post{
		Title:      title,
		Content:    htmlsanitize.Sanitize(req.Content),
		AuthorID:   viewer.ID,
		AuthorName: viewer.Name,
		Date:       time.Now().UTC(),
		ClassIDs:   req.ClassIDs,
	}
	if err := h.Posts.Create(r.Context(), &p); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("post created",
		zap.Int64("post_id", p.ID),
		zap.Int64("author_id", p.AuthorID),
		zap.Int("class_count", len(p.ClassIDs)))
	api.WriteJSON(w, http.StatusCreated, toResponse(p))
}

// Delete handles DELETE /api/posts/{id}: the author or an admin.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := api.URLID(r, "id")
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	viewer := auth.CurrentPrincipal(r)

	p, err := h.Posts.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	if err := authz.OwnsOrAdmin(viewer, p.AuthorID); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	if err := h.Posts.Delete(r.Context(), id); err != nil {
		api.WriteError(w, h.Log, err)
		return
	}
	h.Log.Info("post deleted", zap.Int64("post_id", id))
	api.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
