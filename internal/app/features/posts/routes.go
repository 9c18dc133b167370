// internal/app/features/posts/routes.go
package posts

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/posts", h.List)
	r.Post("/posts", h.Create)
	r.Delete("/posts/{id}", h.Delete)
}
