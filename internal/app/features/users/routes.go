// internal/app/features/users/routes.go
package users

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the user management routes. Authorization is checked
// per handler because List admits teachers while the rest is admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users", h.List)
	r.Post("/users", h.Create)
	r.Put("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Delete)
	r.Put("/users/{id}/classes", h.SetClasses)
}
