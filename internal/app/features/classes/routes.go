// internal/app/features/classes/routes.go
package classes

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the class routes. Listing is public; everything else
// authorizes inside the enrollment service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/classes", h.List)
	r.Post("/classes", h.Create)
	r.Delete("/classes/{id}", h.Delete)
	r.Post("/classes/{id}/students", h.Enroll)
	r.Delete("/classes/{id}/students/{sid}", h.Unenroll)
}
