// internal/app/features/profile/routes.go
package profile

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/profile", h.Update)
}
