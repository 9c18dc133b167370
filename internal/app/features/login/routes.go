// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// MountRoutes mounts the session endpoints. Login and me are deliberately
// open; logout only makes sense with a session but is harmless without one.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
}
