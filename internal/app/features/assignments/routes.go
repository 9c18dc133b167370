// internal/app/features/assignments/routes.go
package assignments

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/assignments", h.List)
	r.Post("/assignments", h.Create)
	r.Delete("/assignments/{id}", h.Delete)
	r.Post("/assignments/{id}/submit", h.Submit)
	r.Get("/assignments/{id}/submissions", h.ListSubmissions)
	r.Get("/assignments/{id}/submissions.csv", h.SubmissionsCSV)
	r.Get("/assignments/{id}/submissions/{sid}/file", h.SubmissionFile)
}
