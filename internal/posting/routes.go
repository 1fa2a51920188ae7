package posting

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/unreconcile", h.Unreconcile)
}

// MountElementRoutes serves the element metadata endpoints.
func (h *Handler) MountElementRoutes(r chi.Router) {
	r.Get("/{element}/accounts", h.ElementAccounts)
}
