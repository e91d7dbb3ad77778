package handler

import "github.com/go-chi/chi/v5"

// Routes mounts kiosk endpoints on kiosk and staff-only endpoints on staff.
func Routes(h *TablesHandler, kiosk, staff chi.Router) {
	kiosk.Get("/tables", h.List)
	kiosk.Get("/tables/{id}", h.Get)
	kiosk.Post("/tables/{id}/claim", h.Claim)
	kiosk.Post("/tables/{id}/exit", h.Exit)

	staff.Patch("/tables/{id}/status", h.UpdateStatus)
	staff.Post("/tables/{id}/reset", h.Reset)
}
