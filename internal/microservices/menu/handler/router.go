package handler

import "github.com/go-chi/chi/v5"

func Routes(h *MenuHandler, kiosk, staff chi.Router) {
	kiosk.Get("/menu", h.List)
	kiosk.Get("/menu/categories", h.Categories)
	kiosk.Get("/menu/preview", h.Preview)

	staff.Patch("/menu/{id}/availability", h.SetAvailability)
}
