package handler

import "github.com/go-chi/chi/v5"

// Только чтение: статус и история статусов заказа
func Routes(h *TrackerHandler, r chi.Router) {
	r.Get("/orders/{order_id}/status", h.GetStatus)
	r.Get("/orders/{order_id}/timeline", h.GetTimeline)
}
