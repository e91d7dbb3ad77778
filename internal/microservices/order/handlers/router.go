package handlers

import "github.com/go-chi/chi/v5"

func Routes(oh *OrderHandler, kiosk, staff chi.Router) {
	kiosk.Get("/tables/{id}/orders", oh.History)
	kiosk.Post("/tables/{id}/orders", oh.Submit)
	kiosk.Get("/tables/{id}/bill", oh.Bill)

	staff.Post("/tables/{id}/checkout", oh.Checkout)
	staff.Patch("/orders/{id}/status", oh.UpdateOrderStatus)
	staff.Patch("/order-items/{id}/status", oh.UpdateOrderItemStatus)
}
