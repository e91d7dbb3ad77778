package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"crustalyst/internal/common/httpx"
	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/notificator/service"
)

type NotificatorHandler struct {
	service service.NotificatorServiceInterface
}

func NewNotificatorHandler(svc service.NotificatorServiceInterface) *NotificatorHandler {
	return &NotificatorHandler{service: svc}
}

func Routes(h *NotificatorHandler, kiosk, staff chi.Router) {
	kiosk.Post("/tables/{id}/call-staff", h.CallStaff)

	staff.Get("/notifications", h.List)
	staff.Post("/notifications/{id}/resolve", h.Resolve)
}

// CallStaff accepts an empty body; the message then defaults to the table number.
func (h *NotificatorHandler) CallStaff(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	var req domain.CallStaffRequest
	if r.ContentLength != 0 && !httpx.BindOrProblem(w, r, &req) {
		return
	}
	n, err := h.service.CallStaff(r.Context(), id, req.Message)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, n)
}

func (h *NotificatorHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *NotificatorHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	n, err := h.service.Resolve(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, n)
}
