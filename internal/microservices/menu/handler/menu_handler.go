package handler

import (
	"net/http"

	"crustalyst/internal/common/httpx"
	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/menu/service"
)

// SourceHeader tells the client whether the menu came from cache, db, a stale copy or the fallback.
const SourceHeader = "X-Menu-Source"

type MenuHandler struct {
	service service.MenuServiceInterface
}

func NewMenuHandler(svc service.MenuServiceInterface) *MenuHandler {
	return &MenuHandler{service: svc}
}

func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, source := h.service.Available(r.Context(), r.URL.Query().Get("category"))
	w.Header().Set(SourceHeader, source)
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *MenuHandler) Categories(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.service.Categories(r.Context()))
}

func (h *MenuHandler) Preview(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.service.Preview(r.Context()))
}

func (h *MenuHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	var req domain.AvailabilityRequest
	if !httpx.BindOrProblem(w, r, &req) {
		return
	}
	it, err := h.service.SetAvailability(r.Context(), id, *req.Available)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, it)
}
