package handler

import (
	"net/http"

	"crustalyst/internal/common/httpx"
	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/tables/service"
)

type TablesHandler struct {
	service service.TablesServiceInterface
}

func NewTablesHandler(svc service.TablesServiceInterface) *TablesHandler {
	return &TablesHandler{service: svc}
}

func (h *TablesHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.List(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tables)
}

func (h *TablesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *TablesHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Claim(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *TablesHandler) Exit(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	var req domain.PasswordRequest
	if !httpx.BindOrProblem(w, r, &req) {
		return
	}
	report, err := h.service.Exit(r.Context(), id, req.Password)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func (h *TablesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	var req domain.StatusUpdateRequest
	if !httpx.BindOrProblem(w, r, &req) {
		return
	}
	t, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *TablesHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := tableID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Reset(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func tableID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return 0, false
	}
	return id, true
}
