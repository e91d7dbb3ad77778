package handler

import (
	"net/http"

	"crustalyst/internal/common/httpx"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/microservices/tracker/service"
)

type TrackerHandler struct {
	service service.TrackerServiceInterface
	lg      *logger.Logger
}

func NewTrackerHandler(svc service.TrackerServiceInterface) *TrackerHandler {
	return &TrackerHandler{service: svc, lg: logger.New("tracker")}
}

func (h *TrackerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "order_id")
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	v, ok, err := h.service.GetOrderView(r.Context(), id)
	if err != nil {
		h.lg.WithContext(r.Context()).Error("order_view_failed", err, map[string]any{"order_id": id})
		httpx.WriteProblem(w, http.StatusInternalServerError, "db_error", "failed to load order")
		return
	}
	if !ok {
		httpx.WriteProblem(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v)
}

func (h *TrackerHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "order_id")
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	limit := httpx.AtoiDefault(r.URL.Query().Get("limit"), 50)
	offset := httpx.AtoiDefault(r.URL.Query().Get("offset"), 0)
	tl, err := h.service.GetOrderTimeline(r.Context(), id, limit, offset)
	if err != nil {
		h.lg.WithContext(r.Context()).Error("order_timeline_failed", err, map[string]any{"order_id": id})
		httpx.WriteProblem(w, http.StatusInternalServerError, "db_error", "failed to load timeline")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tl)
}
