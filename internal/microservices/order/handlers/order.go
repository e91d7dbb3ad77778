package handlers

import (
	"net/http"

	"crustalyst/internal/common/httpx"
	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/order/service"
)

type OrderHandler struct {
	service service.OrderServiceInterface
}

func NewOrderHandler(s service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: s}
}

func (oh *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	tableID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.CreateOrderRequest
	if !httpx.BindOrProblem(w, r, &req) {
		return
	}

	// Call service layer
	resp, err := oh.service.Submit(r.Context(), tableID, req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

func (oh *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	tableID, ok := pathID(w, r)
	if !ok {
		return
	}
	h, err := oh.service.History(r.Context(), tableID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h)
}

func (oh *OrderHandler) Bill(w http.ResponseWriter, r *http.Request) {
	tableID, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := oh.service.Bill(r.Context(), tableID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (oh *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	tableID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.CheckoutRequest
	if !httpx.BindOrProblem(w, r, &req) {
		return
	}
	if req.Tendered.IsNegative() {
		httpx.WriteProblem(w, http.StatusBadRequest, "validation_error", "tendered must not be negative")
		return
	}
	receipt, err := oh.service.Checkout(r.Context(), tableID, req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, receipt)
}

func (oh *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.StatusUpdateRequest
	if !httpx.BindOrProblem(w, r, &req) {
		return
	}
	o, err := oh.service.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (oh *OrderHandler) UpdateOrderItemStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.StatusUpdateRequest
	if !httpx.BindOrProblem(w, r, &req) {
		return
	}
	it, err := oh.service.UpdateOrderItemStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, it)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", err.Error())
		return 0, false
	}
	return id, true
}
