package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/tracker/models"
)

type mockService struct{ mock.Mock }

func (m *mockService) GetOrderView(ctx context.Context, id int) (models.OrderView, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.OrderView), args.Bool(1), args.Error(2)
}

func (m *mockService) GetOrderTimeline(ctx context.Context, id, limit, offset int) (models.Timeline, error) {
	args := m.Called(ctx, id, limit, offset)
	return args.Get(0).(models.Timeline), args.Error(1)
}

func get(svc *mockService, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	Routes(NewTrackerHandler(svc), r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetStatus(t *testing.T) {
	svc := &mockService{}
	svc.On("GetOrderView", mock.Anything, 8).Return(models.OrderView{OrderID: 8, Status: domain.OrderCooking}, true, nil)
	svc.On("GetOrderView", mock.Anything, 9).Return(models.OrderView{}, false, nil)
	svc.On("GetOrderView", mock.Anything, 10).Return(models.OrderView{}, false, errors.New("db gone"))

	rec := get(svc, "/orders/8/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Cooking"`)

	assert.Equal(t, http.StatusNotFound, get(svc, "/orders/9/status").Code)

	rec = get(svc, "/orders/10/status")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db gone")

	assert.Equal(t, http.StatusBadRequest, get(svc, "/orders/zero/status").Code)
}

func TestGetTimeline(t *testing.T) {
	svc := &mockService{}
	svc.On("GetOrderTimeline", mock.Anything, 8, 5, 2).Return(models.Timeline{OrderID: 8, Events: []domain.StatusLogEntry{{OrderID: 8, Status: domain.OrderOrdered}}}, nil)

	rec := get(svc, "/orders/8/timeline?limit=5&offset=2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"events":[`)
	svc.AssertExpectations(t)
}
