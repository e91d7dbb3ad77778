package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"crustalyst/internal/domain"
)

type mockService struct{ mock.Mock }

func (m *mockService) CallStaff(ctx context.Context, tableID int, message string) (domain.StaffNotification, error) {
	args := m.Called(ctx, tableID, message)
	return args.Get(0).(domain.StaffNotification), args.Error(1)
}

func (m *mockService) List(ctx context.Context, status string) ([]domain.StaffNotification, error) {
	args := m.Called(ctx, status)
	out, _ := args.Get(0).([]domain.StaffNotification)
	return out, args.Error(1)
}

func (m *mockService) Pending(ctx context.Context) ([]domain.StaffNotification, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]domain.StaffNotification)
	return out, args.Error(1)
}

func (m *mockService) Resolve(ctx context.Context, id int) (domain.StaffNotification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.StaffNotification), args.Error(1)
}

func serve(svc *mockService, method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	Routes(NewNotificatorHandler(svc), r, r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestCallStaff(t *testing.T) {
	svc := &mockService{}
	svc.On("CallStaff", mock.Anything, 3, "").Return(domain.StaffNotification{ID: 1, TableID: 3, Message: "Table 3 requested assistance"}, nil)
	svc.On("CallStaff", mock.Anything, 3, "more napkins").Return(domain.StaffNotification{ID: 2, TableID: 3}, nil)
	svc.On("CallStaff", mock.Anything, 40, "").Return(domain.StaffNotification{}, domain.ErrTableNotFound)

	rec := serve(svc, http.MethodPost, "/tables/3/call-staff", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Table 3 requested assistance")

	rec = serve(svc, http.MethodPost, "/tables/3/call-staff", `{"message":"more napkins"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(svc, http.MethodPost, "/tables/40/call-staff", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertExpectations(t)
}

func TestList(t *testing.T) {
	svc := &mockService{}
	svc.On("List", mock.Anything, "").Return([]domain.StaffNotification{{ID: 1}}, nil)
	svc.On("List", mock.Anything, "Lost").Return(nil, domain.ErrInvalidStatus)

	assert.Equal(t, http.StatusOK, serve(svc, http.MethodGet, "/notifications", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(svc, http.MethodGet, "/notifications?status=Lost", "").Code)
}

func TestResolve(t *testing.T) {
	svc := &mockService{}
	svc.On("Resolve", mock.Anything, 5).Return(domain.StaffNotification{}, domain.ErrNotificationMissing)

	assert.Equal(t, http.StatusNotFound, serve(svc, http.MethodPost, "/notifications/5/resolve", "").Code)
}
