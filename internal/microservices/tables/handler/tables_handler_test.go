package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crustalyst/internal/domain"
)

type mockService struct{ mock.Mock }

func (m *mockService) List(ctx context.Context) ([]domain.Table, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Table), args.Error(1)
}

func (m *mockService) Get(ctx context.Context, id int) (domain.Table, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Table), args.Error(1)
}

func (m *mockService) Claim(ctx context.Context, id int) (domain.Table, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Table), args.Error(1)
}

func (m *mockService) UpdateStatus(ctx context.Context, id int, status string) (domain.Table, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(domain.Table), args.Error(1)
}

func (m *mockService) Reset(ctx context.Context, id int) (domain.Table, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Table), args.Error(1)
}

func (m *mockService) SetCleaning(ctx context.Context, id int) (domain.Table, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Table), args.Error(1)
}

func (m *mockService) SetCallingStaff(ctx context.Context, id int) (domain.Table, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Table), args.Error(1)
}

func (m *mockService) Exit(ctx context.Context, id int, password string) (domain.CleanupReport, error) {
	args := m.Called(ctx, id, password)
	return args.Get(0).(domain.CleanupReport), args.Error(1)
}

func (m *mockService) ReleaseExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newRouter(svc *mockService) http.Handler {
	r := chi.NewRouter()
	Routes(NewTablesHandler(svc), r, r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	h.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	svc := &mockService{}
	svc.On("List", mock.Anything).Return([]domain.Table{
		{ID: 1, Number: 1, Status: domain.TableEmpty, DisplayStatus: domain.DisplayEmpty},
	}, nil)

	rec := do(newRouter(svc), http.MethodGet, "/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Empty", got[0]["display_status"])
}

func TestClaim_Conflict(t *testing.T) {
	svc := &mockService{}
	svc.On("Claim", mock.Anything, 2).Return(domain.Table{}, domain.ErrTableUnavailable)

	rec := do(newRouter(svc), http.MethodPost, "/tables/2/claim", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGet_BadID(t *testing.T) {
	rec := do(newRouter(&mockService{}), http.MethodGet, "/tables/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExit(t *testing.T) {
	svc := &mockService{}
	svc.On("Exit", mock.Anything, 3, "admin123").Return(domain.CleanupReport{TableID: 3, OrdersDeleted: 2}, nil)
	svc.On("Exit", mock.Anything, 3, "nope").Return(domain.CleanupReport{}, domain.ErrInvalidPassword)
	h := newRouter(svc)

	rec := do(h, http.MethodPost, "/tables/3/exit", `{"password":"admin123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orders_deleted":2`)

	rec = do(h, http.MethodPost, "/tables/3/exit", `{"password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPost, "/tables/3/exit", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	svc := &mockService{}
	svc.On("UpdateStatus", mock.Anything, 4, "cleaning").Return(domain.Table{ID: 4, Status: domain.TableCleaning}, nil)
	svc.On("UpdateStatus", mock.Anything, 4, "dirty").Return(domain.Table{}, domain.ErrInvalidStatus)
	h := newRouter(svc)

	rec := do(h, http.MethodPatch, "/tables/4/status", `{"status":"cleaning"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPatch, "/tables/4/status", `{"status":"dirty"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReset(t *testing.T) {
	svc := &mockService{}
	svc.On("Reset", mock.Anything, 5).Return(domain.Table{}, domain.ErrTableNotFound)
	rec := do(newRouter(svc), http.MethodPost, "/tables/5/reset", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
