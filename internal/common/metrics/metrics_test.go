package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("/x", "GET", 200, time.Millisecond)
		m.OrderSubmitted(10)
		m.TableTransition("empty")
		m.EventPublished("orders")
		m.EventDropped("orders")
		m.ClientConnected()
		m.ClientDisconnected()
		m.MenuRead("db")
		m.TablesReleased(2)
		m.StaffCalled()
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()

	m.OrderSubmitted(12.5)
	m.OrderSubmitted(7.5)
	m.TablesReleased(3)
	m.TablesReleased(0)
	m.TableTransition("cleaning")
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersSubmitted))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.orderAmount))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tablesReleased))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tableTransitions.WithLabelValues("cleaning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.realtimeClients))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/v1/tables", http.MethodGet, 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `crustalyst_http_requests_total{code="200",method="GET",route="/api/v1/tables"} 1`)
}
