package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crustalyst/internal/domain"
)

func TestGetOrderView(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTrackerRepo(db)
	now := time.Now()

	cols := []string{"id", "table_id", "status", "total_amount", "created_at", "updated_at", "items_total", "items_ready"}
	mock.ExpectQuery(`FROM orders o\s+LEFT JOIN order_items oi`).WithArgs(8).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(8, 2, "Cooking", "26.00", now, now, 3, 1))

	v, ok, err := repo.GetOrderView(context.Background(), 8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.OrderCooking, v.Status)
	assert.Equal(t, 3, v.ItemsTotal)
	assert.Equal(t, 1, v.ItemsReady)

	mock.ExpectQuery(`FROM orders o`).WithArgs(9).WillReturnRows(sqlmock.NewRows(cols))
	_, ok, err = repo.GetOrderView(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderTimeline(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTrackerRepo(db)
	now := time.Now()

	mock.ExpectQuery(`FROM order_status_log WHERE order_id = \$1`).WithArgs(8, 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"status", "changed_by", "changed_at", "notes"}).
			AddRow("Ordered", "kiosk", now.Add(-time.Minute), "").
			AddRow("Cooking", "staff", now, ""))

	events, err := repo.GetOrderTimeline(context.Background(), 8, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.OrderOrdered, events[0].Status)
	assert.Equal(t, "staff", events[1].ChangedBy)
	assert.Equal(t, 8, events[1].OrderID)

	mock.ExpectQuery(`FROM order_status_log`).WillReturnError(errors.New("timeout"))
	_, err = repo.GetOrderTimeline(context.Background(), 8, 10, 0)
	assert.ErrorContains(t, err, "failed to load timeline of order 8")
}
