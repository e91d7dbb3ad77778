package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crustalyst/internal/domain"
)

var cols = []string{"id", "name", "description", "price", "image_url", "category", "is_popular", "is_available"}

func TestAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM menu_items\s+WHERE is_available = true\s+ORDER BY category, name`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(2, "Burrata", "", "12.50", "", "Appetizers & Salads", true, true).
			AddRow(4, "Margherita", "Tomato, basil", "13.00", "", "Pizza", false, true))

	items, err := NewMenuRepository(db).Available(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "12.5", items[0].Price.String())
	assert.True(t, items[0].IsPopular)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailable_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("conn reset"))
	_, err = NewMenuRepository(db).Available(context.Background())
	assert.ErrorContains(t, err, "failed to load menu")
}

func TestSetAvailability(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMenuRepository(db)

	mock.ExpectQuery(`UPDATE menu_items SET is_available = \$2`).WithArgs(4, false).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(4, "Margherita", "", "13.00", "", "Pizza", false, false))
	it, err := repo.SetAvailability(context.Background(), 4, false)
	require.NoError(t, err)
	assert.False(t, it.IsAvailable)

	mock.ExpectQuery(`UPDATE menu_items`).WithArgs(99, true).WillReturnError(sql.ErrNoRows)
	_, err = repo.SetAvailability(context.Background(), 99, true)
	assert.ErrorIs(t, err, domain.ErrMenuItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
