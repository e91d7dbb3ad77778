package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crustalyst/internal/domain"
)

var (
	orderCols = []string{"id", "table_id", "status", "total_amount", "notes", "created_at", "updated_at"}
	itemCols  = []string{"id", "order_id", "menu_item_id", "name", "quantity", "unit_price", "special_instructions", "status"}
)

func newMock(t *testing.T) (sqlmock.Sqlmock, OrderRepositoryInterface) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return mock, NewOrderRepository(conn)
}

func TestMenuItems(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery(`SELECT id, name, price, category, is_available FROM menu_items WHERE id IN \(\$1, \$2\)`).
		WithArgs(4, 9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "category", "is_available"}).
			AddRow(4, "Margherita", "13.00", "Pizza", true).
			AddRow(9, "Lemonade", "4.50", "Drinks", false))

	items, err := repo.MenuItems(context.Background(), []int{4, 9})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[4].Price.Equal(decimal.NewFromInt(13)))
	assert.False(t, items[9].IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	mock, repo := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(3, domain.OrderOrdered, sqlmock.AnyArg(), "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WithArgs(11, 4, 2, sqlmock.AnyArg(), "", domain.OrderOrdered).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))
	mock.ExpectExec(`INSERT INTO order_status_log`).
		WithArgs(11, domain.OrderOrdered, "kiosk").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	o, err := repo.Create(context.Background(), domain.Order{
		TableID:     3,
		Status:      domain.OrderOrdered,
		TotalAmount: decimal.NewFromInt(26),
		Items:       []domain.OrderItem{{MenuItemID: 4, Quantity: 2, UnitPrice: decimal.NewFromInt(13), Status: domain.OrderOrdered}},
	}, "kiosk")
	require.NoError(t, err)
	assert.Equal(t, 11, o.ID)
	assert.Equal(t, 21, o.Items[0].ID)
	assert.Equal(t, 11, o.Items[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RollsBack(t *testing.T) {
	t.Run("unknown table", func(t *testing.T) {
		mock, repo := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(99).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := repo.Create(context.Background(), domain.Order{TableID: 99, Status: domain.OrderOrdered}, "kiosk")
		assert.ErrorIs(t, err, domain.ErrTableNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("item insert fails", func(t *testing.T) {
		mock, repo := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, time.Now(), time.Now()))
		mock.ExpectQuery(`INSERT INTO order_items`).WillReturnError(errors.New("fk violation"))
		mock.ExpectRollback()

		_, err := repo.Create(context.Background(), domain.Order{
			TableID: 1,
			Status:  domain.OrderOrdered,
			Items:   []domain.OrderItem{{MenuItemID: 4, Quantity: 1}},
		}, "kiosk")
		assert.ErrorContains(t, err, "failed to insert order item 4")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestItemsForOrders(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery(`FROM order_items oi\s+LEFT JOIN menu_items m .* WHERE oi.order_id IN \(\$1, \$2\) ORDER BY`).
		WithArgs(8, 5).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(1, 8, 4, "Margherita", 1, "13.00", "", "Cooking").
			AddRow(2, 5, 42, "", 2, "12.00", "extra basil", "Completed"))

	items, err := repo.ItemsForOrders(context.Background(), []int{8, 5})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.OrderCooking, items[0].Status)
	assert.Empty(t, items[1].Name)
	assert.Equal(t, "extra basil", items[1].SpecialInstructions)

	none, err := repo.ItemsForOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBillTotals(t *testing.T) {
	cols := billCols

	mock, repo := newMock(t)
	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(true, 3, "60.00", "20.00"))
	b, err := repo.BillTotals(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Orders)
	assert.Equal(t, "20.00", b.Paid.StringFixed(2))

	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs(99).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(false, 0, "0", "0"))
	_, err = repo.BillTotals(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
}

func exactly(amount string) SettleFunc {
	return func(b BillTotals) (domain.Payment, error) {
		due := b.Outstanding()
		if !due.IsPositive() {
			return domain.Payment{}, domain.ErrNothingToPay
		}
		return domain.Payment{Amount: due, Tendered: decimal.RequireFromString(amount), Method: "cash"}, nil
	}
}

var billCols = []string{"exists", "orders", "total", "paid"}

func TestCheckout(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM table_status WHERE id = \$1 FOR UPDATE`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows(billCols).AddRow(true, 2, "37.50", "0"))
	mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs(4, decimal.RequireFromString("37.50"), sqlmock.AnyArg(), sqlmock.AnyArg(), "cash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, time.Now()))
	mock.ExpectQuery(`UPDATE orders SET status = 'Completed'`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8).AddRow(9))
	mock.ExpectExec(`UPDATE order_items SET status = 'Completed'`).WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(`INSERT INTO order_status_log`).WithArgs(8, domain.OrderCompleted, "staff").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO order_status_log`).WithArgs(9, domain.OrderCompleted, "staff").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	p, completed, err := repo.Checkout(context.Background(), 4, exactly("50"), "staff")
	require.NoError(t, err)
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, 4, p.TableID)
	assert.Equal(t, 2, completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A second checkout waiting on the lock sees the first payment and stores nothing.
func TestCheckout_SettledUnderLock(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(`SELECT\s+EXISTS`).WithArgs(4).
		WillReturnRows(sqlmock.NewRows(billCols).AddRow(true, 2, "37.50", "37.50"))
	mock.ExpectRollback()

	_, _, err := repo.Checkout(context.Background(), 4, exactly("50"), "staff")
	assert.ErrorIs(t, err, domain.ErrNothingToPay)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_UnknownTable(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(99).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := repo.Checkout(context.Background(), 99, exactly("50"), "staff")
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus(t *testing.T) {
	mock, repo := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE orders SET status = \$2`).WithArgs(5, domain.OrderCooking).
		WillReturnRows(sqlmock.NewRows(orderCols).AddRow(5, 2, "Cooking", "26.00", "", now, now))
	mock.ExpectExec(`INSERT INTO order_status_log`).WithArgs(5, domain.OrderCooking, "staff").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	o, err := repo.UpdateStatus(context.Background(), 5, domain.OrderCooking, "staff")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCooking, o.Status)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE orders`).WithArgs(6, domain.OrderCooking).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = repo.UpdateStatus(context.Background(), 6, domain.OrderCooking, "staff")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemStatus_NotFound(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery(`UPDATE order_items SET status = \$2`).WithArgs(30, domain.OrderCancelled).
		WillReturnRows(sqlmock.NewRows(itemCols))

	_, err := repo.UpdateItemStatus(context.Background(), 30, domain.OrderCancelled)
	assert.ErrorIs(t, err, domain.ErrOrderItemNotFound)
}
