package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"crustalyst/internal/common/db"
	"crustalyst/internal/domain"
)

type TablesRepositoryInterface interface {
	List(ctx context.Context) ([]domain.Table, error)
	Get(ctx context.Context, id int) (domain.Table, error)
	Claim(ctx context.Context, id int) (domain.Table, error)
	SetStatus(ctx context.Context, id int, status domain.TableStatus, cleaningUntil *time.Time) (domain.Table, error)
	ReleaseExpiredCleaning(ctx context.Context) ([]domain.Table, error)

	// Exit cleanup steps; each runs on its own so a failed step does not undo the others.
	OrderIDs(ctx context.Context, tableID int) ([]int, error)
	DeleteOrderItems(ctx context.Context, orderIDs []int) (int64, error)
	DeleteOrders(ctx context.Context, orderIDs []int) (int64, error)
	SessionTotal(ctx context.Context, tableID int) (decimal.Decimal, error)
}

type TablesRepository struct {
	db *sql.DB
}

func NewTablesRepository(db *sql.DB) TablesRepositoryInterface {
	return &TablesRepository{db: db}
}

const tableColumns = `id, table_id, status, capacity, last_updated, occupied_since, estimated_free_time, cleaning_until`

// scanTable reports ok=false for rows without a table number or status.
func scanTable(s db.Scanner) (domain.Table, bool, error) {
	var (
		t          domain.Table
		number     sql.NullInt64
		status     sql.NullString
		capacity   sql.NullInt64
		updated    sql.NullTime
		occupied   sql.NullTime
		estimated  sql.NullTime
		cleaningTo sql.NullTime
	)
	if err := s.Scan(&t.ID, &number, &status, &capacity, &updated, &occupied, &estimated, &cleaningTo); err != nil {
		return domain.Table{}, false, err
	}
	if !number.Valid || !status.Valid {
		return domain.Table{}, false, nil
	}
	t.Number = int(number.Int64)
	t.Status = domain.TableStatus(status.String)
	t.DisplayStatus = t.Status.Display()
	t.Capacity = int(capacity.Int64)
	t.LastUpdated = updated.Time
	t.OccupiedSince = timePtr(occupied)
	t.EstimatedFreeTime = timePtr(estimated)
	t.CleaningUntil = timePtr(cleaningTo)
	return t, true, nil
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}

func (r *TablesRepository) List(ctx context.Context) ([]domain.Table, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tableColumns+` FROM table_status ORDER BY table_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Table, 0)
	for rows.Next() {
		t, ok, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		if !ok {
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TablesRepository) Get(ctx context.Context, id int) (domain.Table, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tableColumns+` FROM table_status WHERE id = $1`, id)
	t, ok, err := scanTable(row)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !ok) {
		return domain.Table{}, domain.ErrTableNotFound
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("failed to get table %d: %w", id, err)
	}
	return t, nil
}

// Claim flips an empty table to occupied in one statement, so two kiosks
// racing for the same table cannot both win.
func (r *TablesRepository) Claim(ctx context.Context, id int) (domain.Table, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE table_status
		SET status = 'occupied', occupied_since = now(), cleaning_until = NULL, last_updated = now()
		WHERE id = $1 AND status = 'empty'
		RETURNING `+tableColumns, id)
	t, _, err := scanTable(row)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Table{}, fmt.Errorf("failed to claim table %d: %w", id, err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM table_status WHERE id = $1)`, id).Scan(&exists); err != nil {
		return domain.Table{}, fmt.Errorf("failed to check table %d: %w", id, err)
	}
	if !exists {
		return domain.Table{}, domain.ErrTableNotFound
	}
	return domain.Table{}, domain.ErrTableUnavailable
}

func (r *TablesRepository) SetStatus(ctx context.Context, id int, status domain.TableStatus, cleaningUntil *time.Time) (domain.Table, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE table_status
		SET status = $2::text,
		    last_updated = now(),
		    occupied_since = CASE
		        WHEN $2::text IN ('occupied', 'calling_staff') THEN COALESCE(occupied_since, now())
		        WHEN $2::text = 'empty' THEN NULL
		        ELSE occupied_since END,
		    cleaning_until = $3
		WHERE id = $1
		RETURNING `+tableColumns, id, string(status), cleaningUntil)
	t, _, err := scanTable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Table{}, domain.ErrTableNotFound
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("failed to set table %d status: %w", id, err)
	}
	return t, nil
}

// ReleaseExpiredCleaning reverts tables whose cleaning window has passed, judged by database time.
func (r *TablesRepository) ReleaseExpiredCleaning(ctx context.Context) ([]domain.Table, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE table_status
		SET status = 'empty', cleaning_until = NULL, occupied_since = NULL, last_updated = now()
		WHERE status = 'cleaning' AND cleaning_until IS NOT NULL AND cleaning_until <= now()
		RETURNING `+tableColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to release cleaning tables: %w", err)
	}
	defer rows.Close()

	var out []domain.Table
	for rows.Next() {
		t, ok, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, rows.Err()
}

func (r *TablesRepository) OrderIDs(ctx context.Context, tableID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM orders WHERE table_id = $1 ORDER BY id`, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders of table %d: %w", tableID, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *TablesRepository) DeleteOrderItems(ctx context.Context, orderIDs []int) (int64, error) {
	return r.deleteIn(ctx, "order_items", "order_id", orderIDs)
}

func (r *TablesRepository) DeleteOrders(ctx context.Context, orderIDs []int) (int64, error) {
	return r.deleteIn(ctx, "orders", "id", orderIDs)
}

func (r *TablesRepository) deleteIn(ctx context.Context, table, column string, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args := db.InClause(fmt.Sprintf("DELETE FROM %s WHERE %s IN ", table, column), 1, ids)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *TablesRepository) SessionTotal(ctx context.Context, tableID int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM orders WHERE table_id = $1 AND status <> 'Cancelled'`, tableID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute session total: %w", err)
	}
	return total, nil
}
