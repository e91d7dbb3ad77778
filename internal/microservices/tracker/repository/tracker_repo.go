package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/tracker/models"
)

type TrackerRepoInterface interface {
	GetOrderView(ctx context.Context, id int) (models.OrderView, bool, error)
	GetOrderTimeline(ctx context.Context, id, limit, offset int) ([]domain.StatusLogEntry, error)
}

type TrackerRepo struct {
	db *sql.DB
}

func NewTrackerRepo(db *sql.DB) *TrackerRepo { return &TrackerRepo{db: db} }

func (r *TrackerRepo) GetOrderView(ctx context.Context, id int) (models.OrderView, bool, error) {
	var v models.OrderView
	err := r.db.QueryRowContext(ctx, `
SELECT o.id, o.table_id, o.status, o.total_amount, o.created_at, o.updated_at,
       COUNT(oi.id),
       COUNT(oi.id) FILTER (WHERE oi.status IN ('Ready to Serve', 'Completed'))
FROM orders o
LEFT JOIN order_items oi ON oi.order_id = o.id
WHERE o.id = $1
GROUP BY o.id
`, id).Scan(&v.OrderID, &v.TableID, &v.Status, &v.TotalAmount, &v.CreatedAt, &v.UpdatedAt, &v.ItemsTotal, &v.ItemsReady)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OrderView{}, false, nil
	}
	if err != nil {
		return models.OrderView{}, false, fmt.Errorf("failed to load order %d: %w", id, err)
	}
	return v, true, nil
}

func (r *TrackerRepo) GetOrderTimeline(ctx context.Context, id, limit, offset int) ([]domain.StatusLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT status, changed_by, changed_at, notes
FROM order_status_log WHERE order_id = $1
ORDER BY changed_at ASC, id ASC
LIMIT $2 OFFSET $3
`, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline of order %d: %w", id, err)
	}
	defer rows.Close()

	out := make([]domain.StatusLogEntry, 0)
	for rows.Next() {
		e := domain.StatusLogEntry{OrderID: id}
		if err := rows.Scan(&e.Status, &e.ChangedBy, &e.ChangedAt, &e.Notes); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
