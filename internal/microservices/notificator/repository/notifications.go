package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crustalyst/internal/common/db"
	"crustalyst/internal/domain"
)

type NotificationRepositoryInterface interface {
	Create(ctx context.Context, tableID int, message string) (domain.StaffNotification, error)
	List(ctx context.Context, status domain.NotificationStatus) ([]domain.StaffNotification, error)
	PendingOlderThan(ctx context.Context, age time.Duration) ([]domain.StaffNotification, error)
	Resolve(ctx context.Context, id int) (domain.StaffNotification, error)
}

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(conn *sql.DB) NotificationRepositoryInterface {
	return &NotificationRepository{db: conn}
}

const notificationColumns = `id, table_id, message, status, created_at, resolved_at`

func scanNotification(s db.Scanner) (domain.StaffNotification, error) {
	var (
		n        domain.StaffNotification
		resolved sql.NullTime
	)
	if err := s.Scan(&n.ID, &n.TableID, &n.Message, &n.Status, &n.CreatedAt, &resolved); err != nil {
		return domain.StaffNotification{}, err
	}
	if resolved.Valid {
		t := resolved.Time
		n.ResolvedAt = &t
	}
	return n, nil
}

func (r *NotificationRepository) Create(ctx context.Context, tableID int, message string) (domain.StaffNotification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx, `
		INSERT INTO staff_notifications (table_id, message, status)
		VALUES ($1, $2, 'Pending')
		RETURNING `+notificationColumns, tableID, message))
	if err != nil {
		return domain.StaffNotification{}, fmt.Errorf("failed to insert staff notification: %w", err)
	}
	return n, nil
}

// List returns notifications oldest first; an empty status lists all of them.
func (r *NotificationRepository) List(ctx context.Context, status domain.NotificationStatus) ([]domain.StaffNotification, error) {
	query := `SELECT ` + notificationColumns + ` FROM staff_notifications`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	return r.query(ctx, query+` ORDER BY created_at ASC, id ASC`, args...)
}

func (r *NotificationRepository) PendingOlderThan(ctx context.Context, age time.Duration) ([]domain.StaffNotification, error) {
	return r.query(ctx, `
		SELECT `+notificationColumns+`
		FROM staff_notifications
		WHERE status = 'Pending' AND created_at <= now() - make_interval(secs => $1)
		ORDER BY created_at ASC`, age.Seconds())
}

func (r *NotificationRepository) query(ctx context.Context, query string, args ...any) ([]domain.StaffNotification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff notifications: %w", err)
	}
	defer rows.Close()

	out := make([]domain.StaffNotification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Resolve is idempotent: an already resolved notification keeps its resolved_at.
func (r *NotificationRepository) Resolve(ctx context.Context, id int) (domain.StaffNotification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx, `
		UPDATE staff_notifications
		SET status = 'Resolved', resolved_at = COALESCE(resolved_at, now())
		WHERE id = $1
		RETURNING `+notificationColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.StaffNotification{}, domain.ErrNotificationMissing
	}
	if err != nil {
		return domain.StaffNotification{}, fmt.Errorf("failed to resolve staff notification %d: %w", id, err)
	}
	return n, nil
}
