package service

import (
	"context"
	"fmt"
	"strings"

	"crustalyst/internal/common/events"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/notificator/repository"
)

// Tables is the part of the tables service a staff call needs.
type Tables interface {
	Get(ctx context.Context, id int) (domain.Table, error)
	SetCallingStaff(ctx context.Context, id int) (domain.Table, error)
	UpdateStatus(ctx context.Context, id int, status string) (domain.Table, error)
}

type NotificatorServiceInterface interface {
	CallStaff(ctx context.Context, tableID int, message string) (domain.StaffNotification, error)
	List(ctx context.Context, status string) ([]domain.StaffNotification, error)
	Pending(ctx context.Context) ([]domain.StaffNotification, error)
	Resolve(ctx context.Context, id int) (domain.StaffNotification, error)
}

type NotificatorService struct {
	repo    repository.NotificationRepositoryInterface
	tables  Tables
	emitter *events.Emitter
	m       *metrics.Metrics
	lg      *logger.Logger
}

func NewNotificatorService(repo repository.NotificationRepositoryInterface, tables Tables, emitter *events.Emitter, m *metrics.Metrics) *NotificatorService {
	return &NotificatorService{repo: repo, tables: tables, emitter: emitter, m: m, lg: logger.New("notificator")}
}

// CallStaff flags the table and records a pending notification for it.
func (ns *NotificatorService) CallStaff(ctx context.Context, tableID int, message string) (domain.StaffNotification, error) {
	t, err := ns.tables.SetCallingStaff(ctx, tableID)
	if err != nil {
		return domain.StaffNotification{}, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = fmt.Sprintf("Table %d requested assistance", t.Number)
	}
	n, err := ns.repo.Create(ctx, tableID, message)
	if err != nil {
		return domain.StaffNotification{}, err
	}
	ns.emitter.Emit(ctx, domain.StaffNotificationsTable, domain.EventInsert, n, nil)
	ns.m.StaffCalled()
	ns.lg.WithContext(ctx).Info("staff_called", map[string]any{"table_id": tableID, "notification_id": n.ID})
	return n, nil
}

// List filters by status; "all" lists every notification.
func (ns *NotificatorService) List(ctx context.Context, status string) ([]domain.StaffNotification, error) {
	switch domain.NotificationStatus(status) {
	case "", domain.NotificationPending:
		return ns.repo.List(ctx, domain.NotificationPending)
	case domain.NotificationResolved:
		return ns.repo.List(ctx, domain.NotificationResolved)
	}
	if status == "all" {
		return ns.repo.List(ctx, "")
	}
	return nil, fmt.Errorf("notification status %q: %w", status, domain.ErrInvalidStatus)
}

func (ns *NotificatorService) Pending(ctx context.Context) ([]domain.StaffNotification, error) {
	return ns.repo.List(ctx, domain.NotificationPending)
}

// Resolve closes the notification and returns a table still calling staff to
// occupied. A failed table update is logged, the resolution stands.
func (ns *NotificatorService) Resolve(ctx context.Context, id int) (domain.StaffNotification, error) {
	n, err := ns.repo.Resolve(ctx, id)
	if err != nil {
		return domain.StaffNotification{}, err
	}
	ns.emitter.Emit(ctx, domain.StaffNotificationsTable, domain.EventUpdate, n, nil)

	lg := ns.lg.WithContext(ctx)
	t, err := ns.tables.Get(ctx, n.TableID)
	switch {
	case err != nil:
		lg.Warn("resolve_table_lookup_failed", map[string]any{"table_id": n.TableID, "error": err.Error()})
	case t.Status == domain.TableCallingStaff:
		if _, err := ns.tables.UpdateStatus(ctx, n.TableID, string(domain.TableOccupied)); err != nil {
			lg.Warn("resolve_table_update_failed", map[string]any{"table_id": n.TableID, "error": err.Error()})
		}
	}
	lg.Info("staff_notification_resolved", map[string]any{"notification_id": id, "table_id": n.TableID})
	return n, nil
}
