package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"crustalyst/internal/common/logger"
	"crustalyst/internal/connections/rabbitmq"
	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/notificator/repository"
)

// PagerKeys are the routing keys the pager queue is bound to.
var PagerKeys = []string{domain.StaffNotificationsTable + "." + string(domain.EventInsert)}

// Pager pages staff for new notifications and reminds them of old ones.
type Pager struct {
	repo        repository.NotificationRepositoryInterface
	remindAfter time.Duration
	remindEvery time.Duration
	lg          *logger.Logger
}

func NewPager(repo repository.NotificationRepositoryInterface, remindAfter, remindEvery time.Duration, lg *logger.Logger) *Pager {
	if remindAfter <= 0 {
		remindAfter = 2 * time.Minute
	}
	if remindEvery <= 0 {
		remindEvery = time.Minute
	}
	if lg == nil {
		lg = logger.New("notifier")
	}
	return &Pager{repo: repo, remindAfter: remindAfter, remindEvery: remindEvery, lg: lg}
}

// Handle is the consumer callback for staff_notifications change events.
func (p *Pager) Handle(ctx context.Context, d amqp.Delivery) error {
	ev, err := rabbitmq.DecodeChange(d)
	if err != nil {
		// нерепарабельный формат — в DLQ
		return fmt.Errorf("%v: %w", err, rabbitmq.ErrDLQ)
	}
	if !ev.Matches(domain.StaffNotificationsTable, domain.EventInsert) {
		return nil
	}
	var n domain.StaffNotification
	if err := json.Unmarshal(ev.New, &n); err != nil || n.ID == 0 {
		return fmt.Errorf("staff notification payload: %w", rabbitmq.ErrDLQ)
	}
	p.page(ctx, n, "staff_paged")
	return nil
}

// Remind re-pages every notification still pending after remindAfter.
func (p *Pager) Remind(ctx context.Context) (int, error) {
	stale, err := p.repo.PendingOlderThan(ctx, p.remindAfter)
	if err != nil {
		return 0, err
	}
	for _, n := range stale {
		p.page(ctx, n, "staff_page_reminder")
	}
	return len(stale), nil
}

// RunReminders calls Remind every remindEvery until ctx is cancelled.
func (p *Pager) RunReminders(ctx context.Context) error {
	t := time.NewTicker(p.remindEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := p.Remind(ctx); err != nil && ctx.Err() == nil {
				p.lg.Error("staff_reminder_failed", err, nil)
			}
		}
	}
}

func (p *Pager) page(ctx context.Context, n domain.StaffNotification, action string) {
	p.lg.WithContext(ctx).Info(action, map[string]any{
		"notification_id": n.ID,
		"table_id":        n.TableID,
		"message":         n.Message,
		"waiting":         time.Since(n.CreatedAt).Round(time.Second).String(),
	})
}
