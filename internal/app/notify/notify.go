// Package notify runs the staff pager: it consumes new staff notifications
// from the change feed and reminds staff of the ones left pending.
package notify

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"crustalyst/internal/app"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/config"
	"crustalyst/internal/connections/database"
	"crustalyst/internal/connections/rabbitmq"
	notirepo "crustalyst/internal/microservices/notificator/repository"
	notisvc "crustalyst/internal/microservices/notificator/service"
)

func Run(ctx context.Context, cfg *config.Config) error {
	lg := logger.New("notification-subscriber")

	conn, err := database.ConnectDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	broker := app.Broker(cfg.RabbitMQ, lg)
	if broker == nil {
		return errors.New("notifier needs rabbitmq")
	}
	defer broker.Close()

	pager := notisvc.NewPager(notirepo.NewNotificationRepository(conn), cfg.Notifier.RemindAfter, cfg.Notifier.RemindEvery, lg)
	host, _ := os.Hostname()
	binding := rabbitmq.Binding{
		Exchange: cfg.RabbitMQ.Exchange,
		Queue:    cfg.Notifier.Queue,
		Keys:     notisvc.PagerKeys,
		Prefetch: cfg.Notifier.Prefetch,
		Consumer: "notifier-" + host,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Supervise(gctx, lg, "pager_consumer_lost", cfg.RabbitMQ.ReconnectDelay, func(ctx context.Context) error {
			if err := broker.Reconnect(); err != nil {
				return err
			}
			return broker.Run(ctx, binding, pager.Handle, lg)
		})
	})
	g.Go(func() error { return pager.RunReminders(gctx) })

	lg.Info("service_started", map[string]any{"queue": binding.Queue, "keys": binding.Keys})
	return g.Wait()
}
