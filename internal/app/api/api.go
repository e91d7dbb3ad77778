// Package api runs the HTTP API, the websocket fan-out and the embedded sweeper.
package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sync/errgroup"

	"crustalyst/internal/app"
	"crustalyst/internal/common/auth"
	"crustalyst/internal/common/httpx"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/config"
	"crustalyst/internal/connections/database"
	"crustalyst/internal/microservices/housekeeping"
	menurepo "crustalyst/internal/microservices/menu/repository"
	menusvc "crustalyst/internal/microservices/menu/service"
	notirepo "crustalyst/internal/microservices/notificator/repository"
	notisvc "crustalyst/internal/microservices/notificator/service"
	orderrepo "crustalyst/internal/microservices/order/repository"
	ordersvc "crustalyst/internal/microservices/order/service"
	"crustalyst/internal/microservices/realtime"
	tablesrepo "crustalyst/internal/microservices/tables/repository"
	tablessvc "crustalyst/internal/microservices/tables/service"
	trackerrepo "crustalyst/internal/microservices/tracker/repository"
	trackersvc "crustalyst/internal/microservices/tracker/service"
)

type Options struct {
	// EmbeddedSweeper runs the cleaning sweeper inside the API process.
	EmbeddedSweeper bool
}

func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	lg := logger.New("api")
	m := metrics.New()

	conn, err := database.ConnectDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	a, err := auth.New(auth.Config{
		AnonKey:           cfg.Auth.AnonKey,
		StaffPassword:     cfg.Auth.StaffPassword,
		StaffPasswordHash: cfg.Auth.StaffPasswordHash,
		JWTSecret:         cfg.Auth.JWTSecret,
		JWTTTL:            cfg.Auth.JWTTTL,
		Issuer:            cfg.Auth.Issuer,
	})
	if err != nil {
		return fmt.Errorf("auth setup: %w", err)
	}

	hub := realtime.NewHub(logger.New("realtime"), m)
	broker := app.Broker(cfg.RabbitMQ, lg)
	if broker != nil {
		defer broker.Close()
	} else {
		// без брокера события идут прямо в hub этого процесса
		lg.Warn("realtime_local_fanout", nil)
	}
	emitter := app.Emitter(broker, cfg.RabbitMQ, "api", hub, m)

	menuCache, closeCache := app.Cache(ctx, cfg.Redis, "menu", lg)
	defer closeCache()

	tables := tablessvc.NewTablesService(tablesrepo.NewTablesRepository(conn), emitter, a, tablessvc.Options{
		CleaningDelay: cfg.Tables.CleaningDelay,
		Metrics:       m,
	})
	services := Services{
		Tables: tables,
		Menu:   menusvc.NewMenuService(menurepo.NewMenuRepository(conn), menuCache, cfg.Redis.MenuTTL, emitter, m),
		Orders: ordersvc.NewOrderService(orderrepo.NewOrderRepository(conn), emitter, ordersvc.Options{
			HistoryLimit: cfg.Orders.HistoryLimit,
			Metrics:      m,
		}),
		Tracker:     trackersvc.NewTrackerService(trackerrepo.NewTrackerRepo(conn)),
		Notificator: notisvc.NewNotificatorService(notirepo.NewNotificationRepository(conn), tables, emitter, m),
	}

	checks := []Check{
		{Name: "database", Required: true, Probe: conn.PingContext},
		{Name: "cache", Probe: menuCache.Ping},
		{Name: "rabbitmq", Probe: func(context.Context) error {
			if broker == nil {
				return errors.New("not connected")
			}
			return broker.Ping()
		}},
	}

	handler := NewRouter(RouterDeps{
		HTTP:     cfg.HTTP,
		Services: services,
		Auth:     a,
		Hub:      hub,
		Checks:   checks,
		Metrics:  m,
		Logger:   lg,
	})
	srv := httpx.New(":"+strconv.Itoa(cfg.App.Port), handler, httpx.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		lg.Info("service_started", map[string]any{"port": cfg.App.Port, "env": cfg.App.Env})
		return srv.Run(gctx)
	})
	if broker != nil {
		feedLog := logger.New("realtime-feed")
		feed := func(ctx context.Context) error {
			if err := broker.Reconnect(); err != nil {
				return err
			}
			return broker.Run(ctx, realtime.FeedBinding(cfg.RabbitMQ.Exchange), hub.HandleDelivery, feedLog)
		}
		// потеря брокера не останавливает API: клиенты переходят на polling
		g.Go(func() error {
			return app.Supervise(gctx, feedLog, "realtime_feed_lost", cfg.RabbitMQ.ReconnectDelay, feed)
		})
	}
	if opts.EmbeddedSweeper {
		host, _ := os.Hostname()
		sweeper := housekeeping.NewSweeper(tables, "api-"+host, cfg.Housekeeping.SweepInterval, logger.New("housekeeping"))
		g.Go(func() error { return sweeper.Run(gctx) })
	}

	err = g.Wait()
	lg.Info("service_stopped", nil)
	return err
}
