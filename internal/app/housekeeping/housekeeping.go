// Package housekeeping runs the cleaning sweeper as its own process.
package housekeeping

import (
	"context"
	"os"

	"crustalyst/internal/app"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/config"
	"crustalyst/internal/connections/database"
	"crustalyst/internal/microservices/housekeeping"
	tablesrepo "crustalyst/internal/microservices/tables/repository"
	tablessvc "crustalyst/internal/microservices/tables/service"
)

type Config struct {
	WorkerName string
}

func Run(ctx context.Context, cfg *config.Config, hc Config) error {
	lg := logger.New("housekeeping")
	m := metrics.New()

	conn, err := database.ConnectDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	broker := app.Broker(cfg.RabbitMQ, lg)
	if broker != nil {
		defer broker.Close()
	}
	// kiosks still see the revert through polling when no broker is up
	emitter := app.Emitter(broker, cfg.RabbitMQ, "housekeeping", nil, m)

	tables := tablessvc.NewTablesService(tablesrepo.NewTablesRepository(conn), emitter, nil, tablessvc.Options{
		CleaningDelay: cfg.Tables.CleaningDelay,
		Metrics:       m,
		Logger:        lg,
	})

	name := hc.WorkerName
	if name == "" {
		host, _ := os.Hostname()
		name = "housekeeping-" + host
	}
	lg.Info("service_started", map[string]any{"worker": name, "every": cfg.Housekeeping.SweepInterval.String()})
	return housekeeping.NewSweeper(tables, name, cfg.Housekeeping.SweepInterval, lg).Run(ctx)
}
