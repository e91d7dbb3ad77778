// Package app wires connections shared by the process runners.
package app

import (
	"context"

	"crustalyst/internal/common/cache"
	"crustalyst/internal/common/events"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/config"
	"crustalyst/internal/connections/rabbitmq"
	"crustalyst/internal/connections/redis"
	"crustalyst/internal/domain"
)

// Broker dials RabbitMQ and declares the change exchange. On failure it
// returns a nil client; callers decide whether they can live without it.
func Broker(cfg config.RabbitMQConfig, lg *logger.Logger) *rabbitmq.Client {
	client, err := rabbitmq.Dial(rabbitmq.FromConfig(cfg))
	if err != nil {
		lg.Warn("rabbitmq_unavailable", map[string]any{"host": cfg.Host, "error": err.Error()})
		return nil
	}
	if err := client.DeclareTopology(cfg.Exchange); err != nil {
		lg.Warn("rabbitmq_topology_failed", map[string]any{"exchange": cfg.Exchange, "error": err.Error()})
		client.Close()
		return nil
	}
	lg.Info("rabbitmq_connected", map[string]any{"host": cfg.Host, "exchange": cfg.Exchange})
	return client
}

// Emitter publishes to the broker when there is one, otherwise to fallback
// (which may be nil: events are then dropped).
func Emitter(client *rabbitmq.Client, cfg config.RabbitMQConfig, source string, fallback domain.ChangePublisher, m *metrics.Metrics) *events.Emitter {
	var pub domain.ChangePublisher = fallback
	if client != nil {
		pub = rabbitmq.NewChangePublisher(client, cfg.Exchange, source)
	}
	return events.NewEmitter(pub, logger.New("events"), m)
}

// Cache returns a Redis-backed cache, or an in-process one when Redis is down.
func Cache(ctx context.Context, cfg config.RedisConfig, service string, lg *logger.Logger) (cache.Cache, func()) {
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		lg.Warn("redis_unavailable_memory_cache", map[string]any{"addr": cfg.Addr(), "error": err.Error()})
		return cache.NewMemory(service), func() {}
	}
	lg.Info("redis_connected", map[string]any{"addr": cfg.Addr()})
	return cache.NewFromClient(client, service), func() { _ = client.Close() }
}
