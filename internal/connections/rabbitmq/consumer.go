package rabbitmq

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"

	"crustalyst/internal/common/logger"
)

var (
	ErrRequeue = errors.New("requeue")     // nack(requeue=true)
	ErrDLQ     = errors.New("dead_letter") // nack(requeue=false)
)

// HandlerFunc processes one delivery. nil acks, ErrDLQ drops, anything else requeues.
type HandlerFunc func(ctx context.Context, d amqp.Delivery) error

// Serve drains msgs until the channel closes or ctx is done, settling every
// delivery according to the handler result.
func Serve(ctx context.Context, msgs <-chan amqp.Delivery, h HandlerFunc, lg *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			settle(d, h(ctx, d), lg)
		}
	}
}

func settle(d amqp.Delivery, err error, lg *logger.Logger) {
	var ackErr error
	switch {
	case err == nil:
		ackErr = d.Ack(false)
	case errors.Is(err, ErrDLQ):
		lg.Warn("message_dead_lettered", map[string]any{"routing_key": d.RoutingKey, "error": err.Error()})
		ackErr = d.Nack(false, false)
	default:
		lg.Warn("message_requeued", map[string]any{"routing_key": d.RoutingKey, "error": err.Error()})
		ackErr = d.Nack(false, true)
	}
	if ackErr != nil {
		lg.Error("message_settle_failed", ackErr, map[string]any{"routing_key": d.RoutingKey})
	}
}

// Run consumes the binding until ctx is cancelled. A closed channel is
// reported as an error so a supervisor can restart the worker.
func (c *Client) Run(ctx context.Context, b Binding, h HandlerFunc, lg *logger.Logger) error {
	ch, msgs, err := c.Consume(b)
	if err != nil {
		return err
	}
	defer ch.Close()

	// Диагностика закрытий канала
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		Serve(ctx, msgs, h, lg)
	}()
	lg.Info("consumer_started", map[string]any{"queue": b.Queue, "keys": b.Keys, "consumer": b.Consumer})

	select {
	case <-ctx.Done():
		_ = ch.Cancel(b.Consumer, false)
		<-done
		lg.Info("consumer_stopped", map[string]any{"queue": b.Queue})
		return nil
	case e := <-closed:
		<-done
		if e == nil {
			return errors.New("amqp channel closed")
		}
		return e
	}
}
