package realtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"crustalyst/internal/connections/rabbitmq"
)

// FeedBinding is a per-process exclusive queue that receives every change.
func FeedBinding(exchange string) rabbitmq.Binding {
	return rabbitmq.Binding{
		Exchange:  exchange,
		Keys:      []string{"#"},
		Exclusive: true,
		Prefetch:  64,
		Consumer:  "realtime-" + uuid.NewString(),
	}
}

// HandleDelivery is the consumer callback feeding the hub.
func (h *Hub) HandleDelivery(ctx context.Context, d amqp.Delivery) error {
	ev, err := rabbitmq.DecodeChange(d)
	if err != nil {
		return fmt.Errorf("%v: %w", err, rabbitmq.ErrDLQ)
	}
	return h.Publish(ctx, ev)
}
