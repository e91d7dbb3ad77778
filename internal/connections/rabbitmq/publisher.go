package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"crustalyst/internal/domain"
)

// ChangePublisher sends change events to the topic exchange with routing key
// "<table>.<event>".
type ChangePublisher struct {
	client   *Client
	exchange string
	source   string
}

func NewChangePublisher(client *Client, exchange, source string) *ChangePublisher {
	return &ChangePublisher{client: client, exchange: exchange, source: source}
}

func (p *ChangePublisher) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	headers := amqp.Table{
		"x-source": p.source,
		"x-table":  ev.Table,
	}
	if err := p.client.Publish(ctx, p.exchange, ev.RoutingKey(), body, headers, "application/json", false); err != nil {
		return fmt.Errorf("publish %s: %w", ev.RoutingKey(), err)
	}
	return nil
}

// DecodeChange parses a delivery body produced by ChangePublisher.
func DecodeChange(d amqp.Delivery) (domain.ChangeEvent, error) {
	var ev domain.ChangeEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		return domain.ChangeEvent{}, err
	}
	if ev.Table == "" || ev.Event == "" {
		return domain.ChangeEvent{}, fmt.Errorf("change event without table or type (key %q)", d.RoutingKey)
	}
	return ev, nil
}
