package rabbitmq

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"crustalyst/internal/config"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string // default "/"
	UseTLS   bool   // optional
}

func FromConfig(c config.RabbitMQConfig) Config {
	return Config{Host: c.Host, Port: c.Port, User: c.User, Password: c.Password, VHost: c.VHost}
}

func (c Config) URL() string {
	vhost := c.VHost
	if vhost == "" {
		vhost = "/"
	}
	scheme := "amqp"
	if c.UseTLS {
		scheme = "amqps"
	}
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s", scheme,
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, url.PathEscape(vhost))
}

// confirmation is the broker's answer to one publishing.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type publishFunc func(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)

// channelPublisher publishes with a confirmation bound to the delivery tag, so
// a late ack of a timed-out publish is never taken for another one.
func channelPublisher(ch *amqp.Channel) publishFunc {
	return func(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
		d, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
		if err != nil || d == nil {
			return nil, err
		}
		return d, nil
	}
}

type Client struct {
	cfg Config

	mu      sync.Mutex // guards the fields below across Reconnect
	conn    *amqp.Connection
	ch      *amqp.Channel
	publish publishFunc
}

func (c *Client) Channel() *amqp.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch
}

// NewChannel открывает отдельный канал для consume, чтобы не мешать confirm-каналу.
func (c *Client) NewChannel() (*amqp.Channel, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || conn.IsClosed() {
		return nil, errors.New("rabbitmq connection is closed")
	}
	return conn.Channel()
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Reconnect redials after the connection dropped. A live connection is left
// alone.
func (c *Client) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}
	conn, ch, err := dial(c.cfg)
	if err != nil {
		return err
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	c.conn, c.ch, c.publish = conn, ch, channelPublisher(ch)
	return nil
}

func Dial(cfg Config) (*Client, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, conn: conn, ch: ch, publish: channelPublisher(ch)}, nil
}

func dial(cfg Config) (*amqp.Connection, *amqp.Channel, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	if cfg.UseTLS {
		conn, err = amqp.DialTLS(cfg.URL(), &tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		conn, err = amqp.Dial(cfg.URL())
	}
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	// Включаем publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

// Лёгкая health-проверка соединения
func (c *Client) Ping() error {
	if c == nil {
		return errors.New("rabbitmq connection is closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// DeclareTopology объявляет topic exchange для событий изменений (идемпотентно).
func (c *Client) DeclareTopology(exchange string) error {
	if c == nil {
		return errors.New("nil channel")
	}
	ch := c.Channel()
	if ch == nil {
		return errors.New("nil channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

// Publish публикует сообщение и ждёт ack/nack именно этой публикации.
func (c *Client) Publish(ctx context.Context, exchange, key string,
	body []byte, headers amqp.Table, contentType string, persistent bool) error {

	c.mu.Lock()
	publish := c.publish
	c.mu.Unlock()
	if publish == nil {
		return errors.New("rabbitmq connection is closed")
	}

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}

	conf, err := publish(ctx, exchange, key, amqp.Publishing{
		DeliveryMode: mode,
		ContentType:  contentType,
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         body,
	})
	if err != nil {
		return err
	}
	if conf == nil {
		return nil
	}

	// ждём publisher confirm или отмену контекста
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return errors.New("publish NACK from broker")
	}
	return nil
}

// Binding describes the queue a consumer reads from. An empty Queue with
// Exclusive set gives each process its own server-named queue.
type Binding struct {
	Exchange  string
	Queue     string
	Keys      []string
	Exclusive bool
	Prefetch  int
	Consumer  string
}

// Consume declares and binds the queue on a fresh channel and starts delivery.
// The returned channel is closed by the broker side when ch is closed.
func (c *Client) Consume(b Binding) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := c.NewChannel()
	if err != nil {
		return nil, nil, err
	}
	fail := func(err error) (*amqp.Channel, <-chan amqp.Delivery, error) {
		_ = ch.Close()
		return nil, nil, err
	}

	if err := ch.ExchangeDeclare(b.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("declare exchange %s: %w", b.Exchange, err))
	}
	durable := !b.Exclusive
	q, err := ch.QueueDeclare(b.Queue, durable, b.Exclusive, b.Exclusive, false, nil)
	if err != nil {
		return fail(fmt.Errorf("queue declare %q: %w", b.Queue, err))
	}
	for _, key := range b.Keys {
		if err := ch.QueueBind(q.Name, key, b.Exchange, false, nil); err != nil {
			return fail(fmt.Errorf("queue bind %s -> %s: %w", q.Name, key, err))
		}
	}
	prefetch := b.Prefetch
	if prefetch <= 0 {
		prefetch = 16
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fail(err)
	}
	msgs, err := ch.Consume(q.Name, b.Consumer, false, b.Exclusive, false, false, nil)
	if err != nil {
		return fail(err)
	}
	return ch, msgs, nil
}
