package broker

import (
	"context"
	"errors"
	"fmt"

	"servicehub/config"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const delayedExchangeKind = "x-delayed-message"

// Conn owns the broker connection. Consumers each get their own channel;
// all publishing goes through the single Publisher channel.
type Conn struct {
	conn *amqp.Connection
	log  *zap.Logger
}

// Dial connects to the broker, retrying with exponential backoff.
func Dial(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Conn, error) {
	var conn *amqp.Connection
	op := func() error {
		var err error
		conn, err = amqp.Dial(cfg.AMQPURL())
		if err != nil {
			log.Warn("broker connection attempt failed", zap.Error(err))
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(cfg.ConnectRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("could not connect to broker: %w", err)
	}
	return &Conn{conn: conn, log: log}, nil
}

func (c *Conn) IsClosed() bool { return c.conn.IsClosed() }

func (c *Conn) Close() error { return c.conn.Close() }

// Binding ties a queue to an exchange.
type Binding struct {
	Queue      string
	Exchange   string
	RoutingKey string
}

// Topology lists everything declared at startup.
type Topology struct {
	Exchange        string
	ExchangeType    string
	DelayedExchange string
	Bindings        []Binding
}

// NewTopology derives the hub topology from configuration. Every queue is
// bound with its own name as routing key.
func NewTopology(cfg *config.Config) Topology {
	onMain := func(q string) Binding { return Binding{Queue: q, Exchange: cfg.Exchange, RoutingKey: q} }
	return Topology{
		Exchange:        cfg.Exchange,
		ExchangeType:    cfg.ExchangeType,
		DelayedExchange: cfg.DelayedExchange,
		Bindings: []Binding{
			onMain(cfg.RequestQueue),
			onMain(cfg.ServiceResponseQueue),
			onMain(cfg.FailTableQueue),
			{Queue: cfg.TimeoutQueue, Exchange: cfg.DelayedExchange, RoutingKey: cfg.TimeoutQueue},
		},
	}
}

// Declare creates the exchanges and queues and binds them. It is idempotent.
func (c *Conn) Declare(t Topology) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(t.Exchange, t.ExchangeType, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	delayedArgs := amqp.Table{"x-delayed-type": "direct"}
	if err := ch.ExchangeDeclare(t.DelayedExchange, delayedExchangeKind, true, false, false, false, delayedArgs); err != nil {
		return fmt.Errorf("declare delayed exchange %s: %w", t.DelayedExchange, err)
	}
	for _, b := range t.Bindings {
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.RoutingKey, b.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Exchange, err)
		}
		c.log.Info("queue bound", zap.String("queue", b.Queue), zap.String("exchange", b.Exchange))
	}
	return nil
}

// ErrExchangeNotFound is returned by the exchange check for missing exchanges.
var ErrExchangeNotFound = errors.New("exchange not found")

// CheckExchange passively declares name on a throwaway channel. A missing
// exchange closes only that channel.
func (c *Conn) CheckExchange(name string) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open check channel: %w", err)
	}
	return checkExchange(ch, name, c.log)
}

type passiveChannel interface {
	ExchangeDeclarePassive(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Close() error
}

func checkExchange(ch passiveChannel, name string, log *zap.Logger) error {
	defer func() {
		// The broker has already closed the channel after a 404.
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			log.Debug("check channel close failed", zap.String("exchange", name), zap.Error(err))
		}
	}()
	err := ch.ExchangeDeclarePassive(name, amqp.ExchangeDirect, true, false, false, false, nil)
	if err != nil {
		var amqpErr *amqp.Error
		if errors.As(err, &amqpErr) && amqpErr.Code == amqp.NotFound {
			return fmt.Errorf("%s: %w", name, ErrExchangeNotFound)
		}
		return fmt.Errorf("check exchange %s: %w", name, err)
	}
	return nil
}

// ErrNacked is returned when the broker negatively acknowledges a publish.
var ErrNacked = errors.New("publish not confirmed by broker")

type confirmChannel struct {
	ch *amqp.Channel
}

// ConfirmChannels opens publisher channels in confirm mode on c.
func (c *Conn) ConfirmChannels() ChannelOpener {
	return func() (Channel, error) {
		ch, err := c.conn.Channel()
		if err != nil {
			return nil, err
		}
		if err := ch.Confirm(false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("enable confirms: %w", err)
		}
		return &confirmChannel{ch: ch}, nil
	}
}

func (c *confirmChannel) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	dc, err := c.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return err
	}
	ok, err := dc.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNacked
	}
	return nil
}

func (c *confirmChannel) Close() error { return c.ch.Close() }
