package broker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"servicehub/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one delivery. Returned errors are logged; the message is
// acked either way and never redelivered by the hub.
type Handler func(ctx context.Context, d Delivery) error

// Route ties a queue to its handler.
type Route struct {
	Name    string
	Queue   string
	Handler Handler
}

// ErrDeliveriesClosed means the broker closed the consumer channel.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Consume opens a dedicated channel for route and serves it until ctx is done
// or the channel closes.
func (c *Conn) Consume(ctx context.Context, route Route, prefetch int) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("%s: open channel: %w", route.Name, err)
	}
	defer ch.Close()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("%s: qos: %w", route.Name, err)
	}
	deliveries, err := ch.Consume(route.Queue, route.Name, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: consume %s: %w", route.Name, route.Queue, err)
	}
	c.log.Info("consumer started", zap.String("consumer", route.Name), zap.String("queue", route.Queue))
	return Serve(ctx, deliveries, route, c.log)
}

// Serve handles deliveries one at a time until ctx is done or deliveries is
// closed. A failing or panicking handler never stops the loop.
func Serve(ctx context.Context, deliveries <-chan amqp.Delivery, route Route, log *zap.Logger) error {
	log = log.With(zap.String("consumer", route.Name))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s: %w", route.Name, ErrDeliveriesClosed)
			}
			handleOne(ctx, d, route.Handler, log)
			if err := d.Ack(false); err != nil {
				log.Error("ack failed", zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(err))
			}
		}
	}
}

func handleOne(ctx context.Context, d amqp.Delivery, h Handler, log *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic",
				zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
	}()
	if err := h(ctx, fromAMQP(d)); err != nil {
		log.Error("handler failed",
			zap.String("kind", errorKind(err).String()),
			zap.String("correlation_id", d.CorrelationId),
			zap.Error(err))
	}
}

func errorKind(err error) models.Kind {
	var e *models.Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return models.KindUnknown
}
