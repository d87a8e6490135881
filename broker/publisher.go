package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"servicehub/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Channel is a publish-capable broker channel. Publish returns once the
// broker has confirmed the message.
type Channel interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error
	Close() error
}

// ChannelOpener opens a fresh publish channel.
type ChannelOpener func() (Channel, error)

// ErrPublisherClosed is returned for publishes after Close.
var ErrPublisherClosed = errors.New("publisher closed")

type publishItem struct {
	ctx    context.Context
	msg    Message
	result chan error
}

// Publisher is the single writer on the publish channel. Handlers on any
// goroutine call Publish; one internal goroutine owns the channel and
// performs publishes one at a time, in arrival order.
type Publisher struct {
	open          ChannelOpener
	checkExchange func(name string) error
	breaker       *gobreaker.CircuitBreaker
	log           *zap.Logger

	reqCh     chan *publishItem
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	ch Channel // owned by loop
}

type PublisherOption func(*Publisher)

// WithExchangeCheck sets the function used for messages with CheckExchange.
func WithExchangeCheck(check func(name string) error) PublisherOption {
	return func(p *Publisher) { p.checkExchange = check }
}

// NewPublisher starts the publisher goroutine. queueSize bounds how many
// publishes may wait for the writer; <= 0 uses a default.
func NewPublisher(open ChannelOpener, queueSize int, log *zap.Logger, opts ...PublisherOption) *Publisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	p := &Publisher{
		open:  open,
		log:   log,
		reqCh: make(chan *publishItem, queueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "broker-publish",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			// A nack is the broker answering, not the broker being gone.
			return err == nil || errors.Is(err, ErrNacked)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	for _, opt := range opts {
		opt(p)
	}
	go p.loop()
	return p
}

// Publish hands msg to the writer goroutine and waits for the outcome.
// Failures are publish-class errors.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	closed := models.NewError(models.KindPublish, "", ErrPublisherClosed)
	select {
	case <-p.quit:
		return closed
	default:
	}

	item := &publishItem{ctx: ctx, msg: msg, result: make(chan error, 1)}
	select {
	case p.reqCh <- item:
	case <-p.quit:
		return closed
	case <-ctx.Done():
		return models.NewError(models.KindPublish, "", ctx.Err())
	}
	select {
	case err := <-item.result:
		return err
	case <-p.done:
		select {
		case err := <-item.result:
			return err
		default:
			return closed
		}
	case <-ctx.Done():
		return models.NewError(models.KindPublish, "", ctx.Err())
	}
}

// Close stops accepting publishes, fails the ones still queued and closes
// the channel.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() { close(p.quit) })
	<-p.done
}

func (p *Publisher) loop() {
	defer close(p.done)
	for {
		select {
		case item := <-p.reqCh:
			item.result <- p.handle(item)
		case <-p.quit:
			for {
				select {
				case item := <-p.reqCh:
					item.result <- models.NewError(models.KindPublish, "", ErrPublisherClosed)
				default:
					p.resetChannel()
					return
				}
			}
		}
	}
}

func (p *Publisher) handle(item *publishItem) error {
	if err := item.ctx.Err(); err != nil {
		return models.NewError(models.KindPublish, "", err)
	}
	msg := item.msg
	if msg.CheckExchange && p.checkExchange != nil {
		if err := p.checkExchange(msg.Exchange); err != nil {
			return models.NewError(models.KindPublish, "", err)
		}
	}

	_, err := p.breaker.Execute(func() (interface{}, error) {
		if p.ch == nil {
			ch, err := p.open()
			if err != nil {
				return nil, err
			}
			p.ch = ch
		}
		err := p.ch.Publish(item.ctx, msg.Exchange, msg.RoutingKey, msg.publishing())
		if err != nil && !errors.Is(err, ErrNacked) {
			// The channel may be dead; reopen on the next publish.
			p.resetChannel()
		}
		return nil, err
	})
	if err != nil {
		p.log.Warn("publish failed",
			zap.String("exchange", msg.Exchange), zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		return models.NewError(models.KindPublish, "", err)
	}
	return nil
}

func (p *Publisher) resetChannel() {
	if p.ch == nil {
		return
	}
	if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		p.log.Debug("close publish channel", zap.Error(err))
	}
	p.ch = nil
}
