package broker

import (
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ContentTypeJSON = "application/json"
	DelayHeader     = "x-delay"
)

// Message is one publish request handed to the Publisher.
type Message struct {
	Exchange   string
	RoutingKey string
	Body       []byte

	CorrelationID string
	ReplyTo       string
	AppID         string
	// Expiration is the per-message TTL in milliseconds, empty for none.
	Expiration string
	// Delay, when positive, is sent as the x-delay header for the delayed exchange.
	Delay time.Duration
	// CheckExchange makes the publisher verify the exchange exists before publishing.
	CheckExchange bool
}

// Delivery is the part of an inbound message the handlers look at.
type Delivery struct {
	Body          []byte
	CorrelationID string
	ReplyTo       string
	Headers       amqp.Table
}

// ExpirationMillis formats a TTL for the expiration property, clamping
// negative values to immediate expiry.
func ExpirationMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms, 10)
}

func (m Message) publishing() amqp.Publishing {
	p := amqp.Publishing{
		ContentType:   ContentTypeJSON,
		DeliveryMode:  amqp.Persistent,
		CorrelationId: m.CorrelationID,
		ReplyTo:       m.ReplyTo,
		AppId:         m.AppID,
		Expiration:    m.Expiration,
		Timestamp:     time.Now(),
		Body:          m.Body,
	}
	if m.Delay > 0 {
		p.Headers = amqp.Table{DelayHeader: m.Delay.Milliseconds()}
	}
	return p
}

func fromAMQP(d amqp.Delivery) Delivery {
	return Delivery{
		Body:          d.Body,
		CorrelationID: d.CorrelationId,
		ReplyTo:       d.ReplyTo,
		Headers:       d.Headers,
	}
}
