package controllers

import (
	"context"
	"time"

	"servicehub/broker"
	"servicehub/config"
	"servicehub/middlewares"
	"servicehub/models"

	"go.uber.org/zap"
)

// clientExpiration is the TTL of every client-bound publish.
const clientExpiration = 60 * time.Second

// Registry reads dispatch metadata for a service.
type Registry interface {
	GetService(ctx context.Context, id int32) (*models.Service, error)
}

// Store is everything the handlers persist.
type Store interface {
	Registry
	SaveRequest(ctx context.Context, req *models.Request) error
	// ClaimResponse records resp unless a response for its serhub_request_id
	// exists already. It reports whether this call won.
	ClaimResponse(ctx context.Context, resp *models.ServiceResponse) (bool, error)
	SaveFailure(ctx context.Context, e *models.MappedError) error
}

// Publisher sends one message and waits for the broker's answer.
type Publisher interface {
	Publish(ctx context.Context, msg broker.Message) error
}

// Hub holds the four message handlers and what they share.
type Hub struct {
	cfg       *config.Config
	store     Store
	pub       Publisher
	validator *middlewares.Validator
	log       *zap.Logger
	now       func() time.Time
}

func NewHub(cfg *config.Config, store Store, pub Publisher, v *middlewares.Validator, log *zap.Logger) *Hub {
	return &Hub{
		cfg:       cfg,
		store:     store,
		pub:       pub,
		validator: v,
		log:       log,
		now:       time.Now,
	}
}

// sendToClient publishes resp to the caller's reply target, carrying the
// inbound reply_to and correlation_id.
func (h *Hub) sendToClient(ctx context.Context, d broker.Delivery, resp *models.ServiceResponse) error {
	body, err := models.Encode(resp)
	if err != nil {
		return err
	}
	return h.pub.Publish(ctx, broker.Message{
		Exchange:      resp.Target.Exchange,
		RoutingKey:    resp.Target.RoutingKey,
		Body:          body,
		CorrelationID: d.CorrelationID,
		ReplyTo:       d.ReplyTo,
		AppID:         resp.ApplicationID,
		Expiration:    broker.ExpirationMillis(clientExpiration.Milliseconds()),
	})
}

func requestFields(req *models.Request) []zap.Field {
	return []zap.Field{
		zap.String("serhub_request_id", req.CorrelationID()),
		zap.String("application_id", req.Application.ApplicationID),
		zap.Int32("service_id", req.Application.ServiceID),
	}
}
