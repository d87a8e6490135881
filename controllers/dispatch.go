package controllers

import (
	"context"
	"errors"
	"time"

	"servicehub/broker"
	"servicehub/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dispatch sends req to its service and schedules the delayed timeout copy.
// The audit insert runs alongside the service publish and never fails the
// dispatch.
func (h *Hub) Dispatch(ctx context.Context, d broker.Delivery, req *models.Request) error {
	log := h.log.With(requestFields(req)...)
	info := req.ServiceInfo

	body, err := models.Encode(req)
	if err != nil {
		return err
	}

	var (
		g      errgroup.Group
		pubErr error
	)
	g.Go(func() error {
		if err := h.store.SaveRequest(ctx, req); err != nil {
			log.Warn("request audit not saved", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		pubErr = h.pub.Publish(ctx, broker.Message{
			Exchange:      info.Exchange,
			RoutingKey:    info.RoutingKey,
			Body:          body,
			CorrelationID: d.CorrelationID,
			ReplyTo:       d.ReplyTo,
			Expiration:    broker.ExpirationMillis(info.RemainingMillis(h.now())),
			CheckExchange: true,
		})
		return nil
	})
	_ = g.Wait()

	if pubErr != nil {
		return h.publishFailed(ctx, d, req, pubErr)
	}

	err = h.pub.Publish(ctx, broker.Message{
		Exchange:      h.cfg.DelayedExchange,
		RoutingKey:    h.cfg.TimeoutQueue,
		Body:          body,
		CorrelationID: d.CorrelationID,
		ReplyTo:       d.ReplyTo,
		Delay:         time.Duration(info.DelayMillis()) * time.Millisecond,
	})
	if err != nil {
		log.Error("timeout not scheduled, request has no timeout protection", zap.Error(err))
		return nil
	}
	log.Debug("request dispatched",
		zap.String("exchange", info.Exchange),
		zap.String("routing_key", info.RoutingKey),
		zap.Int32("timeout", info.ServiceTimeout))
	return nil
}

// publishFailed answers the caller with RMQPublishError and records the
// failed dispatch as the request's terminal response.
func (h *Hub) publishFailed(ctx context.Context, d broker.Delivery, req *models.Request, cause error) error {
	log := h.log.With(requestFields(req)...)
	log.Warn("dispatch publish failed", zap.Error(cause))

	resp := models.NewServiceResponse(req, models.StatusPublishError, []string{cause.Error()}, h.now())
	if _, err := h.store.ClaimResponse(ctx, resp); err != nil {
		log.Warn("publish failure not recorded", zap.Error(err))
	}

	failed := models.NewError(models.KindPublish, "Request", cause)
	if err := h.sendToClient(ctx, d, resp); err != nil {
		return errors.Join(failed, err)
	}
	return failed
}
