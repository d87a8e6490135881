package controllers

import (
	"context"
	"errors"

	"servicehub/broker"
	"servicehub/models"

	"go.uber.org/zap"
)

const (
	timeoutErrorType    = "Service"
	timeoutErrorMessage = "ServiceTimeout"
	timeoutDescription  = "service_timeout"
)

// OnTimeoutMessage handles a delayed request copy. It claims the terminal
// response with a ServiceTimeout row; only the winner publishes the failure
// record and the timeout response.
func (h *Hub) OnTimeoutMessage(ctx context.Context, d broker.Delivery) error {
	req, err := models.Decode[models.Request](d.Body)
	if err != nil {
		return err
	}
	if err := req.CheckIDs(); err != nil {
		return models.NewError(models.KindDecode, "Request", err)
	}
	log := h.log.With(requestFields(req)...)

	resp := models.NewServiceResponse(req, models.StatusServiceTimeout, []string{timeoutDescription}, h.now())
	claimed, err := h.store.ClaimResponse(ctx, resp)
	if err != nil {
		log.Warn("timeout claim failed", zap.Error(err))
		return models.NewError(models.KindPersistence, "ServiceResponse", err)
	}
	if !claimed {
		log.Debug("request already answered")
		return nil
	}

	log.Info("service timed out", zap.Int32("timeout", req.ServiceInfo.ServiceTimeout))
	failure := models.NewMappedError(req, timeoutErrorType, timeoutErrorMessage)
	return errors.Join(
		h.sendFailure(ctx, d, failure),
		h.sendToClient(ctx, d, resp),
	)
}

// sendFailure publishes e to the fail-table queue on the main exchange.
func (h *Hub) sendFailure(ctx context.Context, d broker.Delivery, e *models.MappedError) error {
	body, err := models.Encode(e)
	if err != nil {
		return err
	}
	return h.pub.Publish(ctx, broker.Message{
		Exchange:      h.cfg.Exchange,
		RoutingKey:    h.cfg.FailTableQueue,
		Body:          body,
		CorrelationID: d.CorrelationID,
		ReplyTo:       d.ReplyTo,
	})
}
