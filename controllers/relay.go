package controllers

import (
	"context"

	"servicehub/broker"
	"servicehub/models"

	"go.uber.org/zap"
)

// OnServiceMessage relays a service response to its caller. The response is
// relayed only if it is the first one recorded for its serhub_request_id.
func (h *Hub) OnServiceMessage(ctx context.Context, d broker.Delivery) error {
	resp, err := models.Decode[models.ServiceResponse](d.Body)
	if err != nil {
		return err
	}
	if err := resp.CheckIDs(); err != nil {
		return models.NewError(models.KindDecode, "ServiceResponse", err)
	}
	log := h.log.With(
		zap.String("serhub_request_id", resp.SerhubRequestID),
		zap.String("status", resp.Status))

	claimed, err := h.store.ClaimResponse(ctx, resp)
	if err != nil {
		log.Warn("response not saved, dropping it", zap.Error(err))
		return models.NewError(models.KindPersistence, "ServiceResponse", err)
	}
	if !claimed {
		log.Info("late response dropped, request already answered")
		return nil
	}

	if err := h.sendToClient(ctx, d, resp); err != nil {
		return err
	}
	log.Debug("response relayed")
	return nil
}
