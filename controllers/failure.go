package controllers

import (
	"context"

	"servicehub/broker"
	"servicehub/models"

	"go.uber.org/zap"
)

// OnFailMessage handles the fail-table queue.
func (h *Hub) OnFailMessage(ctx context.Context, d broker.Delivery) error {
	e, err := models.Decode[models.MappedError](d.Body)
	if err != nil {
		return err
	}
	if err := e.CheckIDs(); err != nil {
		return models.NewError(models.KindDecode, "MappedError", err)
	}
	h.RecordFailure(ctx, e)
	return nil
}

// RecordFailure persists e. A failed insert is logged and otherwise ignored.
func (h *Hub) RecordFailure(ctx context.Context, e *models.MappedError) {
	if err := h.store.SaveFailure(ctx, e); err != nil {
		h.log.Warn("failure record not saved",
			zap.String("serhub_request_id", e.SerhubRequestID),
			zap.Error(err))
	}
}
