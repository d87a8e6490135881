package controllers

import (
	"context"
	"errors"
	"strings"

	"servicehub/broker"
	"servicehub/database"
	"servicehub/middlewares"
	"servicehub/models"

	"go.uber.org/zap"
)

// OnClientMessage handles the request queue: validate, enrich, dispatch.
func (h *Hub) OnClientMessage(ctx context.Context, d broker.Delivery) error {
	req, err := h.Intake(ctx, d)
	if err != nil {
		return err
	}
	return h.Dispatch(ctx, d, req)
}

// Intake turns a raw client request into a dispatchable Request. Invalid
// requests are answered with RequestValidationError before any registry
// lookup and come back as validation errors.
func (h *Hub) Intake(ctx context.Context, d broker.Delivery) (*models.Request, error) {
	in, err := models.Decode[models.InboundRequest](d.Body)
	if err != nil {
		// Without a decodable target there is nobody to answer.
		return nil, err
	}

	app, err := in.DecodeApplication()
	if err != nil {
		return nil, h.reject(ctx, d, "Application", app, in.Target, []string{err.Error()})
	}
	if err := h.validateOrReject(ctx, d, "Application", app, app, in.Target); err != nil {
		return nil, err
	}

	svc, err := h.store.GetService(ctx, app.ServiceID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, h.reject(ctx, d, "Service", app, in.Target, []string{"service_id: service is not registered"})
	}
	if err != nil {
		return nil, models.NewError(models.KindPersistence, "Service", err)
	}

	info := models.NewDispatchInfo(*svc, h.now()).ServiceInfo()
	if err := h.validateOrReject(ctx, d, "ServiceInfo", info, app, in.Target); err != nil {
		return nil, err
	}
	return models.NewRequest(app, in.Person, info, in.Target), nil
}

// validateOrReject validates v. On failure the caller has already been sent
// a RequestValidationError when it returns.
func (h *Hub) validateOrReject(ctx context.Context, d broker.Delivery, model string, v any, app models.Application, target models.ReplyTarget) error {
	err := h.validator.ValidateStruct(v)
	if err == nil {
		return nil
	}
	return h.reject(ctx, d, model, app, target, middlewares.Messages(err))
}

func (h *Hub) reject(ctx context.Context, d broker.Delivery, model string, app models.Application, target models.ReplyTarget, reasons []string) error {
	resp := models.NewRejection(app, target, reasons, h.now())
	h.log.Info("request rejected",
		zap.String("model", model),
		zap.String("application_id", app.ApplicationID),
		zap.Strings("reasons", reasons))

	invalid := models.NewError(models.KindValidation, model, errors.New(strings.Join(reasons, "; ")))
	if err := h.sendToClient(ctx, d, resp); err != nil {
		return errors.Join(invalid, err)
	}
	return invalid
}
