package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"servicehub/database"
	"servicehub/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusApp(s *Status) *fiber.App {
	app := fiber.New()
	app.Get("/healthz", s.Health)
	app.Get("/api/requests/:id", s.GetRequest)
	return app
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	resp, err := statusApp(NewStatus(nil, map[string]Check{"postgres": ok, "broker": ok})).
		Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = statusApp(NewStatus(nil, map[string]Check{"postgres": ok, "broker": down})).
		Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "ok", got["postgres"])
	assert.Equal(t, "connection refused", got["broker"])
}

func TestGetRequest(t *testing.T) {
	store := database.NewMemoryStore()
	reqID := uuid.NewString()
	claimed, err := store.ClaimResponse(context.Background(), &models.ServiceResponse{
		ApplicationID:   uuid.NewString(),
		SerhubRequestID: reqID,
		ServiceID:       7,
		SystemID:        1,
		Status:          models.StatusServiceTimeout,
	})
	require.NoError(t, err)
	require.True(t, claimed)

	app := statusApp(NewStatus(store, nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/requests/"+reqID, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var row models.ApplicationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&row))
	assert.Equal(t, models.StatusServiceTimeout, row.Status)
	assert.Equal(t, reqID, row.SerhubRequestID.String())

	resp, err = app.Test(httptest.NewRequest("GET", "/api/requests/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/requests/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
