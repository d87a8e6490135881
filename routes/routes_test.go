package routes

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"servicehub/config"
	"servicehub/controllers"
	"servicehub/database"
	"servicehub/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRegister(t *testing.T) {
	secret := []byte("test-secret")
	store := database.NewMemoryStore()
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler(zaptest.NewLogger(t))})
	Register(app,
		controllers.NewStatus(store, map[string]controllers.Check{"postgres": func(context.Context) error { return nil }}),
		controllers.NewAuth(store, secret, time.Hour),
		secret)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	path := "/api/requests/" + uuid.NewString()
	resp, err = app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := middlewares.GenerateJWT(secret, "ops", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestConsumers(t *testing.T) {
	cfg := &config.Config{
		RequestQueue:         "req",
		ServiceResponseQueue: "resp",
		TimeoutQueue:         "timeout",
		FailTableQueue:       "fail",
	}
	hub := controllers.NewHub(cfg, database.NewMemoryStore(), nil, middlewares.NewValidator(cfg), zaptest.NewLogger(t))

	routes := Consumers(cfg, hub)
	require.Len(t, routes, 4)
	queues := make([]string, 0, len(routes))
	for _, r := range routes {
		assert.NotNil(t, r.Handler)
		assert.NotEmpty(t, r.Name)
		queues = append(queues, r.Queue)
	}
	assert.Equal(t, []string{"req", "resp", "timeout", "fail"}, queues)
}
