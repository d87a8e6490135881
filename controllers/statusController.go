package controllers

import (
	"context"
	"errors"
	"time"

	"servicehub/database"
	"servicehub/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ResponseReader looks up the recorded terminal outcome of a request.
type ResponseReader interface {
	GetResponse(ctx context.Context, serhubRequestID uuid.UUID) (*models.ApplicationResponse, error)
}

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Status serves the health and request-status endpoints.
type Status struct {
	responses ResponseReader
	checks    map[string]Check
}

func NewStatus(responses ResponseReader, checks map[string]Check) *Status {
	return &Status{responses: responses, checks: checks}
}

// Health runs every check; any failure answers 503.
func (s *Status) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := fiber.StatusOK
	result := fiber.Map{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = fiber.StatusServiceUnavailable
			result[name] = err.Error()
			continue
		}
		result[name] = "ok"
	}
	return c.Status(status).JSON(result)
}

// GetRequest returns the terminal response recorded for :id, the
// serhub_request_id.
func (s *Status) GetRequest(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request ID")
	}

	row, err := s.responses.GetResponse(c.UserContext(), id)
	if errors.Is(err, database.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No response recorded yet"})
	}
	if err != nil {
		return err
	}
	return c.JSON(row)
}
