package controllers

import (
	"context"
	"errors"
	"time"

	"servicehub/database"
	"servicehub/middlewares"
	"servicehub/models"
	"servicehub/utils"

	"github.com/gofiber/fiber/v2"
)

// OperatorStore holds the status API accounts.
type OperatorStore interface {
	GetOperator(ctx context.Context, name string) (*models.Operator, error)
	SaveOperator(ctx context.Context, op *models.Operator) error
}

// Auth issues tokens for the status API.
type Auth struct {
	operators OperatorStore
	secret    []byte
	ttl       time.Duration
}

func NewAuth(operators OperatorStore, secret []byte, ttl time.Duration) *Auth {
	return &Auth{operators: operators, secret: secret, ttl: ttl}
}

type loginInput struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (a *Auth) Login(c *fiber.Ctx) error {
	var data loginInput
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid input")
	}
	utils.TrimStrings(&data)
	if data.Name == "" || data.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Name and password are required")
	}

	op, err := a.operators.GetOperator(c.UserContext(), data.Name)
	if errors.Is(err, database.ErrNotFound) {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return err
	}
	if err := op.ComparePassword(data.Password); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := middlewares.GenerateJWT(a.secret, op.Id, a.ttl)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "status api not configured")
	}
	return c.JSON(fiber.Map{
		"token":      token,
		"expires_in": int(a.ttl.Seconds()),
	})
}

// CreateOperator stores name with a hashed password, replacing the password
// of an existing account.
func CreateOperator(ctx context.Context, operators OperatorStore, name, password string) error {
	if name == "" || password == "" {
		return errors.New("operator name and password are required")
	}
	op := &models.Operator{Name: name}
	if err := op.SetPassword(password); err != nil {
		return err
	}
	return operators.SaveOperator(ctx, op)
}
