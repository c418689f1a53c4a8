package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

type tokenRequest struct {
	Token string `json:"token" validate:"required,max=40"`
}

// HandleTokenCreate resolves a one-time client-side form token, records it
// and syncs whatever the token produced. Capturing the token synchronously
// means the mirror is current even when the matching webhook is delayed.
func HandleTokenCreate(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "Request body must be JSON"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := newMirrorService().ImportTokenResult(ctx, req.Token)
	if err != nil {
		if recurly.IsNotFound(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unknown_token", "message": "The provider does not know this token"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "token_import_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":      token.Token,
		"kind":       token.Kind,
		"identifier": token.Identifier,
		"account_id": token.AccountID,
	})
}

// HandleGetToken returns a previously imported token and what it resolved to.
func HandleGetToken(c *fiber.Ctx) error {
	token, err := repos().Token.GetByToken(c.Params("token"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Token not recorded"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database_error"})
	}

	return c.JSON(fiber.Map{
		"token":       token.Token,
		"kind":        token.Kind,
		"identifier":  token.Identifier,
		"account_id":  token.AccountID,
		"imported_at": token.CreatedAt,
	})
}
