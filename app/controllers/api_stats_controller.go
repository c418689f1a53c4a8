package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/RecurFox/app/models"
)

// HandleGetStats reports mirror-wide counts, useful as a cron health check:
// a growing failed_webhooks number or a stagnant account count means the
// mirror is drifting from the provider.
func HandleGetStats(c *fiber.Ctx) error {
	r := repos()

	accountsTotal, err := r.Account.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database_error"})
	}
	accountsActive, err := r.Account.CountByState(models.AccountStateActive)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database_error"})
	}
	subsTotal, err := r.Subscription.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database_error"})
	}
	subsActive, err := r.Subscription.CountByState(models.SubscriptionStateActive)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database_error"})
	}
	paymentsTotal, err := r.Payment.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database_error"})
	}
	failedWebhooks, err := r.WebhookEvent.CountFailed()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database_error"})
	}

	return c.JSON(fiber.Map{
		"accounts": fiber.Map{
			"total":  accountsTotal,
			"active": accountsActive,
			"closed": accountsTotal - accountsActive,
		},
		"subscriptions": fiber.Map{
			"total":  subsTotal,
			"active": subsActive,
		},
		"payments": fiber.Map{
			"total": paymentsTotal,
		},
		"failed_webhooks": failedWebhooks,
	})
}
