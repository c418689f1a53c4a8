package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/RecurFox/app/models"
)

// HandleListWebhookEvents lists received push notifications newest first,
// with a count of deliveries whose processing failed.
func HandleListWebhookEvents(c *fiber.Ctx) error {
	offset, limit := pagination(c)

	repo := repos().WebhookEvent
	events, err := repo.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database_error"})
	}
	failed, err := repo.CountFailed()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "database_error"})
	}

	items := make([]fiber.Map, 0, len(events))
	for i := range events {
		items = append(items, webhookEventSummary(&events[i]))
	}

	return c.JSON(fiber.Map{
		"events":       items,
		"failed_total": failed,
	})
}

func webhookEventSummary(event *models.WebhookEvent) fiber.Map {
	return fiber.Map{
		"id":               event.ID,
		"event_id":         event.EventID,
		"event_type":       event.EventType,
		"processed_at":     formatTimePtr(event.ProcessedAt),
		"processing_error": event.ProcessingError,
		"received_at":      event.CreatedAt,
	}
}
