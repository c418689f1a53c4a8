package controllers

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"strings"
	"time"

	"github.com/ManuelReschke/RecurFox/internal/pkg/env"
	"github.com/ManuelReschke/RecurFox/internal/pkg/mirror"
	"github.com/gofiber/fiber/v2"
)

// HandleRecurlyWebhook receives provider push notifications. The payload is
// treated as advisory: after authentication and dedup the named entity is
// re-fetched from the API, so replayed or reordered deliveries are harmless.
func HandleRecurlyWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	if status := checkWebhookAuth(c); status != fiber.StatusOK {
		if status == fiber.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="webhooks"`)
		}
		return c.Status(status).JSON(fiber.Map{"error": "unauthorized"})
	}

	if len(strings.TrimSpace(string(rawBody))) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty_payload"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	outcome, _ := mirror.NewDispatcher(newMirrorService()).Ingest(ctx, rawBody)
	switch outcome {
	case mirror.IngestDuplicate:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	case mirror.IngestUnknownEvent:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown_notification"})
	case mirror.IngestBadPayload:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	case mirror.IngestSyncFailed:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "sync_failed"})
	case mirror.IngestStoreFailed:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}
}

// checkWebhookAuth validates the HTTP Basic credentials the provider is
// configured to send. An empty RECURLY_WEBHOOK_AUTH disables the check for
// setups that authenticate at the proxy instead. Comparison is constant
// time so credential bytes cannot be probed via response timing.
func checkWebhookAuth(c *fiber.Ctx) int {
	expected := env.GetEnv("RECURLY_WEBHOOK_AUTH", "")
	if expected == "" {
		return fiber.StatusOK
	}

	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return fiber.StatusUnauthorized
	}
	const prefix = "Basic "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return fiber.StatusUnauthorized
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return fiber.StatusUnauthorized
	}

	if subtle.ConstantTimeCompare(decoded, []byte(expected)) != 1 {
		return fiber.StatusForbidden
	}
	return fiber.StatusOK
}
