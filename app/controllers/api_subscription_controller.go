package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/RecurFox/app/models"
	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HandleListSubscriptions returns mirrored subscriptions with pagination.
func HandleListSubscriptions(c *fiber.Ctx) error {
	offset, limit := pagination(c)

	repo := repos().Subscription
	subs, err := repo.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load subscriptions"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count subscriptions"})
	}

	items := make([]fiber.Map, 0, len(subs))
	for i := range subs {
		items = append(items, subscriptionSummary(&subs[i]))
	}
	return c.JSON(fiber.Map{"subscriptions": items, "total": total, "offset": offset, "limit": limit})
}

// HandleGetSubscription returns one mirrored subscription by its remote uuid.
func HandleGetSubscription(c *fiber.Ctx) error {
	sub, err := repos().Subscription.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Subscription not mirrored"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load subscription"})
	}
	return c.JSON(subscriptionDetail(sub))
}

// HandleSubscriptionSync triggers a pull reconciliation for one subscription
// (its account is synced first so the link can be established).
func HandleSubscriptionSync(c *fiber.Ctx) error {
	uuid := c.Params("uuid")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sub, err := newMirrorService().SyncSubscription(ctx, uuid)
	if err != nil {
		if recurly.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "The provider does not know this subscription"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "sync_failed"})
	}

	return c.JSON(fiber.Map{"ok": true, "subscription": subscriptionSummary(sub)})
}

func subscriptionSummary(s *models.Subscription) fiber.Map {
	return fiber.Map{
		"uuid":                 s.UUID,
		"state":                s.State,
		"plan_code":            s.PlanCode,
		"plan_name":            s.PlanName,
		"quantity":             s.Quantity,
		"unit_amount_in_cents": s.UnitAmountInCents,
		"currency":             s.Currency,
		"live":                 s.IsLive(),
	}
}

func subscriptionDetail(s *models.Subscription) fiber.Map {
	addOns := make([]fiber.Map, 0, len(s.AddOns))
	for _, a := range s.AddOns {
		addOns = append(addOns, fiber.Map{
			"add_on_code":          a.AddOnCode,
			"quantity":             a.Quantity,
			"unit_amount_in_cents": a.UnitAmountInCents,
		})
	}

	return fiber.Map{
		"uuid":                      s.UUID,
		"account_id":                s.AccountID,
		"state":                     s.State,
		"plan_code":                 s.PlanCode,
		"plan_name":                 s.PlanName,
		"quantity":                  s.Quantity,
		"unit_amount_in_cents":      s.UnitAmountInCents,
		"currency":                  s.Currency,
		"collection_method":         s.CollectionMethod,
		"live":                      s.IsLive(),
		"cancellable":               s.IsCancellable(),
		"in_trial":                  s.IsInTrial(),
		"activated_at":              formatTimePtr(s.ActivatedAt),
		"canceled_at":               formatTimePtr(s.CanceledAt),
		"expires_at":                formatTimePtr(s.ExpiresAt),
		"current_period_started_at": formatTimePtr(s.CurrentPeriodStartedAt),
		"current_period_ends_at":    formatTimePtr(s.CurrentPeriodEndsAt),
		"trial_started_at":          formatTimePtr(s.TrialStartedAt),
		"trial_ends_at":             formatTimePtr(s.TrialEndsAt),
		"add_ons":                   addOns,
	}
}
