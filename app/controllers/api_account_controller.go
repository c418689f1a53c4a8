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

// HandleListAccounts returns mirrored accounts with pagination.
func HandleListAccounts(c *fiber.Ctx) error {
	offset, limit := pagination(c)

	repo := repos().Account
	accounts, err := repo.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load accounts"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count accounts"})
	}

	items := make([]fiber.Map, 0, len(accounts))
	for i := range accounts {
		items = append(items, accountSummary(&accounts[i]))
	}
	return c.JSON(fiber.Map{"accounts": items, "total": total, "offset": offset, "limit": limit})
}

// HandleGetAccount returns one mirrored account by its remote code, with
// billing info and subscriptions.
func HandleGetAccount(c *fiber.Ctx) error {
	account, err := repos().Account.GetByCode(c.Params("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not mirrored"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load account"})
	}
	return c.JSON(accountDetail(account))
}

// HandleAccountSync triggers a full pull reconciliation for one account:
// the account row, its billing info and its complete subscription set.
func HandleAccountSync(c *fiber.Ctx) error {
	accountCode := c.Params("code")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	account, err := newMirrorService().SyncFullAccount(ctx, accountCode)
	if err != nil {
		if recurly.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "The provider does not know this account"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "sync_failed"})
	}

	return c.JSON(fiber.Map{"ok": true, "account": accountSummary(account)})
}

// HandleListAccountSubscriptions returns the mirrored subscriptions of one
// account. ?live=1 narrows the set to subscriptions still granting service.
func HandleListAccountSubscriptions(c *fiber.Ctx) error {
	account, err := repos().Account.GetByCode(c.Params("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not mirrored"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load account"})
	}

	var subs []models.Subscription
	if c.QueryBool("live", false) {
		subs, err = repos().Subscription.GetLiveByAccountID(account.ID)
	} else {
		subs, err = repos().Subscription.GetByAccountID(account.ID)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load subscriptions"})
	}

	items := make([]fiber.Map, 0, len(subs))
	for i := range subs {
		items = append(items, subscriptionSummary(&subs[i]))
	}
	return c.JSON(fiber.Map{"account_code": account.AccountCode, "subscriptions": items})
}

// HandleListAccountPayments returns the mirrored payments of one account.
func HandleListAccountPayments(c *fiber.Ctx) error {
	account, err := repos().Account.GetByCode(c.Params("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Account not mirrored"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load account"})
	}

	offset, limit := pagination(c)
	payments, err := repos().Payment.GetByAccountID(account.ID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payments"})
	}

	items := make([]fiber.Map, 0, len(payments))
	for i := range payments {
		items = append(items, paymentSummary(&payments[i]))
	}
	return c.JSON(fiber.Map{"account_code": account.AccountCode, "payments": items, "offset": offset, "limit": limit})
}

func accountSummary(a *models.Account) fiber.Map {
	return fiber.Map{
		"account_code":   a.AccountCode,
		"state":          a.State,
		"email":          a.Email,
		"user_id":        a.UserID,
		"last_synced_at": formatTimePtr(a.LastSyncedAt),
	}
}

func accountDetail(a *models.Account) fiber.Map {
	detail := fiber.Map{
		"account_code":         a.AccountCode,
		"state":                a.State,
		"username":             a.Username,
		"email":                a.Email,
		"cc_emails":            a.CcEmails,
		"first_name":           a.FirstName,
		"last_name":            a.LastName,
		"company_name":         a.CompanyName,
		"vat_number":           a.VatNumber,
		"tax_exempt":           a.TaxExempt,
		"has_past_due_invoice": a.HasPastDueInvoice,
		"user_id":              a.UserID,
		"remote_created_at":    formatTimePtr(a.RemoteCreatedAt),
		"closed_at":            formatTimePtr(a.ClosedAt),
		"last_synced_at":       formatTimePtr(a.LastSyncedAt),
	}

	if a.HasBillingInfo() {
		detail["billing_info"] = fiber.Map{
			"type":       a.BillingInfo.BillingType(),
			"card_type":  a.BillingInfo.CardType,
			"last_four":  a.BillingInfo.LastFour,
			"month":      a.BillingInfo.Month,
			"year":       a.BillingInfo.Year,
			"first_name": a.BillingInfo.FirstName,
			"last_name":  a.BillingInfo.LastName,
			"country":    a.BillingInfo.Country,
		}
	}

	subs := make([]fiber.Map, 0, len(a.Subscriptions))
	for i := range a.Subscriptions {
		subs = append(subs, subscriptionSummary(&a.Subscriptions[i]))
	}
	detail["subscriptions"] = subs
	return detail
}
