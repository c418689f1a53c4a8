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

// HandleListPayments returns mirrored payments with pagination, newest first.
// An invoice_id query filter narrows the list to one invoice's transactions.
func HandleListPayments(c *fiber.Ctx) error {
	offset, limit := pagination(c)
	repo := repos().Payment

	if invoiceID := c.Query("invoice_id"); invoiceID != "" {
		payments, err := repo.GetByInvoiceID(invoiceID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payments"})
		}
		items := make([]fiber.Map, 0, len(payments))
		for i := range payments {
			items = append(items, paymentSummary(&payments[i]))
		}
		return c.JSON(fiber.Map{"payments": items, "total": len(items), "offset": 0, "limit": len(items)})
	}

	payments, err := repo.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payments"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count payments"})
	}

	items := make([]fiber.Map, 0, len(payments))
	for i := range payments {
		items = append(items, paymentSummary(&payments[i]))
	}
	return c.JSON(fiber.Map{"payments": items, "total": total, "offset": offset, "limit": limit})
}

// HandleGetPayment returns one mirrored payment by its remote transaction id.
func HandleGetPayment(c *fiber.Ctx) error {
	payment, err := repos().Payment.GetByTransactionID(c.Params("transaction_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Payment not mirrored"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payment"})
	}
	return c.JSON(paymentDetail(payment))
}

// HandlePaymentSync triggers a pull reconciliation for one transaction.
func HandlePaymentSync(c *fiber.Ctx) error {
	transactionID := c.Params("transaction_id")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payment, err := newMirrorService().SyncPayment(ctx, transactionID, "")
	if err != nil {
		if recurly.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "The provider does not know this transaction"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "sync_failed"})
	}

	return c.JSON(fiber.Map{"ok": true, "payment": paymentSummary(payment)})
}

func paymentSummary(p *models.Payment) fiber.Map {
	return fiber.Map{
		"transaction_id":    p.TransactionID,
		"invoice_id":        p.InvoiceID,
		"action":            p.Action,
		"status":            p.Status,
		"amount_in_cents":   p.AmountInCents,
		"remote_created_at": formatTimePtr(p.RemoteCreatedAt),
	}
}

func paymentDetail(p *models.Payment) fiber.Map {
	return fiber.Map{
		"transaction_id":    p.TransactionID,
		"invoice_id":        p.InvoiceID,
		"account_id":        p.AccountID,
		"action":            p.Action,
		"status":            p.Status,
		"source":            p.Source,
		"amount_in_cents":   p.AmountInCents,
		"message":           p.Message,
		"reference":         p.Reference,
		"details":           p.Details,
		"remote_created_at": formatTimePtr(p.RemoteCreatedAt),
	}
}
