package models

import "time"

const (
	PaymentActionVerify   = "verify"
	PaymentActionPurchase = "purchase"
	PaymentActionRefund   = "refund"
)

const (
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
	PaymentStatusVoid    = "void"
)

const (
	PaymentSourceTransaction  = "transaction"
	PaymentSourceSubscription = "subscription"
	PaymentSourceBillingInfo  = "billing_info"
)

// Payment mirrors a remote transaction (purchase, refund or card verify).
// AccountID is nullable: transactions can reference accounts we have not
// mirrored yet, and the engine links them once the account row exists.
type Payment struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	AccountID *uint `gorm:"index;default:null" json:"account_id,omitempty"`

	TransactionID string `gorm:"type:varchar(40);not null;uniqueIndex" json:"transaction_id"`
	InvoiceID     string `gorm:"type:varchar(40);default:'';index" json:"invoice_id"`

	Action string `gorm:"type:varchar(10);not null" json:"action"`
	Status string `gorm:"type:varchar(10);not null;index" json:"status"`
	Source string `gorm:"type:varchar(100);default:''" json:"source"`

	AmountInCents *int `gorm:"default:null" json:"amount_in_cents,omitempty"` // not always cents (i18n)

	RemoteCreatedAt *time.Time `gorm:"type:timestamp;default:null" json:"remote_created_at,omitempty"`

	// Free-text detail only ever delivered with push notifications, never by
	// the transactions API.
	Message string `gorm:"type:varchar(250);default:''" json:"message"`

	Reference string `gorm:"type:varchar(100);default:''" json:"reference"`
	Details   string `gorm:"type:text" json:"details"`
	RawXML    string `gorm:"type:longtext" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
