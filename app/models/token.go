package models

import "time"

const (
	TokenKindSubscription = "subscription"
	TokenKindBillingInfo  = "billing_info"
	TokenKindInvoice      = "invoice"
)

// Token links a one-time client-side form result token to the account and the
// remote resource it produced. Capturing the token synchronously avoids
// depending solely on asynchronous webhook delivery.
type Token struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	AccountID *uint `gorm:"index;default:null" json:"account_id,omitempty"`

	Token      string `gorm:"type:varchar(40);not null;uniqueIndex" json:"token"`
	Kind       string `gorm:"type:varchar(12);not null" json:"kind"`
	Identifier string `gorm:"type:varchar(40);not null" json:"identifier"`
	RawXML     string `gorm:"type:longtext" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
