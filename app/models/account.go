package models

import "time"

const (
	AccountStateActive = "active"
	AccountStateClosed = "closed"
)

// Account mirrors a remote billing-provider account. All mirrored columns are
// owned by the reconciliation engine; local writes outside a sync will be
// overwritten by the next sync.
type Account struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Weak reference to a local user resolved via the configured resolver.
	// No FK constraint: the user row may live in another system entirely.
	UserID *uint `gorm:"uniqueIndex;default:null" json:"user_id,omitempty"`

	AccountCode string `gorm:"type:varchar(50);not null;uniqueIndex" json:"account_code"`
	State       string `gorm:"type:varchar(20);not null;default:'active';index" json:"state"`

	Username    string `gorm:"type:varchar(50);default:''" json:"username"`
	Email       string `gorm:"type:varchar(100);default:''" json:"email"`
	CcEmails    string `gorm:"type:text" json:"cc_emails"` // comma-separated
	FirstName   string `gorm:"type:varchar(50);default:''" json:"first_name"`
	LastName    string `gorm:"type:varchar(50);default:''" json:"last_name"`
	CompanyName string `gorm:"type:varchar(50);default:''" json:"company_name"`
	VatNumber   string `gorm:"type:varchar(50);default:''" json:"vat_number"`

	TaxExempt         *bool `gorm:"default:null" json:"tax_exempt,omitempty"`
	HasPastDueInvoice *bool `gorm:"default:null" json:"has_past_due_invoice,omitempty"`

	AcceptLanguage   string `gorm:"type:varchar(6);default:''" json:"accept_language"`
	HostedLoginToken string `gorm:"type:varchar(40);default:''" json:"-"`

	// Remote timestamps, as reported by the provider.
	RemoteCreatedAt *time.Time `gorm:"type:timestamp;default:null" json:"remote_created_at,omitempty"`
	RemoteUpdatedAt *time.Time `gorm:"type:timestamp;default:null" json:"remote_updated_at,omitempty"`
	ClosedAt        *time.Time `gorm:"type:timestamp;default:null" json:"closed_at,omitempty"`

	// Set by the engine after every successful pull, used to find accounts
	// that have not been reconciled in a while.
	LastSyncedAt *time.Time `gorm:"type:timestamp;default:null" json:"last_synced_at,omitempty"`

	BillingInfo   *BillingInfo   `gorm:"foreignKey:AccountID" json:"billing_info,omitempty"`
	Subscriptions []Subscription `gorm:"foreignKey:AccountID" json:"subscriptions,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the account is open on the provider side.
func (a *Account) IsActive() bool {
	return a.State == AccountStateActive
}

// HasBillingInfo reports whether a billing-info child row is loaded.
func (a *Account) HasBillingInfo() bool {
	return a.BillingInfo != nil && a.BillingInfo.ID != 0
}
