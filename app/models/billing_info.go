package models

import "time"

// BillingInfo holds the masked payment-method details of an account. The row
// is owned by its Account and deleted when the provider stops exposing
// billing info for the account. Full card numbers are never stored, only the
// metadata the provider returns.
type BillingInfo struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AccountID uint `gorm:"not null;uniqueIndex" json:"account_id"`

	FirstName string `gorm:"type:varchar(50);default:''" json:"first_name"`
	LastName  string `gorm:"type:varchar(50);default:''" json:"last_name"`
	Company   string `gorm:"type:varchar(50);default:''" json:"company"`

	Address1 string `gorm:"type:varchar(200);default:''" json:"address1"`
	Address2 string `gorm:"type:varchar(200);default:''" json:"address2"`
	City     string `gorm:"type:varchar(100);default:''" json:"city"`
	State    string `gorm:"type:varchar(50);default:''" json:"state"`
	Zip      string `gorm:"type:varchar(50);default:''" json:"zip"`
	Country  string `gorm:"type:varchar(5);default:''" json:"country"`
	Phone    string `gorm:"type:varchar(50);default:''" json:"phone"`

	VatNumber        string `gorm:"type:varchar(16);default:''" json:"vat_number"`
	IPAddress        string `gorm:"type:varchar(45);default:''" json:"-"`
	IPAddressCountry string `gorm:"type:varchar(5);default:''" json:"-"`

	// Credit card billing type.
	CardType string `gorm:"type:varchar(50);default:''" json:"card_type"`
	Month    *int   `gorm:"default:null" json:"month,omitempty"`
	Year     *int   `gorm:"default:null" json:"year,omitempty"`
	LastFour string `gorm:"type:varchar(4);default:''" json:"last_four"`

	// PayPal billing type.
	PaypalBillingAgreementID string `gorm:"type:varchar(100);default:''" json:"paypal_billing_agreement_id"`

	RemoteUpdatedAt *time.Time `gorm:"type:timestamp;default:null" json:"remote_updated_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BillingType derives the payment method kind from the stored metadata.
func (b *BillingInfo) BillingType() string {
	if b.PaypalBillingAgreementID != "" {
		return "paypal"
	}
	return "credit_card"
}
