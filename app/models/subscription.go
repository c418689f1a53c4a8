package models

import "time"

const (
	SubscriptionStateFuture   = "future"
	SubscriptionStateActive   = "active"
	SubscriptionStateCanceled = "canceled"
	SubscriptionStateExpired  = "expired"
)

const (
	CollectionMethodAutomatic = "automatic"
	CollectionMethodManual    = "manual"
)

// SubscriptionLiveStates are the states in which a subscription still grants
// service: "canceled" only means it will not renew at period end, "expired"
// is terminal.
var SubscriptionLiveStates = []string{SubscriptionStateActive, SubscriptionStateCanceled}

// Subscription mirrors a remote subscription. AccountID stays nil until the
// engine links the subscription to its locally persisted account.
type Subscription struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	AccountID *uint `gorm:"index;default:null" json:"account_id,omitempty"`

	UUID string `gorm:"type:varchar(40);not null;uniqueIndex" json:"uuid"`

	State string `gorm:"type:varchar(20);not null;default:'active';index" json:"state"`

	PlanCode string `gorm:"type:varchar(60);default:'';index" json:"plan_code"`
	PlanName string `gorm:"type:varchar(60);default:''" json:"plan_name"`

	UnitAmountInCents *int   `gorm:"default:null" json:"unit_amount_in_cents,omitempty"` // not always cents (i18n)
	Currency          string `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Quantity          int    `gorm:"not null;default:1" json:"quantity"`

	CollectionMethod string `gorm:"type:varchar(20);not null;default:'automatic'" json:"collection_method"`

	ActivatedAt            *time.Time `gorm:"type:timestamp;default:null" json:"activated_at,omitempty"`
	CanceledAt             *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	ExpiresAt              *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	RemoteUpdatedAt        *time.Time `gorm:"type:timestamp;default:null" json:"remote_updated_at,omitempty"`
	CurrentPeriodStartedAt *time.Time `gorm:"type:timestamp;default:null" json:"current_period_started_at,omitempty"`
	CurrentPeriodEndsAt    *time.Time `gorm:"type:timestamp;default:null" json:"current_period_ends_at,omitempty"`
	TrialStartedAt         *time.Time `gorm:"type:timestamp;default:null" json:"trial_started_at,omitempty"`
	TrialEndsAt            *time.Time `gorm:"type:timestamp;default:null" json:"trial_ends_at,omitempty"`

	// Last known full remote representation, kept for audit and debugging.
	RawXML string `gorm:"type:longtext" json:"-"`

	AddOns []SubscriptionAddOn `gorm:"foreignKey:SubscriptionID" json:"add_ons,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsLive reports whether the subscription currently grants service.
func (s *Subscription) IsLive() bool {
	for _, state := range SubscriptionLiveStates {
		if s.State == state {
			return true
		}
	}
	return false
}

// IsCancellable reports whether the subscription can still be canceled.
func (s *Subscription) IsCancellable() bool {
	return s.State == SubscriptionStateFuture || s.State == SubscriptionStateActive
}

// IsInTrial reports whether now falls inside the trial window.
func (s *Subscription) IsInTrial() bool {
	if s.TrialStartedAt == nil || s.TrialEndsAt == nil {
		return false
	}
	now := time.Now()
	return !s.TrialStartedAt.After(now) && s.TrialEndsAt.After(now)
}

// SubscriptionAddOn mirrors one remote add-on line item of a subscription.
type SubscriptionAddOn struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	SubscriptionID uint `gorm:"not null;index:ux_subscription_add_ons_code,unique,priority:1" json:"subscription_id"`

	AddOnCode         string `gorm:"type:varchar(200);not null;index:ux_subscription_add_ons_code,unique,priority:2" json:"add_on_code"`
	Quantity          int    `gorm:"not null;default:1" json:"quantity"`
	UnitAmountInCents *int   `gorm:"default:null" json:"unit_amount_in_cents,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
