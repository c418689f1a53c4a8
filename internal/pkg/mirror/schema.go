package mirror

import (
	"time"

	"github.com/ManuelReschke/RecurFox/app/models"
)

// The static schemas below pin down exactly which remote attributes feed
// which local columns. Attributes the provider sends but the schema does not
// name are ignored; columns the schema does not name are never touched by a
// sync.

var accountSchema = Schema[models.Account]{
	Entity:     "account",
	UniqueAttr: "account_code",
	Fields: []Field[models.Account]{
		StringField("account_code", func(a *models.Account) *string { return &a.AccountCode }),
		EnumField("state", func(a *models.Account) *string { return &a.State }),
		StringField("username", func(a *models.Account) *string { return &a.Username }),
		StringField("email", func(a *models.Account) *string { return &a.Email }),
		StringField("cc_emails", func(a *models.Account) *string { return &a.CcEmails }),
		StringField("first_name", func(a *models.Account) *string { return &a.FirstName }),
		StringField("last_name", func(a *models.Account) *string { return &a.LastName }),
		StringField("company_name", func(a *models.Account) *string { return &a.CompanyName }),
		StringField("vat_number", func(a *models.Account) *string { return &a.VatNumber }),
		BoolPtrField("tax_exempt", func(a *models.Account) **bool { return &a.TaxExempt }),
		BoolPtrField("has_past_due_invoice", func(a *models.Account) **bool { return &a.HasPastDueInvoice }),
		StringField("accept_language", func(a *models.Account) *string { return &a.AcceptLanguage }),
		StringField("hosted_login_token", func(a *models.Account) *string { return &a.HostedLoginToken }),
		TimePtrField("created_at", func(a *models.Account) **time.Time { return &a.RemoteCreatedAt }),
		TimePtrField("updated_at", func(a *models.Account) **time.Time { return &a.RemoteUpdatedAt }),
		TimePtrField("closed_at", func(a *models.Account) **time.Time { return &a.ClosedAt }),
	},
}

// billingInfoSchema has no unique attribute: billing info is only ever
// reached through its account, so the engine supplies the existing row
// itself.
var billingInfoSchema = Schema[models.BillingInfo]{
	Entity: "billing_info",
	Fields: []Field[models.BillingInfo]{
		StringField("first_name", func(b *models.BillingInfo) *string { return &b.FirstName }),
		StringField("last_name", func(b *models.BillingInfo) *string { return &b.LastName }),
		StringField("company", func(b *models.BillingInfo) *string { return &b.Company }),
		StringField("address1", func(b *models.BillingInfo) *string { return &b.Address1 }),
		StringField("address2", func(b *models.BillingInfo) *string { return &b.Address2 }),
		StringField("city", func(b *models.BillingInfo) *string { return &b.City }),
		StringField("state", func(b *models.BillingInfo) *string { return &b.State }),
		StringField("zip", func(b *models.BillingInfo) *string { return &b.Zip }),
		StringField("country", func(b *models.BillingInfo) *string { return &b.Country }),
		StringField("phone", func(b *models.BillingInfo) *string { return &b.Phone }),
		StringField("vat_number", func(b *models.BillingInfo) *string { return &b.VatNumber }),
		StringField("ip_address", func(b *models.BillingInfo) *string { return &b.IPAddress }),
		StringField("ip_address_country", func(b *models.BillingInfo) *string { return &b.IPAddressCountry }),
		StringField("card_type", func(b *models.BillingInfo) *string { return &b.CardType }),
		IntPtrField("month", func(b *models.BillingInfo) **int { return &b.Month }),
		IntPtrField("year", func(b *models.BillingInfo) **int { return &b.Year }),
		StringField("last_four", func(b *models.BillingInfo) *string { return &b.LastFour }),
		StringField("paypal_billing_agreement_id", func(b *models.BillingInfo) *string { return &b.PaypalBillingAgreementID }),
		TimePtrField("updated_at", func(b *models.BillingInfo) **time.Time { return &b.RemoteUpdatedAt }),
	},
}

var subscriptionSchema = Schema[models.Subscription]{
	Entity:     "subscription",
	UniqueAttr: "uuid",
	Fields: []Field[models.Subscription]{
		StringField("uuid", func(s *models.Subscription) *string { return &s.UUID }),
		EnumField("state", func(s *models.Subscription) *string { return &s.State }),
		StringField("plan_code", func(s *models.Subscription) *string { return &s.PlanCode }),
		StringField("plan_name", func(s *models.Subscription) *string { return &s.PlanName }),
		IntPtrField("unit_amount_in_cents", func(s *models.Subscription) **int { return &s.UnitAmountInCents }),
		StringField("currency", func(s *models.Subscription) *string { return &s.Currency }),
		IntField("quantity", func(s *models.Subscription) *int { return &s.Quantity }),
		EnumField("collection_method", func(s *models.Subscription) *string { return &s.CollectionMethod }),
		TimePtrField("activated_at", func(s *models.Subscription) **time.Time { return &s.ActivatedAt }),
		TimePtrField("canceled_at", func(s *models.Subscription) **time.Time { return &s.CanceledAt }),
		TimePtrField("expires_at", func(s *models.Subscription) **time.Time { return &s.ExpiresAt }),
		TimePtrField("updated_at", func(s *models.Subscription) **time.Time { return &s.RemoteUpdatedAt }),
		TimePtrField("current_period_started_at", func(s *models.Subscription) **time.Time { return &s.CurrentPeriodStartedAt }),
		TimePtrField("current_period_ends_at", func(s *models.Subscription) **time.Time { return &s.CurrentPeriodEndsAt }),
		TimePtrField("trial_started_at", func(s *models.Subscription) **time.Time { return &s.TrialStartedAt }),
		TimePtrField("trial_ends_at", func(s *models.Subscription) **time.Time { return &s.TrialEndsAt }),
	},
}

// addOnSchema is keyed by add_on_code only inside one subscription, so the
// engine does the lookup against the parent's add-on set.
var addOnSchema = Schema[models.SubscriptionAddOn]{
	Entity: "subscription_add_on",
	Fields: []Field[models.SubscriptionAddOn]{
		StringField("add_on_code", func(a *models.SubscriptionAddOn) *string { return &a.AddOnCode }),
		IntField("quantity", func(a *models.SubscriptionAddOn) *int { return &a.Quantity }),
		IntPtrField("unit_amount_in_cents", func(a *models.SubscriptionAddOn) **int { return &a.UnitAmountInCents }),
	},
}

var paymentSchema = Schema[models.Payment]{
	Entity:     "payment",
	UniqueAttr: "transaction_id",
	Fields: []Field[models.Payment]{
		StringField("transaction_id", func(p *models.Payment) *string { return &p.TransactionID }),
		StringField("invoice_id", func(p *models.Payment) *string { return &p.InvoiceID }),
		EnumField("action", func(p *models.Payment) *string { return &p.Action }),
		EnumField("status", func(p *models.Payment) *string { return &p.Status }),
		StringField("source", func(p *models.Payment) *string { return &p.Source }),
		IntPtrField("amount_in_cents", func(p *models.Payment) **int { return &p.AmountInCents }),
		TimePtrField("created_at", func(p *models.Payment) **time.Time { return &p.RemoteCreatedAt }),
		StringField("message", func(p *models.Payment) *string { return &p.Message }),
		StringField("reference", func(p *models.Payment) *string { return &p.Reference }),
		StringField("details", func(p *models.Payment) *string { return &p.Details }),
	},
}
