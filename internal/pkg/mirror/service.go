package mirror

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ManuelReschke/RecurFox/app/models"
	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
)

// Provider is the remote API surface the engine pulls authoritative state
// from. *recurly.Client satisfies it; tests inject fakes.
type Provider interface {
	GetAccount(ctx context.Context, accountCode string) (*recurly.Resource, error)
	GetSubscription(ctx context.Context, uuid string) (*recurly.Resource, error)
	GetTransaction(ctx context.Context, transactionID string) (*recurly.Resource, error)
	GetInvoiceForTransaction(ctx context.Context, transaction *recurly.Resource) (*recurly.Resource, error)
	ListAccountSubscriptions(ctx context.Context, accountCode string) ([]*recurly.Resource, error)
	GetTokenResult(ctx context.Context, token string) (*recurly.Resource, error)
}

// Service is the reconciliation engine: every operation pulls fresh state
// from the provider and upserts it into the local mirror. Local rows are
// never treated as authoritative.
type Service struct {
	repo     Repository
	provider Provider
	resolver UserResolver
}

func NewService(repo Repository, provider Provider, resolver UserResolver) *Service {
	return &Service{repo: repo, provider: provider, resolver: resolver}
}

// SyncAccount pulls one account (including its billing info) and mirrors it.
// Billing info missing from a successful fetch is authoritative absence: the
// local billing-info row is deleted.
func (s *Service) SyncAccount(ctx context.Context, accountCode string) (*models.Account, error) {
	res, err := s.provider.GetAccount(ctx, accountCode)
	if err != nil {
		return nil, fmt.Errorf("sync account %s: %w", accountCode, err)
	}
	return s.applyAccount(res)
}

func (s *Service) applyAccount(res *recurly.Resource) (*models.Account, error) {
	account, changed, err := Modelify(res, accountSchema, nil, s.repo.AccountByCode)
	if err != nil {
		return nil, err
	}

	if account.UserID == nil && s.resolver != nil {
		user, err := s.resolver(account.AccountCode, account)
		if err != nil {
			return nil, fmt.Errorf("resolve user for account %s: %w", account.AccountCode, err)
		}
		if user != nil {
			account.UserID = &user.ID
			changed++
		}
	}

	if changed > 0 {
		if err := s.repo.SaveAccount(account); err != nil {
			return nil, err
		}
	}

	if err := s.applyBillingInfo(res.First("billing_info"), account); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.TouchAccountSynced(account.ID, now); err != nil {
		return nil, err
	}
	account.LastSyncedAt = &now
	return account, nil
}

func (s *Service) applyBillingInfo(res *recurly.Resource, account *models.Account) error {
	existing, err := s.repo.BillingInfoByAccountID(account.ID)
	if err != nil {
		return err
	}

	if res == nil {
		// The fetch succeeded and exposed no billing info, so the provider
		// no longer has any.
		if existing != nil {
			log.Printf("[Mirror] account %s lost its billing info, deleting local row", account.AccountCode)
			return s.repo.DeleteBillingInfoByAccountID(account.ID)
		}
		return nil
	}

	info, changed, err := Modelify(res, billingInfoSchema, existing, nil)
	if err != nil {
		return err
	}
	if info.AccountID != account.ID {
		info.AccountID = account.ID
		changed++
	}
	if changed > 0 {
		return s.repo.SaveBillingInfo(info)
	}
	return nil
}

// SyncSubscription pulls one subscription by uuid and mirrors it, syncing
// its account first so the foreign key has a row to point at.
func (s *Service) SyncSubscription(ctx context.Context, uuid string) (*models.Subscription, error) {
	res, err := s.provider.GetSubscription(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("sync subscription %s: %w", uuid, err)
	}

	accountCode := subscriptionAccountCode(res)
	if accountCode == "" {
		return nil, fmt.Errorf("sync subscription %s: remote record names no account", uuid)
	}
	account, err := s.SyncAccount(ctx, accountCode)
	if err != nil {
		return nil, err
	}
	return s.applySubscription(res, account)
}

func (s *Service) applySubscription(res *recurly.Resource, account *models.Account) (*models.Subscription, error) {
	normalizeSubscription(res)

	sub, changed, err := Modelify(res, subscriptionSchema, nil, s.repo.SubscriptionByUUID)
	if err != nil {
		return nil, err
	}
	if sub.AccountID == nil || *sub.AccountID != account.ID {
		sub.AccountID = &account.ID
		changed++
	}
	if snapshot := res.XML(); sub.RawXML != snapshot {
		sub.RawXML = snapshot
		changed++
	}
	if changed > 0 {
		if err := s.repo.SaveSubscription(sub); err != nil {
			return nil, err
		}
	}

	if err := s.applyAddOns(res.Nested["subscription_add_ons"], sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// applyAddOns upserts the remote add-on set and removes local add-ons the
// remote record no longer carries.
func (s *Service) applyAddOns(remote []*recurly.Resource, sub *models.Subscription) error {
	local, err := s.repo.AddOnsBySubscriptionID(sub.ID)
	if err != nil {
		return err
	}
	byCode := make(map[string]*models.SubscriptionAddOn, len(local))
	for i := range local {
		byCode[local[i].AddOnCode] = &local[i]
	}

	seen := make(map[string]bool, len(remote))
	for _, res := range remote {
		code, _ := res.Get("add_on_code")
		if code == "" {
			continue
		}
		seen[code] = true

		addOn, changed, err := Modelify(res, addOnSchema, byCode[code], nil)
		if err != nil {
			return err
		}
		if addOn.SubscriptionID != sub.ID {
			addOn.SubscriptionID = sub.ID
			changed++
		}
		if changed > 0 {
			if err := s.repo.SaveAddOn(addOn); err != nil {
				return err
			}
		}
	}

	for _, addOn := range local {
		if !seen[addOn.AddOnCode] {
			if err := s.repo.DeleteAddOn(addOn.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// SyncFullAccount mirrors an account together with its complete current
// subscription collection. Local subscriptions the remote collection no
// longer contains are deleted, so the local set ends up exactly matching
// the remote one.
func (s *Service) SyncFullAccount(ctx context.Context, accountCode string) (*models.Account, error) {
	account, err := s.SyncAccount(ctx, accountCode)
	if err != nil {
		return nil, err
	}

	remote, err := s.provider.ListAccountSubscriptions(ctx, accountCode)
	if err != nil {
		return nil, fmt.Errorf("sync subscriptions for account %s: %w", accountCode, err)
	}

	seen := make(map[string]bool, len(remote))
	for _, res := range remote {
		sub, err := s.applySubscription(res, account)
		if err != nil {
			return nil, err
		}
		seen[sub.UUID] = true
	}

	local, err := s.repo.SubscriptionsByAccountID(account.ID)
	if err != nil {
		return nil, err
	}
	for _, sub := range local {
		if !seen[sub.UUID] {
			log.Printf("[Mirror] subscription %s vanished from account %s, deleting local row", sub.UUID, accountCode)
			if err := s.repo.DeleteSubscription(sub.ID); err != nil {
				return nil, err
			}
		}
	}
	return account, nil
}

// SyncPayment pulls one transaction and mirrors it as a payment. message is
// the free-text detail carried only by push notifications; pass "" when
// syncing from the API. The account is synced first so the payment can be
// linked, but a transaction naming an unknown account is still stored with
// a nil account reference.
func (s *Service) SyncPayment(ctx context.Context, transactionID, message string) (*models.Payment, error) {
	res, err := s.provider.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("sync payment %s: %w", transactionID, err)
	}
	return s.applyPayment(ctx, res, message)
}

func (s *Service) applyPayment(ctx context.Context, res *recurly.Resource, message string) (*models.Payment, error) {
	normalizeTransaction(res)

	payment, changed, err := Modelify(res, paymentSchema, nil, s.repo.PaymentByTransactionID)
	if err != nil {
		return nil, err
	}

	if accountCode := transactionAccountCode(res); accountCode != "" {
		account, err := s.SyncAccount(ctx, accountCode)
		if err != nil {
			if !recurly.IsNotFound(err) {
				return nil, err
			}
			// The account vanished upstream; mirror the payment anyway and
			// link it to the local row if one survives.
			log.Printf("[Mirror] transaction %s names unknown account %s, mirroring payment unlinked", payment.TransactionID, accountCode)
			account, err = s.repo.AccountByCode(accountCode)
			if err != nil {
				return nil, err
			}
		}
		if account != nil && (payment.AccountID == nil || *payment.AccountID != account.ID) {
			payment.AccountID = &account.ID
			changed++
		}
	}

	// The transactions API omits the invoice number; backfill it from the
	// invoice link when we do not have it yet.
	if payment.InvoiceID == "" {
		invoice, err := s.provider.GetInvoiceForTransaction(ctx, res)
		if err != nil && !recurly.IsNotFound(err) {
			return nil, err
		}
		if invoice != nil {
			if number, _ := invoice.Get("invoice_number"); number != "" {
				payment.InvoiceID = number
				changed++
			}
		}
	}

	if message != "" && payment.Message != message {
		payment.Message = message
		changed++
	}
	if snapshot := res.XML(); payment.RawXML != snapshot {
		payment.RawXML = snapshot
		changed++
	}

	if changed > 0 {
		if err := s.repo.SavePayment(payment); err != nil {
			return nil, err
		}
	}
	return payment, nil
}

// ImportTokenResult resolves a client-side form token, records it and syncs
// whatever the token produced.
func (s *Service) ImportTokenResult(ctx context.Context, token string) (*models.Token, error) {
	res, err := s.provider.GetTokenResult(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("import token: %w", err)
	}

	row := &models.Token{
		Token:  token,
		Kind:   res.Name,
		RawXML: res.XML(),
	}

	switch res.Name {
	case models.TokenKindSubscription:
		uuid, _ := res.Get("uuid")
		row.Identifier = uuid
		sub, err := s.SyncSubscription(ctx, uuid)
		if err != nil {
			return nil, err
		}
		row.AccountID = sub.AccountID
	case models.TokenKindBillingInfo:
		accountCode := billingInfoAccountCode(res)
		if accountCode != "" {
			account, err := s.SyncAccount(ctx, accountCode)
			if err != nil {
				return nil, err
			}
			row.AccountID = &account.ID
			row.Identifier = accountCode
		}
	case models.TokenKindInvoice:
		number, _ := res.Get("invoice_number")
		row.Identifier = number
	default:
		return nil, fmt.Errorf("import token: unexpected result type %q", res.Name)
	}

	if err := s.repo.SaveToken(row); err != nil {
		return nil, err
	}
	return row, nil
}

// normalizeSubscription flattens the nested plan element into the flat
// attributes the schema maps.
func normalizeSubscription(res *recurly.Resource) {
	plan := res.First("plan")
	if plan == nil {
		return
	}
	if code, ok := plan.Get("plan_code"); ok {
		res.Attrs["plan_code"] = recurly.Attr{Value: code}
	}
	if name, ok := plan.Get("name"); ok {
		res.Attrs["plan_name"] = recurly.Attr{Value: name}
	}
}

// normalizeTransaction maps the API's uuid (and the push payloads' id) onto
// the transaction_id attribute the schema maps, plus the invoice number when
// the payload happens to carry it inline.
func normalizeTransaction(res *recurly.Resource) {
	if _, ok := res.Get("transaction_id"); !ok {
		if v, ok := res.Get("uuid"); ok && v != "" {
			res.Attrs["transaction_id"] = recurly.Attr{Value: v}
		} else if v, ok := res.Get("id"); ok && v != "" {
			res.Attrs["transaction_id"] = recurly.Attr{Value: v}
		}
	}
	if _, ok := res.Get("invoice_id"); !ok {
		if v, ok := res.Get("invoice_number"); ok && v != "" {
			res.Attrs["invoice_id"] = recurly.Attr{Value: v}
		}
	}
}

// subscriptionAccountCode extracts the owning account's code from the
// subscription's nested account or account link.
func subscriptionAccountCode(res *recurly.Resource) string {
	if account := res.First("account"); account != nil {
		if code, _ := account.Get("account_code"); code != "" {
			return code
		}
	}
	return accountCodeFromHref(res.Links["account"])
}

func transactionAccountCode(res *recurly.Resource) string {
	return subscriptionAccountCode(res)
}

func billingInfoAccountCode(res *recurly.Resource) string {
	if code, _ := res.Get("account_code"); code != "" {
		return code
	}
	return accountCodeFromHref(res.Links["account"])
}

// accountCodeFromHref pulls the account code out of an
// /accounts/{account_code} style href.
func accountCodeFromHref(href string) string {
	if href == "" {
		return ""
	}
	trimmed := strings.TrimRight(href, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return trimmed[idx+1:]
}
