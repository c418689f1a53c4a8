package mirror

import (
	"context"
	"time"

	"github.com/ManuelReschke/RecurFox/app/models"
	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
)

// fakeRepo is an in-memory Repository for engine tests. It counts writes so
// tests can assert that unchanged rows are not saved again.
type fakeRepo struct {
	nextID uint

	accounts      map[string]*models.Account
	billingInfos  map[uint]*models.BillingInfo
	subscriptions map[string]*models.Subscription
	addOns        map[uint]*models.SubscriptionAddOn
	payments      map[string]*models.Payment
	users         []*models.User
	tokens        []*models.Token
	events        map[string]*models.WebhookEvent

	accountSaves      int
	billingInfoSaves  int
	subscriptionSaves int
	paymentSaves      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts:      make(map[string]*models.Account),
		billingInfos:  make(map[uint]*models.BillingInfo),
		subscriptions: make(map[string]*models.Subscription),
		addOns:        make(map[uint]*models.SubscriptionAddOn),
		payments:      make(map[string]*models.Payment),
		events:        make(map[string]*models.WebhookEvent),
	}
}

func (f *fakeRepo) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepo) AccountByCode(accountCode string) (*models.Account, error) {
	return f.accounts[accountCode], nil
}

func (f *fakeRepo) SaveAccount(account *models.Account) error {
	if account.ID == 0 {
		account.ID = f.id()
	}
	f.accounts[account.AccountCode] = account
	f.accountSaves++
	return nil
}

func (f *fakeRepo) TouchAccountSynced(accountID uint, at time.Time) error {
	for _, a := range f.accounts {
		if a.ID == accountID {
			t := at
			a.LastSyncedAt = &t
		}
	}
	return nil
}

func (f *fakeRepo) BillingInfoByAccountID(accountID uint) (*models.BillingInfo, error) {
	return f.billingInfos[accountID], nil
}

func (f *fakeRepo) SaveBillingInfo(info *models.BillingInfo) error {
	if info.ID == 0 {
		info.ID = f.id()
	}
	f.billingInfos[info.AccountID] = info
	f.billingInfoSaves++
	return nil
}

func (f *fakeRepo) DeleteBillingInfoByAccountID(accountID uint) error {
	delete(f.billingInfos, accountID)
	return nil
}

func (f *fakeRepo) SubscriptionByUUID(uuid string) (*models.Subscription, error) {
	return f.subscriptions[uuid], nil
}

func (f *fakeRepo) SaveSubscription(sub *models.Subscription) error {
	if sub.ID == 0 {
		sub.ID = f.id()
	}
	f.subscriptions[sub.UUID] = sub
	f.subscriptionSaves++
	return nil
}

func (f *fakeRepo) SubscriptionsByAccountID(accountID uint) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range f.subscriptions {
		if s.AccountID != nil && *s.AccountID == accountID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteSubscription(id uint) error {
	for uuid, s := range f.subscriptions {
		if s.ID == id {
			delete(f.subscriptions, uuid)
		}
	}
	for addOnID, a := range f.addOns {
		if a.SubscriptionID == id {
			delete(f.addOns, addOnID)
		}
	}
	return nil
}

func (f *fakeRepo) AddOnsBySubscriptionID(subscriptionID uint) ([]models.SubscriptionAddOn, error) {
	var out []models.SubscriptionAddOn
	for _, a := range f.addOns {
		if a.SubscriptionID == subscriptionID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) SaveAddOn(addOn *models.SubscriptionAddOn) error {
	if addOn.ID == 0 {
		addOn.ID = f.id()
	}
	f.addOns[addOn.ID] = addOn
	return nil
}

func (f *fakeRepo) DeleteAddOn(id uint) error {
	delete(f.addOns, id)
	return nil
}

func (f *fakeRepo) PaymentByTransactionID(transactionID string) (*models.Payment, error) {
	return f.payments[transactionID], nil
}

func (f *fakeRepo) SavePayment(payment *models.Payment) error {
	if payment.ID == 0 {
		payment.ID = f.id()
	}
	f.payments[payment.TransactionID] = payment
	f.paymentSaves++
	return nil
}

func (f *fakeRepo) UserByName(name string) (*models.User, error) {
	for _, u := range f.users {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) UserByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) SaveUser(user *models.User) error {
	if user.ID == 0 {
		user.ID = f.id()
	}
	f.users = append(f.users, user)
	return nil
}

func (f *fakeRepo) SaveToken(token *models.Token) error {
	if token.ID == 0 {
		token.ID = f.id()
	}
	f.tokens = append(f.tokens, token)
	return nil
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if existing, ok := f.events[event.EventID]; ok {
		return false, existing, nil
	}
	if event.ID == 0 {
		event.ID = f.id()
	}
	f.events[event.EventID] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookEventProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			now := time.Now().UTC()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
		}
	}
	return nil
}

// fakeProvider serves canned resources keyed by identifier.
type fakeProvider struct {
	accounts      map[string]string
	subscriptions map[string]string
	transactions  map[string]string
	invoices      map[string]string // keyed by invoice href
	accountSubs   map[string][]string
	tokenResults  map[string]string

	accountFetches int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts:      make(map[string]string),
		subscriptions: make(map[string]string),
		transactions:  make(map[string]string),
		invoices:      make(map[string]string),
		accountSubs:   make(map[string][]string),
		tokenResults:  make(map[string]string),
	}
}

func (f *fakeProvider) parse(raw, resourceName, key string) (*recurly.Resource, error) {
	if raw == "" {
		return nil, &recurly.NotFoundError{Resource: resourceName, Key: key}
	}
	return recurly.ParseResource([]byte(raw))
}

func (f *fakeProvider) GetAccount(_ context.Context, accountCode string) (*recurly.Resource, error) {
	f.accountFetches++
	return f.parse(f.accounts[accountCode], "account", accountCode)
}

func (f *fakeProvider) GetSubscription(_ context.Context, uuid string) (*recurly.Resource, error) {
	return f.parse(f.subscriptions[uuid], "subscription", uuid)
}

func (f *fakeProvider) GetTransaction(_ context.Context, transactionID string) (*recurly.Resource, error) {
	return f.parse(f.transactions[transactionID], "transaction", transactionID)
}

func (f *fakeProvider) GetInvoiceForTransaction(_ context.Context, transaction *recurly.Resource) (*recurly.Resource, error) {
	href, ok := transaction.Links["invoice"]
	if !ok {
		return nil, &recurly.NotFoundError{Resource: "invoice", Key: "(no link)"}
	}
	return f.parse(f.invoices[href], "invoice", href)
}

func (f *fakeProvider) ListAccountSubscriptions(_ context.Context, accountCode string) ([]*recurly.Resource, error) {
	var out []*recurly.Resource
	for _, raw := range f.accountSubs[accountCode] {
		res, err := recurly.ParseResource([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (f *fakeProvider) GetTokenResult(_ context.Context, token string) (*recurly.Resource, error) {
	return f.parse(f.tokenResults[token], "token", token)
}
