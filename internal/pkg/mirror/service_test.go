package mirror

import (
	"context"
	"testing"

	"github.com/ManuelReschke/RecurFox/app/models"
)

const accountXML = `<account href="https://test.recurly.com/v2/accounts/alice">
	<account_code>alice</account_code>
	<state>active</state>
	<username>alice</username>
	<email>alice@example.com</email>
	<first_name>Alice</first_name>
	<billing_info>
		<first_name>Alice</first_name>
		<card_type>Visa</card_type>
		<month type="integer">12</month>
		<year type="integer">2030</year>
		<last_four>1111</last_four>
	</billing_info>
</account>`

const accountWithoutBillingXML = `<account href="https://test.recurly.com/v2/accounts/alice">
	<account_code>alice</account_code>
	<state>active</state>
	<email>alice@example.com</email>
</account>`

const subscriptionXML = `<subscription href="https://test.recurly.com/v2/subscriptions/sub-1">
	<account href="https://test.recurly.com/v2/accounts/alice"/>
	<plan>
		<plan_code>gold</plan_code>
		<name>Gold Plan</name>
	</plan>
	<uuid>sub-1</uuid>
	<state>active</state>
	<unit_amount_in_cents type="integer">1500</unit_amount_in_cents>
	<currency>EUR</currency>
	<quantity type="integer">2</quantity>
	<subscription_add_ons type="array">
		<subscription_add_on>
			<add_on_code>seats</add_on_code>
			<quantity type="integer">3</quantity>
			<unit_amount_in_cents type="integer">200</unit_amount_in_cents>
		</subscription_add_on>
	</subscription_add_ons>
</subscription>`

func newTestService(repo *fakeRepo, provider *fakeProvider) *Service {
	return NewService(repo, provider, DefaultUserResolver(repo))
}

func TestSyncAccountCreatesAccountAndBillingInfo(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML

	account, err := newTestService(repo, provider).SyncAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.ID == 0 || account.AccountCode != "alice" || account.Email != "alice@example.com" {
		t.Fatalf("unexpected account: %+v", account)
	}
	if account.LastSyncedAt == nil {
		t.Fatalf("expected last_synced_at to be set")
	}

	info := repo.billingInfos[account.ID]
	if info == nil {
		t.Fatalf("expected billing info row")
	}
	if info.CardType != "Visa" || info.LastFour != "1111" || info.Month == nil || *info.Month != 12 {
		t.Fatalf("unexpected billing info: %+v", info)
	}
}

func TestSyncAccountSecondRunWritesNothing(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML
	svc := newTestService(repo, provider)

	if _, err := svc.SyncAccount(context.Background(), "alice"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	accountSaves, billingSaves := repo.accountSaves, repo.billingInfoSaves

	if _, err := svc.SyncAccount(context.Background(), "alice"); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if repo.accountSaves != accountSaves || repo.billingInfoSaves != billingSaves {
		t.Fatalf("expected an unchanged account to skip writes (account %d->%d, billing %d->%d)",
			accountSaves, repo.accountSaves, billingSaves, repo.billingInfoSaves)
	}
}

func TestSyncAccountDeletesVanishedBillingInfo(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML
	svc := newTestService(repo, provider)

	account, err := svc.SyncAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if repo.billingInfos[account.ID] == nil {
		t.Fatalf("expected billing info after first sync")
	}

	provider.accounts["alice"] = accountWithoutBillingXML
	if _, err := svc.SyncAccount(context.Background(), "alice"); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if repo.billingInfos[account.ID] != nil {
		t.Fatalf("expected billing info row to be deleted")
	}
}

func TestSyncAccountResolvesLocalUser(t *testing.T) {
	repo := newFakeRepo()
	user := &models.User{Name: "someone-else", Email: "alice@example.com"}
	if err := repo.SaveUser(user); err != nil {
		t.Fatalf("save user: %v", err)
	}
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML

	account, err := newTestService(repo, provider).SyncAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.UserID == nil || *account.UserID != user.ID {
		t.Fatalf("expected account linked to user %d via email fallback, got %v", user.ID, account.UserID)
	}
}

func TestSyncSubscriptionPersistsAccountFirst(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML
	provider.subscriptions["sub-1"] = subscriptionXML

	sub, err := newTestService(repo, provider).SyncSubscription(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.AccountID == nil {
		t.Fatalf("expected subscription linked to an account")
	}
	account := repo.accounts["alice"]
	if account == nil || account.ID != *sub.AccountID {
		t.Fatalf("expected the account row to exist before the subscription points at it")
	}
	if sub.PlanCode != "gold" || sub.PlanName != "Gold Plan" {
		t.Fatalf("expected plan flattened onto the subscription, got %q/%q", sub.PlanCode, sub.PlanName)
	}
	if sub.Quantity != 2 || sub.Currency != "EUR" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if sub.RawXML == "" {
		t.Fatalf("expected a raw snapshot to be stored")
	}

	addOns, _ := repo.AddOnsBySubscriptionID(sub.ID)
	if len(addOns) != 1 || addOns[0].AddOnCode != "seats" || addOns[0].Quantity != 3 {
		t.Fatalf("unexpected add-ons: %+v", addOns)
	}
}

func TestSyncSubscriptionRemovesDroppedAddOns(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML
	provider.subscriptions["sub-1"] = subscriptionXML
	svc := newTestService(repo, provider)

	if _, err := svc.SyncSubscription(context.Background(), "sub-1"); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	provider.subscriptions["sub-1"] = `<subscription href="https://test.recurly.com/v2/subscriptions/sub-1">
		<account href="https://test.recurly.com/v2/accounts/alice"/>
		<uuid>sub-1</uuid>
		<state>active</state>
	</subscription>`
	sub, err := svc.SyncSubscription(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}

	addOns, _ := repo.AddOnsBySubscriptionID(sub.ID)
	if len(addOns) != 0 {
		t.Fatalf("expected dropped add-ons to be deleted, got %+v", addOns)
	}
}

func TestSyncFullAccountRemovesStaleSubscriptions(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML
	provider.subscriptions["sub-1"] = subscriptionXML
	svc := newTestService(repo, provider)

	// Mirror a subscription first, then drop it from the remote collection.
	if _, err := svc.SyncSubscription(context.Background(), "sub-1"); err != nil {
		t.Fatalf("seed sync: %v", err)
	}
	provider.accountSubs["alice"] = []string{`<subscription href="https://test.recurly.com/v2/subscriptions/sub-2">
		<account href="https://test.recurly.com/v2/accounts/alice"/>
		<uuid>sub-2</uuid>
		<state>active</state>
	</subscription>`}

	account, err := svc.SyncFullAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subs, _ := repo.SubscriptionsByAccountID(account.ID)
	if len(subs) != 1 || subs[0].UUID != "sub-2" {
		t.Fatalf("expected the local set to match the remote collection, got %+v", subs)
	}
}

func TestSyncPaymentBackfillsInvoiceAndKeepsMessage(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML
	provider.transactions["tx-1"] = `<transaction href="https://test.recurly.com/v2/transactions/tx-1">
		<account href="https://test.recurly.com/v2/accounts/alice"/>
		<invoice href="https://test.recurly.com/v2/invoices/1001"/>
		<uuid>tx-1</uuid>
		<action>purchase</action>
		<status>success</status>
		<amount_in_cents type="integer">1500</amount_in_cents>
		<reference>ref-9</reference>
	</transaction>`
	provider.invoices["https://test.recurly.com/v2/invoices/1001"] = `<invoice>
		<invoice_number type="integer">1001</invoice_number>
		<state>collected</state>
	</invoice>`

	payment, err := newTestService(repo, provider).SyncPayment(context.Background(), "tx-1", "Declined retry succeeded")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.TransactionID != "tx-1" || payment.Action != models.PaymentActionPurchase {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if payment.InvoiceID != "1001" {
		t.Fatalf("expected invoice backfilled from the invoice link, got %q", payment.InvoiceID)
	}
	if payment.Message != "Declined retry succeeded" {
		t.Fatalf("expected notification message kept, got %q", payment.Message)
	}
	if payment.AccountID == nil {
		t.Fatalf("expected payment linked to its account")
	}

	// Re-syncing from the API (no message) must not erase the stored one.
	again, err := newTestService(repo, provider).SyncPayment(context.Background(), "tx-1", "")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if again.Message != "Declined retry succeeded" {
		t.Fatalf("expected message preserved across API syncs, got %q", again.Message)
	}
}

func TestImportTokenResultSubscription(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML
	provider.subscriptions["sub-1"] = subscriptionXML
	provider.tokenResults["tok-abc"] = subscriptionXML

	token, err := newTestService(repo, provider).ImportTokenResult(context.Background(), "tok-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Kind != models.TokenKindSubscription || token.Identifier != "sub-1" {
		t.Fatalf("unexpected token row: %+v", token)
	}
	if repo.subscriptions["sub-1"] == nil {
		t.Fatalf("expected the token result to trigger a subscription sync")
	}
}

func TestSyncAccountKeepsDistinctAccountsSeparate(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountWithoutBillingXML
	provider.accounts["bob"] = `<account href="https://test.recurly.com/v2/accounts/bob">
		<account_code>bob</account_code>
		<state>active</state>
		<email>bob@example.com</email>
	</account>`

	svc := newTestService(repo, provider)
	alice, err := svc.SyncAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("sync alice: %v", err)
	}
	bob, err := svc.SyncAccount(context.Background(), "bob")
	if err != nil {
		t.Fatalf("sync bob: %v", err)
	}

	if len(repo.accounts) != 2 {
		t.Fatalf("expected two account rows, got %d", len(repo.accounts))
	}
	if alice.ID == bob.ID {
		t.Fatalf("expected distinct rows, both got id %d", alice.ID)
	}
	if alice.AccountCode != "alice" || bob.AccountCode != "bob" {
		t.Fatalf("account codes mangled: %q / %q", alice.AccountCode, bob.AccountCode)
	}
}

func TestSyncPaymentMirrorsTransactionForVanishedAccount(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.transactions["tx-9"] = `<transaction href="https://test.recurly.com/v2/transactions/tx-9">
		<account href="https://test.recurly.com/v2/accounts/ghost"/>
		<uuid>tx-9</uuid>
		<action>purchase</action>
		<status>success</status>
	</transaction>`

	payment, err := newTestService(repo, provider).SyncPayment(context.Background(), "tx-9", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.payments["tx-9"] == nil {
		t.Fatalf("expected payment mirrored despite the missing account")
	}
	if payment.AccountID != nil {
		t.Fatalf("expected no account reference, got %d", *payment.AccountID)
	}
}

func TestSyncPaymentLinksSurvivingLocalAccountRow(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountWithoutBillingXML
	provider.transactions["tx-9"] = `<transaction href="https://test.recurly.com/v2/transactions/tx-9">
		<account href="https://test.recurly.com/v2/accounts/alice"/>
		<uuid>tx-9</uuid>
		<action>purchase</action>
		<status>success</status>
	</transaction>`

	svc := newTestService(repo, provider)
	account, err := svc.SyncAccount(context.Background(), "alice")
	if err != nil {
		t.Fatalf("sync account: %v", err)
	}

	// The provider forgets the account, the local row stays. The payment
	// should still link to it.
	delete(provider.accounts, "alice")
	payment, err := svc.SyncPayment(context.Background(), "tx-9", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.AccountID == nil || *payment.AccountID != account.ID {
		t.Fatalf("expected payment linked to the surviving local row")
	}
}

func TestSyncPaymentMapsDetailText(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountWithoutBillingXML
	provider.transactions["tx-5"] = `<transaction href="https://test.recurly.com/v2/transactions/tx-5">
		<account href="https://test.recurly.com/v2/accounts/alice"/>
		<uuid>tx-5</uuid>
		<action>purchase</action>
		<status>success</status>
		<reference>ref-5512</reference>
		<details>Approved by gateway</details>
	</transaction>`

	payment, err := newTestService(repo, provider).SyncPayment(context.Background(), "tx-5", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.Reference != "ref-5512" || payment.Details != "Approved by gateway" {
		t.Fatalf("expected reference and details mapped, got %q / %q", payment.Reference, payment.Details)
	}
}
