package mirror

import (
	"context"
	"testing"

	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
)

func parseNotification(t *testing.T, raw string) *recurly.Notification {
	t.Helper()
	n, err := recurly.ParseNotification([]byte(raw))
	if err != nil {
		t.Fatalf("parse notification: %v", err)
	}
	return n
}

func TestDispatchSubscriptionNotificationSyncsSubscription(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML
	provider.subscriptions["sub-1"] = subscriptionXML

	n := parseNotification(t, `<new_subscription_notification>
		<account>
			<account_code>alice</account_code>
		</account>
		<subscription>
			<uuid>sub-1</uuid>
			<state>pending</state>
		</subscription>
	</new_subscription_notification>`)

	if err := NewDispatcher(newTestService(repo, provider)).Dispatch(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := repo.subscriptions["sub-1"]
	if sub == nil {
		t.Fatalf("expected subscription mirrored")
	}
	// The payload said "pending"; the API said "active". The API wins.
	if sub.State != "active" {
		t.Fatalf("expected the re-fetched state, got %q", sub.State)
	}
}

func TestDispatchAccountNotificationSyncsAccount(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML

	n := parseNotification(t, `<billing_info_updated_notification>
		<account>
			<account_code>alice</account_code>
		</account>
	</billing_info_updated_notification>`)

	if err := NewDispatcher(newTestService(repo, provider)).Dispatch(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.accounts["alice"] == nil {
		t.Fatalf("expected account mirrored")
	}
}

func TestDispatchPaymentNotificationCarriesMessage(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML
	provider.transactions["tx-1"] = `<transaction href="https://test.recurly.com/v2/transactions/tx-1">
		<account href="https://test.recurly.com/v2/accounts/alice"/>
		<uuid>tx-1</uuid>
		<action>purchase</action>
		<status>success</status>
	</transaction>`

	n := parseNotification(t, `<successful_payment_notification>
		<account>
			<account_code>alice</account_code>
		</account>
		<transaction>
			<id>tx-1</id>
			<action>purchase</action>
			<message>Bogus Gateway: Forced success</message>
		</transaction>
	</successful_payment_notification>`)

	if err := NewDispatcher(newTestService(repo, provider)).Dispatch(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payment := repo.payments["tx-1"]
	if payment == nil {
		t.Fatalf("expected payment mirrored")
	}
	if payment.Message != "Bogus Gateway: Forced success" {
		t.Fatalf("expected the notification message stored, got %q", payment.Message)
	}
}

func TestDispatchPaymentNotificationWithoutTransactionFails(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML

	n := parseNotification(t, `<failed_payment_notification>
		<account>
			<account_code>alice</account_code>
		</account>
	</failed_payment_notification>`)

	if err := NewDispatcher(newTestService(repo, provider)).Dispatch(context.Background(), n); err == nil {
		t.Fatalf("expected an error for a payment event naming no transaction")
	}
}

func TestIngestReprocessesRetryOfFailedDelivery(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()

	payload := []byte(`<new_subscription_notification>
		<account>
			<account_code>alice</account_code>
		</account>
		<subscription>
			<uuid>sub-1</uuid>
		</subscription>
	</new_subscription_notification>`)

	dispatcher := NewDispatcher(newTestService(repo, provider))

	// The provider does not know the subscription yet, so the first
	// delivery fails and the error is recorded on the event row.
	outcome, err := dispatcher.Ingest(context.Background(), payload)
	if outcome != IngestSyncFailed || err == nil {
		t.Fatalf("expected sync failure, got outcome %d err %v", outcome, err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("expected one event row, got %d", len(repo.events))
	}
	for _, event := range repo.events {
		if event.ProcessingError == "" {
			t.Fatalf("expected the failure recorded on the event row")
		}
	}

	// The provider recovers; the byte-identical retry must run again
	// instead of being swallowed as a duplicate.
	provider.accounts["alice"] = accountXML
	provider.subscriptions["sub-1"] = subscriptionXML

	outcome, err = dispatcher.Ingest(context.Background(), payload)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if outcome != IngestProcessed {
		t.Fatalf("expected the retry processed, got outcome %d", outcome)
	}
	if repo.subscriptions["sub-1"] == nil {
		t.Fatalf("expected the retry to mirror the subscription")
	}
	for _, event := range repo.events {
		if event.ProcessingError != "" {
			t.Fatalf("expected the error cleared, got %q", event.ProcessingError)
		}
		if event.ProcessedAt == nil {
			t.Fatalf("expected the event marked processed")
		}
	}
}

func TestIngestAcknowledgesDuplicateOfProcessedDelivery(t *testing.T) {
	repo := newFakeRepo()
	provider := newFakeProvider()
	provider.accounts["alice"] = accountXML

	payload := []byte(`<billing_info_updated_notification>
		<account>
			<account_code>alice</account_code>
		</account>
	</billing_info_updated_notification>`)

	dispatcher := NewDispatcher(newTestService(repo, provider))
	if outcome, err := dispatcher.Ingest(context.Background(), payload); outcome != IngestProcessed || err != nil {
		t.Fatalf("first delivery: outcome %d err %v", outcome, err)
	}
	fetches := provider.accountFetches

	outcome, err := dispatcher.Ingest(context.Background(), payload)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if outcome != IngestDuplicate {
		t.Fatalf("expected duplicate, got outcome %d", outcome)
	}
	if provider.accountFetches != fetches {
		t.Fatalf("expected the duplicate to skip the provider entirely")
	}
	if len(repo.events) != 1 {
		t.Fatalf("expected a single event row, got %d", len(repo.events))
	}
}

func TestIngestRecordsUnknownEvent(t *testing.T) {
	repo := newFakeRepo()
	dispatcher := NewDispatcher(newTestService(repo, newFakeProvider()))

	outcome, err := dispatcher.Ingest(context.Background(), []byte(`<mystery_notification>
		<account><account_code>alice</account_code></account>
	</mystery_notification>`))
	if outcome != IngestUnknownEvent || err == nil {
		t.Fatalf("expected unknown event, got outcome %d err %v", outcome, err)
	}
	for _, event := range repo.events {
		if event.ProcessingError == "" {
			t.Fatalf("expected the parse failure recorded")
		}
	}
}
