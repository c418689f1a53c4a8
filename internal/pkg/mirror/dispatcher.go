package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"github.com/ManuelReschke/RecurFox/app/models"
	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
)

// Dispatcher routes parsed push notifications to the engine. Payload field
// values are advisory only; every route re-fetches the named entity from the
// provider, so stale or reordered deliveries converge on the same state.
type Dispatcher struct {
	service *Service
}

func NewDispatcher(service *Service) *Dispatcher {
	return &Dispatcher{service: service}
}

// IngestOutcome classifies what Ingest did with one raw push payload, so
// transport code can map it onto a response without re-parsing anything.
type IngestOutcome int

const (
	IngestProcessed IngestOutcome = iota
	IngestDuplicate
	IngestBadPayload
	IngestUnknownEvent
	IngestSyncFailed
	IngestStoreFailed
)

// Ingest records one raw push payload, dedups it and dispatches it. The
// provider sends no delivery id, so the payload digest is the dedup key:
// identical retries of an already processed delivery are acknowledged
// without work, while retries of a delivery whose processing failed are run
// again — the provider retries precisely because we answered with an error.
func (d *Dispatcher) Ingest(ctx context.Context, payload []byte) (IngestOutcome, error) {
	notification, parseErr := recurly.ParseNotification(payload)
	eventType := ""
	if notification != nil {
		eventType = notification.Type
	}

	digest := sha256.Sum256(payload)
	created, stored, err := d.service.repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		EventID:   hex.EncodeToString(digest[:]),
		EventType: eventType,
		Payload:   string(payload),
	})
	if err != nil {
		return IngestStoreFailed, err
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		return IngestDuplicate, nil
	}

	if parseErr != nil {
		_ = d.service.repo.MarkWebhookEventProcessed(stored.ID, parseErr.Error())
		if errors.Is(parseErr, recurly.ErrUnknownNotification) {
			return IngestUnknownEvent, parseErr
		}
		return IngestBadPayload, parseErr
	}

	if err := d.Dispatch(ctx, notification); err != nil {
		_ = d.service.repo.MarkWebhookEventProcessed(stored.ID, err.Error())
		return IngestSyncFailed, err
	}

	_ = d.service.repo.MarkWebhookEventProcessed(stored.ID, "")
	return IngestProcessed, nil
}

// Dispatch runs the sync operation a notification calls for. It is safe to
// call with duplicate deliveries: replaying a notification re-pulls current
// remote state and writes nothing new.
func (d *Dispatcher) Dispatch(ctx context.Context, n *recurly.Notification) error {
	log.Printf("[Mirror] dispatching %s for account %s", n.Type, n.AccountCode())

	switch n.Kind {
	case recurly.KindSubscription:
		if uuid := n.SubscriptionUUID(); uuid != "" {
			_, err := d.service.SyncSubscription(ctx, uuid)
			return err
		}
		// No uuid in the payload: fall back to reconciling the whole
		// account so the change is not lost.
		_, err := d.service.SyncFullAccount(ctx, n.AccountCode())
		return err

	case recurly.KindAccount:
		_, err := d.service.SyncAccount(ctx, n.AccountCode())
		return err

	case recurly.KindPayment:
		transactionID := n.TransactionID()
		if transactionID == "" {
			return fmt.Errorf("mirror: %s names no transaction", n.Type)
		}
		_, err := d.service.SyncPayment(ctx, transactionID, n.TransactionMessage())
		return err

	default:
		return fmt.Errorf("mirror: no route for notification %s", n.Type)
	}
}
