package recurly

import (
	"errors"
	"fmt"
)

// ErrUnknownNotification marks a push payload whose event name is not part
// of the supported enumeration. The webhook boundary turns it into a 400.
var ErrUnknownNotification = errors.New("recurly: unknown notification type")

// NotificationKind groups event names by the sync operation they trigger.
type NotificationKind int

const (
	// KindSubscription events name an account and usually a subscription.
	KindSubscription NotificationKind = iota
	// KindAccount events name an account only.
	KindAccount
	// KindPayment events name a transaction (and its account).
	KindPayment
)

// notificationKinds is the fixed enumeration of supported push events.
var notificationKinds = map[string]NotificationKind{
	"new_subscription_notification":      KindSubscription,
	"updated_subscription_notification":  KindSubscription,
	"expired_subscription_notification":  KindSubscription,
	"canceled_subscription_notification": KindSubscription,
	"renewed_subscription_notification":  KindSubscription,

	"reactivated_account_notification":   KindAccount,
	"canceled_account_notification":      KindAccount,
	"billing_info_updated_notification":  KindAccount,

	"successful_payment_notification": KindPayment,
	"failed_payment_notification":     KindPayment,
	"successful_refund_notification":  KindPayment,
	"void_payment_notification":       KindPayment,
}

// Notification is a parsed push payload. Per the provider's own guidance the
// embedded field values are advisory only; the dispatcher uses them purely
// to learn which account/subscription/transaction changed and re-fetches the
// authoritative state from the API.
type Notification struct {
	Type string
	Kind NotificationKind

	Account      *Resource
	Subscription *Resource
	Transaction  *Resource

	Raw string
}

// AccountCode returns the account identifier named by the payload.
func (n *Notification) AccountCode() string {
	if n.Account == nil {
		return ""
	}
	v, _ := n.Account.Get("account_code")
	return v
}

// SubscriptionUUID returns the subscription identifier, if the event carries
// one.
func (n *Notification) SubscriptionUUID() string {
	if n.Subscription == nil {
		return ""
	}
	v, _ := n.Subscription.Get("uuid")
	return v
}

// TransactionID returns the transaction identifier, if the event carries
// one. Push payloads use "id" where the API uses "uuid".
func (n *Notification) TransactionID() string {
	if n.Transaction == nil {
		return ""
	}
	if v, ok := n.Transaction.Get("id"); ok && v != "" {
		return v
	}
	v, _ := n.Transaction.Get("uuid")
	return v
}

// TransactionMessage returns the free-text detail that is only ever sent
// with payment notifications.
func (n *Notification) TransactionMessage() string {
	if n.Transaction == nil {
		return ""
	}
	v, _ := n.Transaction.Get("message")
	return v
}

// ParseNotification decodes a push payload into a typed event.
func ParseNotification(payload []byte) (*Notification, error) {
	res, err := ParseResource(payload)
	if err != nil {
		return nil, err
	}

	kind, ok := notificationKinds[res.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotification, res.Name)
	}

	n := &Notification{
		Type:         res.Name,
		Kind:         kind,
		Account:      res.First("account"),
		Subscription: res.First("subscription"),
		Transaction:  res.First("transaction"),
		Raw:          string(payload),
	}
	if n.Account == nil || n.AccountCode() == "" {
		return nil, fmt.Errorf("recurly: notification %s carries no account_code", res.Name)
	}
	return n, nil
}
