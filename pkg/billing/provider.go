package billing

import "context"

// EventCheckoutCompleted is the normalized event type emitted when a checkout
// transaction completes. Other event types pass through VerifyNotification
// unchanged and are acknowledged without action by the caller.
const EventCheckoutCompleted = "checkout.session.completed"

// Provider defines the operations this service needs from the billing
// processor. Implementations use the official provider SDK and keep
// provider-specific quirks internal; all correctness-relevant guarantees
// (signature verification, idempotent creation) live behind this interface.
type Provider interface {
	// CreateCheckoutSession creates a hosted checkout transaction with the
	// given line items. SubscriptionMetadata is attached to the recurring
	// record created on completion, not to the one-time transaction, because
	// only the recurring record remains queryable afterwards.
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)

	// VerifyNotification authenticates a raw webhook payload against the
	// transport signature header and returns the normalized notification.
	// The payload must be the raw, unparsed request body; parsing before
	// verification would invalidate the signature.
	VerifyNotification(payload []byte, signature string) (*Notification, error)

	// Subscription re-fetches a recurring-billing record directly from the
	// processor, with the default payment method and customer expanded.
	Subscription(ctx context.Context, id string) (*SubscriptionRecord, error)

	// ListSubscriptions returns all recurring-billing records for a customer,
	// regardless of status.
	ListSubscriptions(ctx context.Context, customerID string) ([]SubscriptionRecord, error)

	// CreateSubscription creates a recurring-billing record. The request's
	// idempotency key is mandatory: it is the actual safety net against
	// concurrent redelivery, the duplicate scan is only a fast path.
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionRecord, error)

	// Customer fetches a customer record with its default payment method.
	Customer(ctx context.Context, id string) (*CustomerRecord, error)
}

// LineItem references a catalog price in a transaction or subscription.
type LineItem struct {
	PriceID  string
	Quantity int64
}

// CheckoutSessionRequest contains data needed to create a checkout transaction.
type CheckoutSessionRequest struct {
	Items                []LineItem
	SubscriptionMetadata map[string]string
	SuccessURL           string
	CancelURL            string
}

// CheckoutSession represents a created checkout transaction.
type CheckoutSession struct {
	ID  string // processor's transaction identifier
	URL string // hosted checkout URL
}

// Notification is a verified, normalized processor event.
type Notification struct {
	EventType      string
	SessionID      string // base checkout transaction identifier
	SubscriptionID string // linked recurring record, empty for one-time sales
	CustomerID     string // empty for one-time sales
}

// SubscriptionRecord is a normalized recurring-billing record.
type SubscriptionRecord struct {
	ID                           string
	CustomerID                   string
	Metadata                     map[string]string
	DefaultPaymentMethod         string // instrument attached to the record itself
	CustomerDefaultPaymentMethod string // customer-level default, when expanded
}

// SubscriptionRequest contains data needed to create a recurring-billing record.
type SubscriptionRequest struct {
	CustomerID      string
	PaymentMethodID string
	Items           []LineItem
	Metadata        map[string]string
	IdempotencyKey  string
}

// CustomerRecord is a normalized customer record.
type CustomerRecord struct {
	ID                   string
	DefaultPaymentMethod string
}
