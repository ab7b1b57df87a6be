// Package provision handles completion notifications from the billing
// processor and provisions deferred add-on subscriptions. Delivery is
// at-least-once; exactly-once provisioning is this package's responsibility,
// not the transport's.
package provision

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/memberpay/pkg/billing"
	"github.com/dmitrymomot/memberpay/pkg/catalog"
	"github.com/dmitrymomot/memberpay/pkg/logger"
)

// Classification is the terminal state of a handled notification.
type Classification string

const (
	ClassIgnored     Classification = "ignored"     // irrelevant event type
	ClassSkipped     Classification = "skipped"     // correctly classified no-op
	ClassProvisioned Classification = "provisioned" // deferred subscription created
)

// Skip reasons for ClassSkipped outcomes.
const (
	SkipNotSubscription    = "not-a-subscription"
	SkipNothingDeferred    = "nothing-deferred"
	SkipNoAddOns           = "no-addons"
	SkipAlreadyProvisioned = "already-provisioned"
)

// Outcome describes how a verified notification was classified.
type Outcome struct {
	Classification Classification
	Reason         string // skip reason, or event type for ClassIgnored
	SubscriptionID string // created deferred subscription, when provisioned
}

// Service is the completion event handler.
type Service struct {
	catalog  *catalog.Catalog
	provider billing.Provider
	log      *slog.Logger
}

// NewService creates a provisioning Service. Panics on nil dependencies to
// fail fast during initialization.
func NewService(cat *catalog.Catalog, provider billing.Provider, log *slog.Logger) *Service {
	if cat == nil {
		panic("provision: catalog is required")
	}
	if provider == nil {
		panic("provision: billing provider is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		catalog:  cat,
		provider: provider,
		log:      log.With(logger.Component("provision")),
	}
}

// HandleNotification authenticates and classifies one delivery, provisioning
// the deferred add-on subscription when the transaction calls for it.
//
// Concurrent redeliveries of the same notification are safe through two
// mechanisms: the duplicate scan below narrows the window, and the
// deterministic idempotency token passed to CreateSubscription is the actual
// guarantee. The scan alone has a read-then-act race and must never be
// trusted on its own.
func (s *Service) HandleNotification(ctx context.Context, payload []byte, signature string) (*Outcome, error) {
	n, err := s.provider.VerifyNotification(payload, signature)
	if err != nil {
		s.log.WarnContext(ctx, "notification rejected", logger.Error(err))
		return nil, errors.Join(ErrAuthenticationFailed, err)
	}

	if n.EventType != billing.EventCheckoutCompleted {
		return &Outcome{Classification: ClassIgnored, Reason: n.EventType}, nil
	}

	log := s.log.With(
		logger.TransactionID(n.SessionID),
		logger.CustomerID(n.CustomerID),
	)

	// A one-time, non-subscription transaction carries no recurring record.
	// Irrelevant input, not an error.
	if n.SubscriptionID == "" || n.CustomerID == "" {
		return &Outcome{Classification: ClassSkipped, Reason: SkipNotSubscription}, nil
	}

	// Re-fetch the base record; the event payload may be stale or abbreviated.
	base, err := s.provider.Subscription(ctx, n.SubscriptionID)
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}

	if !billing.DeferredFlag(base.Metadata) {
		return &Outcome{Classification: ClassSkipped, Reason: SkipNothingDeferred}, nil
	}

	addOns, err := billing.DecodeAddOns(base.Metadata[billing.MetaAddOns])
	if err != nil {
		return nil, err
	}
	if len(addOns) == 0 {
		return &Outcome{Classification: ClassSkipped, Reason: SkipNoAddOns}, nil
	}

	// Fast-path duplicate check against redelivery. Not sufficient under
	// concurrency on its own; see the idempotency token below.
	existing, err := s.provider.ListSubscriptions(ctx, base.CustomerID)
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}
	for _, rec := range existing {
		if billing.IsDeferredFor(rec, n.SessionID) {
			log.InfoContext(ctx, "deferred add-ons already provisioned",
				logger.SubscriptionID(rec.ID))
			return &Outcome{Classification: ClassSkipped, Reason: SkipAlreadyProvisioned}, nil
		}
	}

	instrument, err := s.resolveInstrument(ctx, base)
	if err != nil {
		return nil, err
	}

	items := make([]billing.LineItem, 0, len(addOns))
	for _, a := range addOns {
		id, err := s.catalog.AddOnPrice(a)
		if err != nil {
			return nil, err
		}
		items = append(items, billing.LineItem{PriceID: id, Quantity: 1})
	}

	created, err := s.provider.CreateSubscription(ctx, billing.SubscriptionRequest{
		CustomerID:      base.CustomerID,
		PaymentMethodID: instrument,
		Items:           items,
		Metadata:        billing.DeferredMetadata(n.SessionID, base.ID, base.Metadata),
		// The token is derived from the transaction ID, so a retried or
		// concurrent delivery that slips past the scan above still cannot
		// create a second subscription.
		IdempotencyKey: billing.IdempotencyKey(n.SessionID),
	})
	if err != nil {
		return nil, errors.Join(ErrUpstream, err)
	}

	log.InfoContext(ctx, "deferred add-ons provisioned",
		logger.SubscriptionID(created.ID),
		slog.Int("add_ons", len(items)),
	)

	return &Outcome{Classification: ClassProvisioned, SubscriptionID: created.ID}, nil
}
