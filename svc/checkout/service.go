// Package checkout builds checkout transactions for a membership purchase
// intent: it validates the selection, resolves catalog prices, decides which
// add-ons ship in the immediate transaction and which are deferred to the
// completion-event handler, and requests transaction creation from the
// billing processor.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/memberpay/pkg/billing"
	"github.com/dmitrymomot/memberpay/pkg/catalog"
	"github.com/dmitrymomot/memberpay/pkg/logger"
)

// Config holds the redirect targets for the hosted checkout page.
type Config struct {
	SuccessURL string `env:"CHECKOUT_SUCCESS_URL,required"`
	CancelURL  string `env:"CHECKOUT_CANCEL_URL,required"`
}

// Intent is a client purchase intent, untrusted until validated.
type Intent struct {
	Plan         string
	BillingCycle string
	AddOns       []string
	Region       string
}

// Result references the created checkout transaction.
type Result struct {
	TransactionID string
	URL           string
}

// Service is the checkout request builder.
type Service struct {
	catalog  *catalog.Catalog
	provider billing.Provider
	cfg      Config
	log      *slog.Logger
}

// NewService creates a checkout Service. Panics on nil dependencies to fail
// fast during initialization.
func NewService(cat *catalog.Catalog, provider billing.Provider, cfg Config, log *slog.Logger) *Service {
	if cat == nil {
		panic("checkout: catalog is required")
	}
	if provider == nil {
		panic("checkout: billing provider is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		catalog:  cat,
		provider: provider,
		cfg:      cfg,
		log:      log.With(logger.Component("checkout")),
	}
}

// CreateTransaction validates the intent and creates a checkout transaction.
//
// Add-ons are deferred as a single unit when the billing cycle is annual and
// at least one add-on was selected: the processor cannot mix the one-time
// annual commitment with monthly add-on pricing in one transaction, and
// splitting the set would leave some add-ons active and some pending. The
// deferred set travels in the transaction's subscription metadata, which is
// the only channel to the completion-event handler.
func (s *Service) CreateTransaction(ctx context.Context, intent Intent) (*Result, error) {
	// Region gate runs before any pricing lookup, unconditionally.
	if !s.catalog.ServesRegion(intent.Region) {
		return nil, ErrIneligibleRegion
	}

	plan, err := catalog.ParsePlan(intent.Plan)
	if err != nil {
		return nil, errors.Join(ErrInvalidSelection, err)
	}
	cycle, err := catalog.ParseBillingCycle(intent.BillingCycle)
	if err != nil {
		return nil, errors.Join(ErrInvalidSelection, err)
	}
	addOns, err := catalog.ParseAddOns(intent.AddOns)
	if err != nil {
		return nil, errors.Join(ErrInvalidSelection, err)
	}

	// Resolve every price up front, including add-ons that end up deferred:
	// a partial catalog must abort before any transaction exists.
	basePrice, err := s.catalog.BasePrice(plan, cycle)
	if err != nil {
		return nil, err
	}
	addOnPrices := make([]billing.LineItem, 0, len(addOns))
	for _, a := range addOns {
		id, err := s.catalog.AddOnPrice(a)
		if err != nil {
			return nil, err
		}
		addOnPrices = append(addOnPrices, billing.LineItem{PriceID: id, Quantity: 1})
	}

	deferred := cycle == catalog.CycleAnnual && len(addOns) > 0

	items := []billing.LineItem{{PriceID: basePrice, Quantity: 1}}
	if !deferred {
		items = append(items, addOnPrices...)
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutSessionRequest{
		Items:                items,
		SubscriptionMetadata: billing.SubscriptionMetadata(plan, cycle, addOns, deferred, intent.Region),
		SuccessURL:           successURL(s.cfg.SuccessURL),
		CancelURL:            s.cfg.CancelURL,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "checkout transaction creation failed", logger.Error(err))
		return nil, errors.Join(ErrUpstream, err)
	}

	s.log.InfoContext(ctx, "checkout transaction created",
		logger.TransactionID(sess.ID),
		slog.String("plan", string(plan)),
		slog.String("billing_cycle", string(cycle)),
		slog.Int("line_items", len(items)),
		slog.Bool("add_ons_deferred", deferred),
	)

	return &Result{TransactionID: sess.ID, URL: sess.URL}, nil
}

// sessionIDTemplate is substituted by the processor on redirect, so the
// success page can look up its own transaction.
const sessionIDTemplate = "{CHECKOUT_SESSION_ID}"

// successURL ensures the redirect target carries the session-ID template.
// Operators may embed it themselves; otherwise it is appended as a query
// parameter.
func successURL(base string) string {
	if strings.Contains(base, sessionIDTemplate) {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "session_id=" + sessionIDTemplate
}

// humanMessage maps a service error to the short reason shown to clients.
func humanMessage(err error) string {
	switch {
	case errors.Is(err, ErrIneligibleRegion):
		return "Membership is currently available only in serviceable regions."
	case errors.Is(err, ErrInvalidSelection):
		return "Invalid plan or billing option."
	default:
		return "Unable to start checkout. Please try again."
	}
}
