package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader is the transport header carrying the webhook signature.
const SignatureHeader = "Stripe-Signature"

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY,required"`
	PublishableKey string `env:"STRIPE_PUBLISHABLE_KEY,required"`
	WebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements Provider for Stripe.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a new Stripe billing provider. Missing key or
// webhook secret is a constructor error so misconfiguration surfaces before
// the service accepts traffic.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

// CreateCheckoutSession creates a subscription-mode checkout session.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AllowPromotionCodes:      stripe.Bool(true),
	}
	params.Context = ctx

	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	// Metadata goes on the subscription record, not the session: the session
	// object is not queryable after completion, the subscription is.
	if len(req.SubscriptionMetadata) > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.SubscriptionMetadata,
		}
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProvider, fmt.Errorf("create checkout session: %w", err))
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyNotification verifies the signature over the raw payload and
// normalizes the event. Verification failure is the trust boundary: nothing
// from an unverified payload is returned.
func (p *StripeProvider) VerifyNotification(payload []byte, signature string) (*Notification, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, errors.Join(ErrVerificationFailed, err)
	}

	n := &Notification{EventType: string(event.Type)}
	if n.EventType != EventCheckoutCompleted {
		return n, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, errors.Join(ErrProvider, fmt.Errorf("decode checkout session event: %w", err))
	}

	n.SessionID = sess.ID
	if sess.Subscription != nil {
		n.SubscriptionID = sess.Subscription.ID
	}
	if sess.Customer != nil {
		n.CustomerID = sess.Customer.ID
	}
	return n, nil
}

// Subscription re-fetches a subscription with payment method and customer
// expanded, so the payment-instrument fallback chain has everything a single
// call can provide.
func (p *StripeProvider) Subscription(ctx context.Context, id string) (*SubscriptionRecord, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("default_payment_method")
	params.AddExpand("customer.invoice_settings.default_payment_method")

	sub, err := p.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, errors.Join(ErrProvider, fmt.Errorf("retrieve subscription %s: %w", id, err))
	}

	return newSubscriptionRecord(sub), nil
}

// ListSubscriptions returns all of a customer's subscriptions regardless of status.
func (p *StripeProvider) ListSubscriptions(ctx context.Context, customerID string) ([]SubscriptionRecord, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(100)

	var records []SubscriptionRecord
	iter := p.api.Subscriptions.List(params)
	for iter.Next() {
		records = append(records, *newSubscriptionRecord(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Join(ErrProvider, fmt.Errorf("list subscriptions for %s: %w", customerID, err))
	}
	return records, nil
}

// CreateSubscription creates a subscription, always under an idempotency key.
func (p *StripeProvider) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionRecord, error) {
	if req.IdempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	params := &stripe.SubscriptionParams{
		Customer:             stripe.String(req.CustomerID),
		DefaultPaymentMethod: stripe.String(req.PaymentMethodID),
	}
	params.Context = ctx
	params.Metadata = req.Metadata
	params.SetIdempotencyKey(req.IdempotencyKey)

	for _, item := range req.Items {
		params.Items = append(params.Items, &stripe.SubscriptionItemsParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	sub, err := p.api.Subscriptions.New(params)
	if err != nil {
		return nil, errors.Join(ErrProvider, fmt.Errorf("create subscription: %w", err))
	}
	return newSubscriptionRecord(sub), nil
}

// Customer fetches a customer with its default payment method expanded.
func (p *StripeProvider) Customer(ctx context.Context, id string) (*CustomerRecord, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	params.AddExpand("invoice_settings.default_payment_method")

	cust, err := p.api.Customers.Get(id, params)
	if err != nil {
		return nil, errors.Join(ErrProvider, fmt.Errorf("retrieve customer %s: %w", id, err))
	}

	rec := &CustomerRecord{ID: cust.ID}
	if cust.InvoiceSettings != nil && cust.InvoiceSettings.DefaultPaymentMethod != nil {
		rec.DefaultPaymentMethod = cust.InvoiceSettings.DefaultPaymentMethod.ID
	}
	return rec, nil
}

func newSubscriptionRecord(sub *stripe.Subscription) *SubscriptionRecord {
	rec := &SubscriptionRecord{
		ID:       sub.ID,
		Metadata: sub.Metadata,
	}
	if sub.DefaultPaymentMethod != nil {
		rec.DefaultPaymentMethod = sub.DefaultPaymentMethod.ID
	}
	if sub.Customer != nil {
		rec.CustomerID = sub.Customer.ID
		if sub.Customer.InvoiceSettings != nil && sub.Customer.InvoiceSettings.DefaultPaymentMethod != nil {
			rec.CustomerDefaultPaymentMethod = sub.Customer.InvoiceSettings.DefaultPaymentMethod.ID
		}
	}
	return rec
}
