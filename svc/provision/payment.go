package provision

import (
	"context"
	"errors"

	"github.com/dmitrymomot/memberpay/pkg/billing"
)

// instrumentResolver is one strategy for locating a payment instrument for
// the deferred subscription. Returning an empty string without an error means
// the strategy has nothing to offer and the next one is tried.
type instrumentResolver func(ctx context.Context, base *billing.SubscriptionRecord) (string, error)

// instrumentResolvers returns the fallback chain, in order:
//
//  1. the instrument attached to the base record itself,
//  2. the customer-level default captured during the base fetch expansion,
//  3. a fresh customer fetch, covering incomplete earlier expansions.
func (s *Service) instrumentResolvers() []instrumentResolver {
	return []instrumentResolver{
		func(_ context.Context, base *billing.SubscriptionRecord) (string, error) {
			return base.DefaultPaymentMethod, nil
		},
		func(_ context.Context, base *billing.SubscriptionRecord) (string, error) {
			return base.CustomerDefaultPaymentMethod, nil
		},
		func(ctx context.Context, base *billing.SubscriptionRecord) (string, error) {
			cust, err := s.provider.Customer(ctx, base.CustomerID)
			if err != nil {
				return "", errors.Join(ErrUpstream, err)
			}
			return cust.DefaultPaymentMethod, nil
		},
	}
}

// resolveInstrument tries each strategy in order and short-circuits on the
// first non-empty result. All strategies exhausted means the event cannot be
// provisioned; never fabricate partial provisioning.
func (s *Service) resolveInstrument(ctx context.Context, base *billing.SubscriptionRecord) (string, error) {
	for _, resolve := range s.instrumentResolvers() {
		id, err := resolve(ctx, base)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return "", ErrNoPaymentInstrument
}
