package provision

import "errors"

var (
	// ErrAuthenticationFailed indicates the notification signature did not
	// verify. The event is rejected without any side effects.
	ErrAuthenticationFailed = errors.New("notification authentication failed")

	// ErrNoPaymentInstrument indicates no payment instrument could be
	// resolved for the deferred subscription. Fatal for this event; the
	// delivery mechanism should retry.
	ErrNoPaymentInstrument = errors.New("no payment instrument available for deferred add-on subscription")

	// ErrUpstream indicates the billing processor failed while handling the
	// event. Surfaced so the delivery mechanism retries; the retry is safe
	// because creation is idempotent.
	ErrUpstream = errors.New("billing processor request failed")
)
