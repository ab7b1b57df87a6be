package billing

import "errors"

var (
	// ErrMissingAPIKey indicates the processor API key is not configured.
	ErrMissingAPIKey = errors.New("billing provider API key is required")
	// ErrMissingWebhookSecret indicates the webhook signing secret is not
	// configured. Fatal at startup: the trust boundary cannot exist without it.
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	// ErrVerificationFailed indicates the notification signature did not verify.
	ErrVerificationFailed = errors.New("notification signature verification failed")
	// ErrMissingIdempotencyKey indicates a subscription-create request without
	// an idempotency key. Creation without one is never safe under redelivery.
	ErrMissingIdempotencyKey = errors.New("idempotency key is required for subscription creation")
	// ErrProvider wraps failures returned by the processor itself.
	ErrProvider = errors.New("billing provider error")
	// ErrBadMetadata indicates transaction metadata this service wrote earlier
	// cannot be decoded back.
	ErrBadMetadata = errors.New("malformed transaction metadata")
)
