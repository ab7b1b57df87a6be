package checkout

import "errors"

var (
	// ErrIneligibleRegion indicates the purchase intent names a region outside
	// the serviceable allow-list. Checked before anything else; no partial
	// service.
	ErrIneligibleRegion = errors.New("service is not available in the requested region")

	// ErrInvalidSelection indicates an unknown plan, billing cycle or add-on.
	ErrInvalidSelection = errors.New("invalid plan or billing selection")

	// ErrUpstream indicates the billing processor rejected or failed the
	// transaction-creation call. Surfaced to the caller, never retried here.
	ErrUpstream = errors.New("billing processor request failed")
)
