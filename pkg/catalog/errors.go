package catalog

import "errors"

var (
	// ErrUnknownPlan indicates a plan label outside the closed set.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrUnknownBillingCycle indicates a billing-cycle label outside the closed set.
	ErrUnknownBillingCycle = errors.New("unknown billing cycle")
	// ErrUnknownAddOn indicates an add-on key outside the closed set.
	ErrUnknownAddOn = errors.New("unknown add-on")

	// ErrIncomplete indicates the configured catalog is missing a price
	// identifier for a plan/cycle or add-on. Operator-fixable; the service
	// must refuse to start rather than create transactions with missing
	// line items.
	ErrIncomplete = errors.New("incomplete price catalog")

	// ErrNoRegions indicates the serviceable-region allow-list is empty.
	ErrNoRegions = errors.New("serviceable region list is empty")

	// ErrFailedToLoad indicates the catalog source could not be read.
	ErrFailedToLoad = errors.New("failed to load price catalog")
)
