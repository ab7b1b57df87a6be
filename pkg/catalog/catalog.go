package catalog

import (
	"fmt"
	"strings"
)

// Data is the raw catalog content produced by a Source. Keys in BasePrices
// are "<plan>_<cycle>" (e.g. "starter_monthly"); keys in AddOnPrices are
// add-on names. Values are the processor's opaque price identifiers.
type Data struct {
	BasePrices  map[string]string
	AddOnPrices map[string]string
	Regions     []string
}

// Source loads raw catalog data. Implementations: EnvSource, FileSource.
type Source interface {
	Load() (Data, error)
}

// Catalog is the immutable price catalog. Construct with New; the zero value
// is not usable.
type Catalog struct {
	basePrices  map[string]string
	addOnPrices map[AddOn]string
	regions     map[string]struct{}
}

// New loads the source and validates completeness: every plan/cycle pair and
// every add-on must resolve to a non-empty price identifier, and at least one
// serviceable region must be configured. Validation happens once here, not
// per request.
func New(src Source) (*Catalog, error) {
	data, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoad, err)
	}

	c := &Catalog{
		basePrices:  make(map[string]string, len(Plans())*len(BillingCycles())),
		addOnPrices: make(map[AddOn]string, len(AddOns())),
		regions:     make(map[string]struct{}, len(data.Regions)),
	}

	for _, p := range Plans() {
		for _, b := range BillingCycles() {
			key := baseKey(p, b)
			id := strings.TrimSpace(data.BasePrices[key])
			if id == "" {
				return nil, fmt.Errorf("%w: missing base price for %s", ErrIncomplete, key)
			}
			c.basePrices[key] = id
		}
	}

	for _, a := range AddOns() {
		id := strings.TrimSpace(data.AddOnPrices[string(a)])
		if id == "" {
			return nil, fmt.Errorf("%w: missing add-on price for %s", ErrIncomplete, a)
		}
		c.addOnPrices[a] = id
	}

	for _, r := range data.Regions {
		r = normalizeRegion(r)
		if r != "" {
			c.regions[r] = struct{}{}
		}
	}
	if len(c.regions) == 0 {
		return nil, ErrNoRegions
	}

	return c, nil
}

// BasePrice returns the processor price identifier for a plan and billing
// cycle. Inputs already passed Parse validation, so a miss here can only
// happen on a zero-value Catalog.
func (c *Catalog) BasePrice(p Plan, b BillingCycle) (string, error) {
	id, ok := c.basePrices[baseKey(p, b)]
	if !ok {
		return "", fmt.Errorf("%w: missing base price for %s", ErrIncomplete, baseKey(p, b))
	}
	return id, nil
}

// AddOnPrice returns the processor price identifier for an add-on.
func (c *Catalog) AddOnPrice(a AddOn) (string, error) {
	id, ok := c.addOnPrices[a]
	if !ok {
		return "", fmt.Errorf("%w: missing add-on price for %s", ErrIncomplete, a)
	}
	return id, nil
}

// ServesRegion reports whether the given region code is serviceable.
// Comparison is case-insensitive; empty codes are never serviceable.
func (c *Catalog) ServesRegion(code string) bool {
	code = normalizeRegion(code)
	if code == "" {
		return false
	}
	_, ok := c.regions[code]
	return ok
}

func baseKey(p Plan, b BillingCycle) string {
	return string(p) + "_" + string(b)
}

func normalizeRegion(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
