package catalog

import (
	"fmt"
	"slices"
	"strings"
)

// Plan identifies a membership plan. Values outside the declared constants
// cannot be produced by ParsePlan, so downstream code never rechecks them.
type Plan string

const (
	PlanStarter Plan = "starter"
	PlanPremium Plan = "premium"
)

// Plans lists all known plans.
func Plans() []Plan {
	return []Plan{PlanStarter, PlanPremium}
}

// ParsePlan normalizes and validates a plan label.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Plans(), p) {
		return "", fmt.Errorf("%w: unknown plan %q", ErrUnknownPlan, s)
	}
	return p, nil
}

// BillingCycle identifies the billing frequency of the base membership.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

// BillingCycles lists all known billing cycles.
func BillingCycles() []BillingCycle {
	return []BillingCycle{CycleMonthly, CycleAnnual}
}

// ParseBillingCycle normalizes and validates a billing-cycle label.
func ParseBillingCycle(s string) (BillingCycle, error) {
	b := BillingCycle(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(BillingCycles(), b) {
		return "", fmt.Errorf("%w: unknown billing cycle %q", ErrUnknownBillingCycle, s)
	}
	return b, nil
}

// AddOn identifies an optional recurring add-on.
type AddOn string

const (
	AddOnNutrition AddOn = "nutrition"
	AddOnCoaching  AddOn = "coaching"
	AddOnLabs      AddOn = "labs"
	AddOnSkincare  AddOn = "skincare"
)

// AddOns lists all known add-ons.
func AddOns() []AddOn {
	return []AddOn{AddOnNutrition, AddOnCoaching, AddOnLabs, AddOnSkincare}
}

// ParseAddOn normalizes and validates a single add-on key.
func ParseAddOn(s string) (AddOn, error) {
	a := AddOn(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(AddOns(), a) {
		return "", fmt.Errorf("%w: unknown add-on %q", ErrUnknownAddOn, s)
	}
	return a, nil
}

// ParseAddOns validates a client-supplied add-on selection. The result is
// deduplicated and sorted so selection order never matters downstream.
func ParseAddOns(keys []string) ([]AddOn, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	seen := make(map[AddOn]struct{}, len(keys))
	out := make([]AddOn, 0, len(keys))
	for _, k := range keys {
		a, err := ParseAddOn(k)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	slices.Sort(out)
	return out, nil
}
