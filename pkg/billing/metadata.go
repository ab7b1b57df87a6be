package billing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrymomot/memberpay/pkg/catalog"
)

// Metadata keys shared by checkout construction and completion-event
// handling. Both sides must use these constants; the builder writes them and
// the handler reads them back, so a key rename in one place without the other
// silently breaks deferred provisioning.
const (
	MetaPlan           = "plan"
	MetaBillingCycle   = "billing_cycle"
	MetaAddOns         = "add_ons"
	MetaAddOnsDeferred = "add_ons_deferred"
	MetaRegion         = "region"

	// Keys written on the deferred subscription only.
	MetaParentTransactionID  = "parent_transaction_id"
	MetaParentSubscriptionID = "parent_subscription_id"
	MetaSource               = "source"

	// SourceDeferredAddOns marks subscriptions created by the completion
	// event handler. Together with MetaParentTransactionID it forms the
	// duplicate-detection key.
	SourceDeferredAddOns = "deferred-addons"

	// AddOnsNone is the sentinel for an empty add-on selection.
	AddOnsNone = "none"
)

// idempotencyPrefix namespaces idempotency tokens derived from transaction IDs.
const idempotencyPrefix = "deferred-addons-"

// IdempotencyKey derives the deterministic idempotency token for deferred
// provisioning from the base transaction identifier. Redelivery of the same
// completion notification always produces the same token, so the processor
// cannot create two deferred subscriptions for one transaction even when
// deliveries race.
func IdempotencyKey(transactionID string) string {
	return idempotencyPrefix + transactionID
}

// EncodeAddOns encodes an add-on set as a comma-delimited metadata value.
// The set is sorted first so encoding is order-independent; an empty set
// encodes as the "none" sentinel.
func EncodeAddOns(addOns []catalog.AddOn) string {
	if len(addOns) == 0 {
		return AddOnsNone
	}
	normalized, err := catalog.ParseAddOns(addOnStrings(addOns))
	if err != nil || len(normalized) == 0 {
		return AddOnsNone
	}
	return strings.Join(addOnStrings(normalized), ",")
}

// DecodeAddOns decodes a metadata add-on value back into the set it was
// encoded from. The empty string and the "none" sentinel decode to an empty
// set; unknown tokens are an error since this service wrote the value itself.
func DecodeAddOns(s string) ([]catalog.AddOn, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AddOnsNone) {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	addOns, err := catalog.ParseAddOns(parts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMetadata, err)
	}
	return addOns, nil
}

// SubscriptionMetadata builds the metadata bag attached to the base
// recurring record at checkout-construction time. The full add-on selection
// is always recorded, deferred or not, so downstream reporting sees one
// consistent shape.
func SubscriptionMetadata(plan catalog.Plan, cycle catalog.BillingCycle, addOns []catalog.AddOn, deferred bool, region string) map[string]string {
	return map[string]string{
		MetaPlan:           string(plan),
		MetaBillingCycle:   string(cycle),
		MetaAddOns:         EncodeAddOns(addOns),
		MetaAddOnsDeferred: strconv.FormatBool(deferred),
		MetaRegion:         strings.ToUpper(strings.TrimSpace(region)),
	}
}

// DeferredMetadata builds the metadata bag for the deferred add-on
// subscription: the parent linkage that drives duplicate detection, plus the
// plan/cycle/add-on/region context copied from the base record for
// downstream reporting.
func DeferredMetadata(transactionID, baseSubscriptionID string, baseMetadata map[string]string) map[string]string {
	return map[string]string{
		MetaParentTransactionID:  transactionID,
		MetaParentSubscriptionID: baseSubscriptionID,
		MetaSource:               SourceDeferredAddOns,
		MetaPlan:                 baseMetadata[MetaPlan],
		MetaBillingCycle:         baseMetadata[MetaBillingCycle],
		MetaAddOns:               baseMetadata[MetaAddOns],
		MetaRegion:               baseMetadata[MetaRegion],
	}
}

// IsDeferredFor reports whether a subscription record is the deferred add-on
// subscription created for the given base transaction.
func IsDeferredFor(rec SubscriptionRecord, transactionID string) bool {
	if rec.Metadata == nil {
		return false
	}
	return rec.Metadata[MetaParentTransactionID] == transactionID &&
		rec.Metadata[MetaSource] == SourceDeferredAddOns
}

// DeferredFlag reads the deferred flag from base-record metadata.
func DeferredFlag(metadata map[string]string) bool {
	v, err := strconv.ParseBool(metadata[MetaAddOnsDeferred])
	return err == nil && v
}

func addOnStrings(addOns []catalog.AddOn) []string {
	out := make([]string, len(addOns))
	for i, a := range addOns {
		out[i] = string(a)
	}
	return out
}
