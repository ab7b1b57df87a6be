// Package billing is the boundary to the external subscription-billing
// processor. It defines the Provider interface the rest of the service
// depends on, normalized record types, the metadata key contract shared by
// checkout construction and completion-event handling, and a Stripe-backed
// implementation.
//
// The processor is the source of truth for all coordination state: what was
// deferred travels in transaction metadata, and whether it was already
// provisioned is answered by the processor's own records. The service itself
// keeps no state between requests.
package billing
