// Package catalog holds the process-wide, read-only price catalog: the
// mapping from membership plans, billing cycles and add-ons to the billing
// processor's price identifiers, plus the serviceable-region allow-list.
//
// The catalog is built once at startup from a Source (environment variables
// by default, a YAML file as an alternative) and validated for completeness
// before the service accepts traffic. After validation every lookup for a
// valid plan/cycle/add-on combination is guaranteed to return a non-empty
// price identifier, so a partial catalog can never silently produce a
// checkout transaction with missing line items.
package catalog
