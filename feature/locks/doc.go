// Package locks orchestrates sync runs across all managed properties.
//
// One run walks the active property registry sequentially, fetches each
// property's upcoming reservations, resolves its lock through the brand
// adapter, and hands both to the reconciliation engine. Outcomes fan
// out to the configured reporters. Properties are isolated: a failure
// on one lock never stops the run.
package locks
