// Package smartthings adapts SmartThings locks to the reconciliation
// engine.
//
// SmartThings lock codes are bare slot/name/code triples; the platform
// has no notion of a validity window. The adapter keeps the windows it
// programs in a database ledger keyed by device and slot, and folds
// them back into code listings. A guest code with no ledger row reports
// a zero window, which the engine treats as expired; the next run
// deletes it and, when a reservation still covers it, re-creates it
// with a ledger row. Stray codes converge in one run.
//
// Code listings go through a device refresh command followed by a short
// wait, because the cloud caches device state.
package smartthings
