// Package reconcile keeps a smart lock's guest access codes consistent with
// a property's reservation calendar.
//
// The engine compares desired state (one access code per active reservation)
// against observed state (the device's current code table) and drives the
// minimal set of deletions, updates, and additions through a vendor-specific
// Adapter. The device is the sole source of truth; the engine persists
// nothing between runs.
//
// # Architecture
//
// The package is built from four pieces:
//
//  1. Label codec: pure functions deriving a deterministic label and numeric
//     code from a reservation (DeriveLabel, DeriveRawCode).
//
//  2. Adapter: the per-vendor contract for listing, creating, updating, and
//     deleting device access codes. Vendor rate-limit pacing lives inside
//     each adapter; the engine only sees success or failure.
//
//  3. Engine: the reconciliation pass. Stale guest codes are deleted first
//     so a freed label can be reused immediately, then each active
//     reservation is created or updated with bounded retries.
//
//  4. Mutation state machine: create operations move through
//     Pending -> AwaitingVerification -> Verified | Failed with bounded
//     transition counts, because vendors may accept a write before it is
//     observably applied. Success means "observed effect", never
//     "accepted request".
//
// # Consistency model
//
// Processing is strictly sequential. Later steps depend on freshly re-read
// device state produced by earlier steps, and vendor accounts enforce
// per-account rate limits, so there is no parallel fan-out. All waits are
// fixed-duration settle delays injected through the Clock interface; tests
// substitute a fake clock and run without real sleeps.
//
// # Failure semantics
//
// Every vendor failure is classified and appended to the run's error list.
// No failure escapes the engine: one bad reservation or one flaky call
// never blocks the rest of the pass. There is no rollback; already-applied
// mutations stay in place and a future run converges.
package reconcile
