// Package wyze adapts Wyze locks to the reconciliation engine.
//
// Wyze splits its surface in two: the main app API (login, device list)
// wraps responses in a string code envelope, while the lock API speaks
// ErrNo integers. The adapter maps ErrNo values onto failure kinds; a
// handful are special-cased, notably 5021 ("already deleted"), which
// counts as a successful delete.
//
// The lock API is eventually consistent and throttles aggressively, so
// every mutating call is preceded by a fixed pacing delay.
package wyze
