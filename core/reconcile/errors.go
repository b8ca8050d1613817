package reconcile

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed vendor call. The engine uses the kind only
// for reporting; all kinds are retried identically within the attempt
// budget.
type ErrorKind string

const (
	// KindRateLimited means the vendor throttled the call.
	KindRateLimited ErrorKind = "rate_limited"

	// KindRejected means the vendor understood and refused the call
	// (bad parameters, duplicate name, permission denied).
	KindRejected ErrorKind = "rejected"

	// KindTransient covers timeouts, connectivity failures, and vendor
	// 5xx responses worth retrying.
	KindTransient ErrorKind = "transient"
)

// VendorError wraps a failed vendor call with its classification.
type VendorError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Op names the vendor operation, e.g. "create_code".
	Op string

	// Err is the underlying error.
	Err error
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *VendorError) Unwrap() error { return e.Err }

// ValidationError reports bad or missing guest data on one reservation.
// It is reservation-scoped: the engine records it and moves on.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid reservation: " + e.Reason
}

// ErrDeviceNotFound is returned by Adapter.FindDevice when no device at the
// location carries the requested name.
var ErrDeviceNotFound = errors.New("device not found")

// DeviceLookupError reports a failed device lookup. It is lock-scoped:
// the caller aborts that lock and continues with the next.
type DeviceLookupError struct {
	Location string
	Name     string
	Err      error
}

func (e *DeviceLookupError) Error() string {
	return fmt.Sprintf("device lookup for %q at %q: %v", e.Name, e.Location, e.Err)
}

func (e *DeviceLookupError) Unwrap() error { return e.Err }

// CollisionError reports two distinct reservations deriving the same label
// on the same device in one run. The second reservation produces no
// mutation; silently treating it as already present would hand the guest
// the wrong code.
type CollisionError struct {
	Label string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("label collision: %q already claimed by another reservation in this run", e.Label)
}

// VerificationTimeout reports that the vendor accepted a create call but
// the code was never observed on the device within the verification budget.
// The contract is "observed effect", so this counts as failure.
type VerificationTimeout struct {
	Label    string
	Attempts int
}

func (e *VerificationTimeout) Error() string {
	return fmt.Sprintf("code %q accepted but not observed after %d verification reads", e.Label, e.Attempts)
}
