package reconcile

import (
	"fmt"
	"time"
)

// GuestLabelPrefix marks access codes managed by this engine. Codes whose
// label does not start with this prefix are never touched.
const GuestLabelPrefix = "Guest"

// Reservation is one guest stay as supplied by the reservation provider.
// Times are local to the property; the caller resolves the timezone before
// handing reservations to the engine.
type Reservation struct {
	// GuestName is the full guest name. Only the first token is used for
	// the code label.
	GuestName string

	// Phone is the guest's phone number in any format. The last four
	// digits become the access code.
	Phone string

	// Checkin is the reservation start.
	Checkin time.Time

	// Checkout is the reservation end.
	Checkout time.Time
}

// Window is the half-open [Begin, End) range during which an access code is
// valid on the device. Begin < End always holds for windows the engine
// produces.
type Window struct {
	Begin time.Time
	End   time.Time
}

// Equal reports whether two windows cover the same instant range.
func (w Window) Equal(o Window) bool {
	return w.Begin.Equal(o.Begin) && w.End.Equal(o.End)
}

// ExpiredAt reports whether the window has fully elapsed at the given time.
func (w Window) ExpiredAt(now time.Time) bool {
	return w.End.Before(now)
}

// AccessCode is one code slot observed on a device.
type AccessCode struct {
	// ID is the vendor-assigned identifier for this code slot.
	ID string

	// Label is the human-readable key identifying the code. Guest codes
	// carry labels derived by DeriveLabel.
	Label string

	// Window is the permission window reported by the vendor.
	Window Window

	// RawCode is the numeric code, when the vendor returns it on listing.
	// Most vendors do not; an empty value means "not reported".
	RawCode string
}

// DeviceRef identifies one lock on the vendor side. The ID field is opaque
// to the engine (a MAC for Wyze, a device UUID for SmartThings).
type DeviceRef struct {
	ID   string
	Name string
}

// Config holds the engine's tunable constants. All delays are fixed,
// vendor-tunable durations, not backoff schedules: vendor consistency lag
// is assumed roughly constant.
type Config struct {
	// CheckInOffset shifts the window start relative to check-in.
	CheckInOffset time.Duration

	// CheckOutOffset shifts the window end relative to check-out.
	CheckOutOffset time.Duration

	// SettleDelay is the wait after a mutating call before the next read,
	// and between successive verification reads.
	SettleDelay time.Duration

	// CreateAttempts is the attempt budget for creating one code.
	CreateAttempts int

	// VerifyAttempts is the read budget for verifying one create attempt.
	VerifyAttempts int
}

// DefaultConfig mirrors the production tuning for eventually-consistent
// vendors.
func DefaultConfig() Config {
	return Config{
		CheckInOffset:  0,
		CheckOutOffset: 0,
		SettleDelay:    5 * time.Second,
		CreateAttempts: 3,
		VerifyAttempts: 3,
	}
}

// normalized returns cfg with zero budgets bumped to 1 so the engine always
// makes at least one attempt.
func (c Config) normalized() Config {
	if c.CreateAttempts < 1 {
		c.CreateAttempts = 1
	}
	if c.VerifyAttempts < 1 {
		c.VerifyAttempts = 1
	}
	return c
}

// DesiredWindow computes the permission window for a reservation with the
// configured grace offsets applied.
func (c Config) DesiredWindow(r Reservation) Window {
	return Window{
		Begin: r.Checkin.Add(c.CheckInOffset),
		End:   r.Checkout.Add(c.CheckOutOffset),
	}
}

// Result is the outcome of one reconciliation pass over one device.
// Deletions, Updates, and Additions carry code labels; Errors carries
// human-readable failure descriptions.
type Result struct {
	Deletions []string `json:"deletions"`
	Updates   []string `json:"updates"`
	Additions []string `json:"additions"`
	Errors    []string `json:"errors"`
}

// Empty reports whether the pass changed nothing and hit no errors.
func (r Result) Empty() bool {
	return len(r.Deletions) == 0 && len(r.Updates) == 0 &&
		len(r.Additions) == 0 && len(r.Errors) == 0
}

// Merge appends another result's entries onto r.
func (r *Result) Merge(o Result) {
	r.Deletions = append(r.Deletions, o.Deletions...)
	r.Updates = append(r.Updates, o.Updates...)
	r.Additions = append(r.Additions, o.Additions...)
	r.Errors = append(r.Errors, o.Errors...)
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// findCode returns the first code carrying the label, or nil.
func findCode(codes []AccessCode, label string) *AccessCode {
	for i := range codes {
		if codes[i].Label == label {
			return &codes[i]
		}
	}
	return nil
}
