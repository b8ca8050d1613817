package reconcile

import "context"

// Adapter is the per-vendor capability contract. One implementation exists
// per lock brand; the engine holds an instance and never branches on brand
// name.
//
// Each mutating call is internally rate-limited by a vendor-specific fixed
// delay. The engine is unaware of that cost and only observes success or
// failure. Implementations classify failures as *VendorError so runs can
// report the failure kind.
type Adapter interface {
	// Name returns the vendor identifier, e.g. "wyze".
	Name() string

	// FindDevice resolves a lock by its configured location and name.
	// Returns ErrDeviceNotFound (possibly wrapped) when no such device
	// exists.
	FindDevice(ctx context.Context, location, name string) (DeviceRef, error)

	// ListCodes returns the device's current code table.
	ListCodes(ctx context.Context, device DeviceRef) ([]AccessCode, error)

	// CreateCode programs a new code slot. The vendor may accept the
	// write before it is observably applied; callers must verify with
	// ListCodes before trusting it.
	CreateCode(ctx context.Context, device DeviceRef, rawCode, label string, w Window) error

	// UpdateCode rewrites an existing code slot in place.
	UpdateCode(ctx context.Context, device DeviceRef, codeID, rawCode, label string, w Window) error

	// DeleteCode removes a code slot. A vendor "already deleted"
	// response counts as success and must return nil.
	DeleteCode(ctx context.Context, device DeviceRef, codeID string) error
}
