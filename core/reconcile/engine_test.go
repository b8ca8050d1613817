package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock records sleeps instead of waiting.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.sleeps++
}

// pendingCode is a created code not yet visible in listings, simulating
// vendor read-after-write lag.
type pendingCode struct {
	code      AccessCode
	remaining int
}

// fakeAdapter is an in-memory vendor with scripted failures and
// configurable visibility lag.
type fakeAdapter struct {
	codes         []AccessCode
	pending       []pendingCode
	nextID        int
	visibilityLag int

	listErr        error
	createErr      error
	createFailures int
	updateErr      error
	deleteFailIDs  map[string]bool

	lists   int
	creates int
	updates int
	deletes int
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) FindDevice(ctx context.Context, location, name string) (DeviceRef, error) {
	return DeviceRef{ID: "mac-1", Name: name}, nil
}

func (f *fakeAdapter) ListCodes(ctx context.Context, device DeviceRef) ([]AccessCode, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var still []pendingCode
	for _, p := range f.pending {
		if p.remaining <= 0 {
			f.codes = append(f.codes, p.code)
			continue
		}
		p.remaining--
		still = append(still, p)
	}
	f.pending = still
	out := make([]AccessCode, len(f.codes))
	copy(out, f.codes)
	return out, nil
}

func (f *fakeAdapter) CreateCode(ctx context.Context, device DeviceRef, rawCode, label string, w Window) error {
	f.creates++
	if f.createFailures > 0 {
		f.createFailures--
		if f.createErr != nil {
			return f.createErr
		}
		return &VendorError{Kind: KindTransient, Op: "create_code", Err: errors.New("timeout")}
	}
	f.nextID++
	f.pending = append(f.pending, pendingCode{
		code:      AccessCode{ID: strconv.Itoa(f.nextID), Label: label, RawCode: rawCode, Window: w},
		remaining: f.visibilityLag,
	})
	return nil
}

func (f *fakeAdapter) UpdateCode(ctx context.Context, device DeviceRef, codeID, rawCode, label string, w Window) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.codes {
		if f.codes[i].ID == codeID {
			f.codes[i].RawCode = rawCode
			f.codes[i].Label = label
			f.codes[i].Window = w
			return nil
		}
	}
	return &VendorError{Kind: KindRejected, Op: "update_code", Err: fmt.Errorf("no code %s", codeID)}
}

func (f *fakeAdapter) DeleteCode(ctx context.Context, device DeviceRef, codeID string) error {
	f.deletes++
	if f.deleteFailIDs[codeID] {
		return &VendorError{Kind: KindTransient, Op: "delete_code", Err: errors.New("device offline")}
	}
	for i := range f.codes {
		if f.codes[i].ID == codeID {
			f.codes = append(f.codes[:i], f.codes[i+1:]...)
			return nil
		}
	}
	// Unknown slot: the vendor reports "already deleted", which is success.
	return nil
}

func newTestEngine(f *fakeAdapter, cfg Config, clock *fakeClock) *Engine {
	return New(f, cfg, WithClock(clock))
}

func testConfig() Config {
	return Config{
		SettleDelay:    5 * time.Second,
		CreateAttempts: 3,
		VerifyAttempts: 3,
	}
}

func janeDoe(t *testing.T) Reservation {
	return Reservation{
		GuestName: "Jane Doe",
		Phone:     "555-123-4567",
		Checkin:   mustTime(t, "2025-06-01T15:00:00"),
		Checkout:  mustTime(t, "2025-06-05T11:00:00"),
	}
}

func TestSync_AddsCodeForActiveReservation(t *testing.T) {
	fake := &fakeAdapter{}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1", Name: "Seaside - FD"},
		[]Reservation{janeDoe(t)}, clock.now, false)

	assert.Equal(t, []string{"Guest Jane20250601"}, res.Additions)
	assert.Empty(t, res.Deletions)
	assert.Empty(t, res.Updates)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, fake.creates)

	codes, err := fake.ListCodes(context.Background(), DeviceRef{})
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "Guest Jane20250601", codes[0].Label)
	assert.Equal(t, "4567", codes[0].RawCode)
	assert.Equal(t, mustTime(t, "2025-06-01T15:00:00"), codes[0].Window.Begin)
	assert.Equal(t, mustTime(t, "2025-06-05T11:00:00"), codes[0].Window.End)
}

func TestSync_SecondRunIsNoOp(t *testing.T) {
	fake := &fakeAdapter{}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)
	device := DeviceRef{ID: "mac-1", Name: "Seaside - FD"}
	reservations := []Reservation{janeDoe(t)}

	first := eng.Sync(context.Background(), device, reservations, clock.now, false)
	require.Equal(t, []string{"Guest Jane20250601"}, first.Additions)

	second := eng.Sync(context.Background(), device, reservations, clock.now, false)
	assert.True(t, second.Empty(), "second run with unchanged inputs must be a no-op, got %+v", second)
}

func TestSync_DeletesExpiredGuestCodes(t *testing.T) {
	expired := AccessCode{ID: "1", Label: "Guest Jane20250601", Window: Window{
		Begin: mustTime(t, "2025-05-28T15:00:00"),
		End:   mustTime(t, "2025-06-01T11:00:00"),
	}}
	active := AccessCode{ID: "2", Label: "Guest Bob20250608", Window: Window{
		Begin: mustTime(t, "2025-06-08T15:00:00"),
		End:   mustTime(t, "2025-06-12T11:00:00"),
	}}
	owner := AccessCode{ID: "3", Label: "Owner", Window: Window{
		Begin: mustTime(t, "2020-01-01T00:00:00"),
		End:   mustTime(t, "2020-01-02T00:00:00"),
	}}

	fake := &fakeAdapter{codes: []AccessCode{expired, active, owner}, nextID: 3}
	clock := &fakeClock{now: mustTime(t, "2025-06-10T00:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"}, nil, clock.now, false)

	assert.Equal(t, []string{"Guest Jane20250601"}, res.Deletions)
	assert.Empty(t, res.Errors)

	codes, _ := fake.ListCodes(context.Background(), DeviceRef{})
	labels := make([]string, 0, len(codes))
	for _, c := range codes {
		labels = append(labels, c.Label)
	}
	// The active guest code survives; the expired owner code is not
	// managed and stays untouched.
	assert.ElementsMatch(t, []string{"Guest Bob20250608", "Owner"}, labels)
}

func TestSync_PurgeAllDeletesActiveGuestCodes(t *testing.T) {
	active := AccessCode{ID: "1", Label: "Guest Bob20250608", Window: Window{
		Begin: mustTime(t, "2025-06-08T15:00:00"),
		End:   mustTime(t, "2025-06-12T11:00:00"),
	}}
	owner := AccessCode{ID: "2", Label: "Owner", Window: Window{
		Begin: mustTime(t, "2020-01-01T00:00:00"),
		End:   mustTime(t, "2020-01-02T00:00:00"),
	}}

	fake := &fakeAdapter{codes: []AccessCode{active, owner}, nextID: 2}
	clock := &fakeClock{now: mustTime(t, "2025-06-09T00:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"}, nil, clock.now, true)

	assert.Equal(t, []string{"Guest Bob20250608"}, res.Deletions)

	codes, _ := fake.ListCodes(context.Background(), DeviceRef{})
	require.Len(t, codes, 1)
	assert.Equal(t, "Owner", codes[0].Label)
}

func TestSync_RefetchesAfterDeletion(t *testing.T) {
	expired := AccessCode{ID: "1", Label: "Guest Jane20250601", Window: Window{
		Begin: mustTime(t, "2025-05-28T15:00:00"),
		End:   mustTime(t, "2025-06-01T11:00:00"),
	}}
	fake := &fakeAdapter{codes: []AccessCode{expired}, nextID: 1}
	clock := &fakeClock{now: mustTime(t, "2025-06-10T00:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	eng.Sync(context.Background(), DeviceRef{ID: "mac-1"}, nil, clock.now, false)

	// Initial listing plus the post-deletion re-read, separated by one
	// settle delay.
	assert.Equal(t, 2, fake.lists)
	assert.Equal(t, []time.Duration{5 * time.Second}, clock.slept)
}

func TestSync_ValidationFailureSkipsOnlyThatReservation(t *testing.T) {
	badPhone := Reservation{
		GuestName: "Bob Short",
		Phone:     "12",
		Checkin:   mustTime(t, "2025-06-02T15:00:00"),
		Checkout:  mustTime(t, "2025-06-06T11:00:00"),
	}
	fake := &fakeAdapter{}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"},
		[]Reservation{badPhone, janeDoe(t)}, clock.now, false)

	assert.Equal(t, []string{"Guest Jane20250601"}, res.Additions)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Guest Bob20250602")
	assert.Equal(t, 1, fake.creates, "invalid reservation must produce no mutation")
}

func TestSync_MissingGuestNameRecorded(t *testing.T) {
	nameless := Reservation{
		Phone:    "555-123-4567",
		Checkin:  mustTime(t, "2025-06-02T15:00:00"),
		Checkout: mustTime(t, "2025-06-06T11:00:00"),
	}
	fake := &fakeAdapter{}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"}, []Reservation{nameless}, clock.now, false)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "no guest name")
	assert.Zero(t, fake.creates)
}

func TestSync_CreateFailureExhaustsBudget(t *testing.T) {
	fake := &fakeAdapter{createFailures: 100}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	cfg := testConfig()
	eng := newTestEngine(fake, cfg, clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"},
		[]Reservation{janeDoe(t)}, clock.now, false)

	assert.Empty(t, res.Additions)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Guest Jane20250601")
	assert.Equal(t, cfg.CreateAttempts, fake.creates, "retries must stop at the attempt budget")
}

func TestSync_CreateVerifiedAfterVendorLag(t *testing.T) {
	// The code becomes visible on the second verification read.
	fake := &fakeAdapter{visibilityLag: 1}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"},
		[]Reservation{janeDoe(t)}, clock.now, false)

	assert.Equal(t, []string{"Guest Jane20250601"}, res.Additions)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, fake.creates, "slow visibility must not trigger a second create")
}

func TestSync_VerificationTimeoutReported(t *testing.T) {
	fake := &fakeAdapter{visibilityLag: 100}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	cfg := Config{SettleDelay: time.Second, CreateAttempts: 2, VerifyAttempts: 2}
	eng := newTestEngine(fake, cfg, clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"},
		[]Reservation{janeDoe(t)}, clock.now, false)

	assert.Empty(t, res.Additions)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "not observed")
	assert.Equal(t, 2, fake.creates)
}

func TestSync_UpdatesWhenWindowDiffers(t *testing.T) {
	stale := AccessCode{ID: "7", Label: "Guest Jane20250601", RawCode: "4567", Window: Window{
		Begin: mustTime(t, "2025-06-01T15:00:00"),
		End:   mustTime(t, "2025-06-04T11:00:00"), // checkout moved since
	}}
	fake := &fakeAdapter{codes: []AccessCode{stale}, nextID: 7}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"},
		[]Reservation{janeDoe(t)}, clock.now, false)

	assert.Equal(t, []string{"Guest Jane20250601"}, res.Updates)
	assert.Empty(t, res.Additions)
	assert.Empty(t, res.Errors)

	codes, _ := fake.ListCodes(context.Background(), DeviceRef{})
	require.Len(t, codes, 1)
	assert.Equal(t, mustTime(t, "2025-06-05T11:00:00"), codes[0].Window.End)
}

func TestSync_UpdateFailureRecordedWithoutRetry(t *testing.T) {
	stale := AccessCode{ID: "7", Label: "Guest Jane20250601", Window: Window{
		Begin: mustTime(t, "2025-06-01T15:00:00"),
		End:   mustTime(t, "2025-06-04T11:00:00"),
	}}
	fake := &fakeAdapter{
		codes:     []AccessCode{stale},
		nextID:    7,
		updateErr: &VendorError{Kind: KindRateLimited, Op: "update_code", Err: errors.New("throttled")},
	}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"},
		[]Reservation{janeDoe(t)}, clock.now, false)

	assert.Empty(t, res.Updates)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "updating code")
	assert.Equal(t, 1, fake.updates)
}

func TestSync_LabelCollisionSurfaced(t *testing.T) {
	twin := janeDoe(t)
	twin.GuestName = "Jane Smith"
	twin.Phone = "555-000-9999"

	fake := &fakeAdapter{}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"},
		[]Reservation{janeDoe(t), twin}, clock.now, false)

	assert.Equal(t, []string{"Guest Jane20250601"}, res.Additions)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "label collision")
	assert.Equal(t, 1, fake.creates, "the colliding reservation must produce no mutation")
}

func TestSync_PastReservationIgnoredEntirely(t *testing.T) {
	past := Reservation{
		GuestName: "Old Guest",
		Phone:     "1", // would fail validation if it were considered
		Checkin:   mustTime(t, "2025-05-01T15:00:00"),
		Checkout:  mustTime(t, "2025-05-05T11:00:00"),
	}
	fake := &fakeAdapter{}
	clock := &fakeClock{now: mustTime(t, "2025-06-10T00:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"}, []Reservation{past}, clock.now, false)

	assert.True(t, res.Empty(), "past reservations are excluded from all passes, got %+v", res)
}

func TestSync_ListFailureAbortsLock(t *testing.T) {
	fake := &fakeAdapter{listErr: errors.New("device offline")}
	clock := &fakeClock{now: mustTime(t, "2025-06-01T12:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1", Name: "Seaside - FD"},
		[]Reservation{janeDoe(t)}, clock.now, false)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "device offline")
	assert.Zero(t, fake.creates)
}

func TestSync_DeleteFailureLeavesCodeForNextRun(t *testing.T) {
	first := AccessCode{ID: "1", Label: "Guest Jane20250601", Window: Window{
		Begin: mustTime(t, "2025-05-28T15:00:00"),
		End:   mustTime(t, "2025-06-01T11:00:00"),
	}}
	second := AccessCode{ID: "2", Label: "Guest Ann20250520", Window: Window{
		Begin: mustTime(t, "2025-05-20T15:00:00"),
		End:   mustTime(t, "2025-05-24T11:00:00"),
	}}
	fake := &fakeAdapter{
		codes:         []AccessCode{first, second},
		nextID:        2,
		deleteFailIDs: map[string]bool{"1": true},
	}
	clock := &fakeClock{now: mustTime(t, "2025-06-10T00:00:00")}
	eng := newTestEngine(fake, testConfig(), clock)

	res := eng.Sync(context.Background(), DeviceRef{ID: "mac-1"}, nil, clock.now, false)

	assert.Equal(t, []string{"Guest Ann20250520"}, res.Deletions)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.Contains(res.Errors[0], "Guest Jane20250601"))

	codes, _ := fake.ListCodes(context.Background(), DeviceRef{})
	require.Len(t, codes, 1, "the failed deletion stays on the device")
	assert.Equal(t, "Guest Jane20250601", codes[0].Label)
}

func TestResultEmptyAndMerge(t *testing.T) {
	var r Result
	assert.True(t, r.Empty())

	r.Merge(Result{Additions: []string{"Guest A20250601"}})
	r.Merge(Result{Errors: []string{"boom"}})
	assert.False(t, r.Empty())
	assert.Equal(t, []string{"Guest A20250601"}, r.Additions)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
