package smartthings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"lock-sync/core/reconcile"
)

// Adapter implements the engine's vendor contract for SmartThings
// locks. Windows live in the Ledger; the platform only stores
// slot/name/code.
type Adapter struct {
	client *Client
	ledger *Ledger
	log    *zap.Logger
	delay  time.Duration
	sleep  func(time.Duration)
}

// NewAdapter builds an Adapter over the given client and ledger.
func NewAdapter(client *Client, ledger *Ledger, cfg Config, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		client: client,
		ledger: ledger,
		log:    log,
		delay:  time.Duration(cfg.APIDelaySeconds) * time.Second,
		sleep:  time.Sleep,
	}
}

func (a *Adapter) Name() string { return "smartthings" }

func (a *Adapter) pace() {
	if a.delay > 0 {
		a.sleep(a.delay)
	}
}

// FindDevice resolves a lock by location name, then device label. Both
// matches are case-insensitive, the way names come back from the app.
func (a *Adapter) FindDevice(ctx context.Context, locationName, name string) (reconcile.DeviceRef, error) {
	locations, err := a.client.Locations(ctx)
	if err != nil {
		return reconcile.DeviceRef{}, classify("find_device", err)
	}
	var locationID string
	for _, loc := range locations {
		if strings.EqualFold(loc.Name, locationName) {
			locationID = loc.LocationID
			break
		}
	}
	if locationID == "" {
		return reconcile.DeviceRef{}, fmt.Errorf("smartthings location %q: %w", locationName, reconcile.ErrDeviceNotFound)
	}

	devices, err := a.client.Devices(ctx, locationID)
	if err != nil {
		return reconcile.DeviceRef{}, classify("find_device", err)
	}
	for _, d := range devices {
		if strings.EqualFold(d.Label, name) {
			return reconcile.DeviceRef{ID: d.DeviceID, Name: d.Label}, nil
		}
	}
	return reconcile.DeviceRef{}, fmt.Errorf("smartthings lock %q at %q: %w", name, locationName, reconcile.ErrDeviceNotFound)
}

// ListCodes refreshes the device, reads its code table, and folds the
// ledger windows back in. Slots the ledger does not know (or knows
// under a different name) report a zero window.
func (a *Adapter) ListCodes(ctx context.Context, device reconcile.DeviceRef) ([]reconcile.AccessCode, error) {
	if err := a.client.Refresh(ctx, device.ID); err != nil {
		// Stale status is better than no status.
		a.log.Warn("refresh failed, reading cached status", zap.String("device", device.ID), zap.Error(err))
	} else {
		a.sleep(a.delay)
	}

	table, err := a.client.LockCodes(ctx, device.ID)
	if err != nil {
		return nil, classify("list_codes", err)
	}
	windows, err := a.ledger.Windows(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	codes := make([]reconcile.AccessCode, 0, len(table))
	for slot, name := range table {
		code := reconcile.AccessCode{ID: slot, Label: name}
		if n, err := strconv.Atoi(slot); err == nil {
			if row, ok := windows[n]; ok && row.Label == name {
				code.Window = reconcile.Window{Begin: row.Begin, End: row.End}
			}
		}
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].ID < codes[j].ID })
	return codes, nil
}

// CreateCode programs the first free slot and records the window.
func (a *Adapter) CreateCode(ctx context.Context, device reconcile.DeviceRef, rawCode, label string, w reconcile.Window) error {
	a.pace()
	table, err := a.client.LockCodes(ctx, device.ID)
	if err != nil {
		return classify("create_code", err)
	}
	slot := nextFreeSlot(table)
	if err := a.client.SetCode(ctx, device.ID, slot, rawCode, label); err != nil {
		return classify("create_code", err)
	}
	return a.ledger.Record(ctx, device.ID, slot, label, w)
}

// UpdateCode overwrites a slot in place and re-records its window.
func (a *Adapter) UpdateCode(ctx context.Context, device reconcile.DeviceRef, codeID, rawCode, label string, w reconcile.Window) error {
	slot, err := strconv.Atoi(codeID)
	if err != nil {
		return &reconcile.VendorError{Kind: reconcile.KindRejected, Op: "update_code",
			Err: fmt.Errorf("bad slot id %q: %w", codeID, err)}
	}
	a.pace()
	if err := a.client.SetCode(ctx, device.ID, slot, rawCode, label); err != nil {
		return classify("update_code", err)
	}
	return a.ledger.Record(ctx, device.ID, slot, label, w)
}

// DeleteCode clears a slot and drops its ledger entry.
func (a *Adapter) DeleteCode(ctx context.Context, device reconcile.DeviceRef, codeID string) error {
	slot, err := strconv.Atoi(codeID)
	if err != nil {
		return &reconcile.VendorError{Kind: reconcile.KindRejected, Op: "delete_code",
			Err: fmt.Errorf("bad slot id %q: %w", codeID, err)}
	}
	a.pace()
	if err := a.client.DeleteCode(ctx, device.ID, slot); err != nil {
		return classify("delete_code", err)
	}
	return a.ledger.Forget(ctx, device.ID, slot)
}

// nextFreeSlot returns the smallest positive slot number not present in
// the code table.
func nextFreeSlot(table map[string]string) int {
	used := make(map[int]bool, len(table))
	for slot := range table {
		if n, err := strconv.Atoi(slot); err == nil {
			used[n] = true
		}
	}
	for n := 1; ; n++ {
		if !used[n] {
			return n
		}
	}
}
