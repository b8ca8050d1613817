package wyze

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"lock-sync/core/reconcile"
)

// neverExpires marks keys that carry no duration permission. They are
// not auto-expired; purge-all still removes them.
var neverExpires = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

// Adapter implements the engine's vendor contract for Wyze locks.
//
// The lock API requires the account user id on mutating calls but only
// reports it on key listings, so the adapter captures it from the first
// ListCodes and holds it for the session.
type Adapter struct {
	client *Client
	log    *zap.Logger
	delay  time.Duration
	sleep  func(time.Duration)

	mu     sync.Mutex
	userID string
}

// NewAdapter builds an Adapter over the given client.
func NewAdapter(client *Client, cfg Config, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		client: client,
		log:    log,
		delay:  time.Duration(cfg.APIDelaySeconds) * time.Second,
		sleep:  time.Sleep,
	}
}

func (a *Adapter) Name() string { return "wyze" }

// pace slows mutating calls down; the lock API throttles bursts.
func (a *Adapter) pace() {
	if a.delay > 0 {
		a.sleep(a.delay)
	}
}

// FindDevice resolves a lock by nickname. Wyze accounts are flat, so
// the location argument is ignored.
func (a *Adapter) FindDevice(ctx context.Context, _, name string) (reconcile.DeviceRef, error) {
	devices, err := a.client.Devices(ctx)
	if err != nil {
		return reconcile.DeviceRef{}, classify("find_device", err)
	}
	for _, d := range devices {
		if d.Nickname == name {
			return reconcile.DeviceRef{ID: d.MAC, Name: d.Nickname}, nil
		}
	}
	return reconcile.DeviceRef{}, fmt.Errorf("wyze lock %q: %w", name, reconcile.ErrDeviceNotFound)
}

// ListCodes returns the lock's key table and captures the account user
// id when a key reports one.
func (a *Adapter) ListCodes(ctx context.Context, device reconcile.DeviceRef) ([]reconcile.AccessCode, error) {
	keys, err := a.client.Keys(ctx, device.ID)
	if err != nil {
		return nil, classify("list_codes", err)
	}

	codes := make([]reconcile.AccessCode, 0, len(keys))
	for _, k := range keys {
		if k.UserID != "" {
			a.mu.Lock()
			if a.userID == "" {
				a.userID = k.UserID
				a.log.Debug("captured wyze user id from key listing")
			}
			a.mu.Unlock()
		}

		w := reconcile.Window{End: neverExpires}
		if k.Permission.Type == permissionDuration {
			w = reconcile.Window{
				Begin: time.UnixMilli(k.Permission.Begin),
				End:   time.UnixMilli(k.Permission.End),
			}
		}
		codes = append(codes, reconcile.AccessCode{
			ID:     strconv.FormatInt(k.ID, 10),
			Label:  k.Name,
			Window: w,
		})
	}
	return codes, nil
}

func (a *Adapter) CreateCode(ctx context.Context, device reconcile.DeviceRef, rawCode, label string, w reconcile.Window) error {
	userID, err := a.sessionUserID("create_code")
	if err != nil {
		return err
	}
	a.pace()
	err = a.client.CreateKey(ctx, device.ID, userID, rawCode, label,
		w.Begin.UnixMilli(), w.End.UnixMilli())
	return classify("create_code", err)
}

func (a *Adapter) UpdateCode(ctx context.Context, device reconcile.DeviceRef, codeID, rawCode, label string, w reconcile.Window) error {
	userID, err := a.sessionUserID("update_code")
	if err != nil {
		return err
	}
	a.pace()
	err = a.client.UpdateKey(ctx, device.ID, codeID, userID, rawCode, label,
		w.Begin.UnixMilli(), w.End.UnixMilli())
	return classify("update_code", err)
}

// DeleteCode removes a key. ErrNo 5021 means the key was already gone,
// which is the outcome the caller wanted.
func (a *Adapter) DeleteCode(ctx context.Context, device reconcile.DeviceRef, codeID string) error {
	a.pace()
	err := a.client.DeleteKey(ctx, device.ID, codeID)
	var ae *apiError
	if errors.As(err, &ae) && ae.ErrNo == errNoAlreadyDeleted {
		a.log.Info("wyze key already deleted", zap.String("code_id", codeID))
		return nil
	}
	return classify("delete_code", err)
}

// sessionUserID returns the user id captured from the key listing.
// Mutating without one is guaranteed to be refused, so the adapter
// fails fast instead of sending the doomed call.
func (a *Adapter) sessionUserID(op string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.userID == "" {
		return "", &reconcile.VendorError{
			Kind: reconcile.KindRejected,
			Op:   op,
			Err:  errors.New("no account user id found in key listing"),
		}
	}
	return a.userID, nil
}
