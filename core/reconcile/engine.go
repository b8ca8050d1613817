package reconcile

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Engine drives one device's code table toward the desired state derived
// from reservations. It is single-writer: run at most one pass per vendor
// account at a time.
type Engine struct {
	adapter Adapter
	cfg     Config
	clock   Clock
	log     *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock substitutes the engine's time source. Tests inject a fake so
// settle delays cost nothing.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New builds an engine for one vendor adapter.
func New(adapter Adapter, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		adapter: adapter,
		cfg:     cfg.normalized(),
		clock:   SystemClock{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync reconciles one device against the given reservations.
//
// Deletions run first so a freed label can be reused immediately by the
// addition pass. Every failure is recorded in the result and processing
// continues; the pass aborts early only when the device's code table
// cannot be read at all. Re-running with unchanged inputs and no vendor
// failures is a no-op.
func (e *Engine) Sync(ctx context.Context, device DeviceRef, reservations []Reservation, now time.Time, purgeAll bool) Result {
	var res Result
	log := e.log.With(zap.String("device", device.Name), zap.String("vendor", e.adapter.Name()))

	codes, err := e.adapter.ListCodes(ctx, device)
	if err != nil {
		log.Error("unable to read code table", zap.Error(err))
		res.errorf("reading codes for %s: %v", device.Name, err)
		return res
	}

	// Deletion pass: drop every managed code that expired, or all of them
	// on a forced purge. Failures are recorded and the code is left for a
	// future run.
	deleted := false
	for _, code := range codes {
		if !strings.HasPrefix(code.Label, GuestLabelPrefix) {
			continue
		}
		if !purgeAll && !code.Window.ExpiredAt(now) {
			continue
		}
		deleted = true
		if err := e.adapter.DeleteCode(ctx, device, code.ID); err != nil {
			log.Error("delete failed", zap.String("label", code.Label), zap.Error(err))
			res.errorf("deleting code %q: %v", code.Label, err)
			continue
		}
		log.Info("deleted code", zap.String("label", code.Label))
		res.Deletions = append(res.Deletions, code.Label)
	}

	// The vendor may not reflect deletions immediately. Wait out the
	// settle delay and re-read so the addition pass sees freed labels.
	if deleted {
		e.clock.Sleep(e.cfg.SettleDelay)
		codes, err = e.adapter.ListCodes(ctx, device)
		if err != nil {
			log.Error("unable to re-read code table after deletions", zap.Error(err))
			res.errorf("re-reading codes for %s: %v", device.Name, err)
			return res
		}
	}

	// Addition/update pass. Labels claimed in this run detect collisions:
	// two reservations deriving the same label would otherwise silently
	// share one code.
	claimed := make(map[string]struct{})
	for _, r := range reservations {
		desired := e.cfg.DesiredWindow(r)
		if !now.Before(desired.End) {
			// Already past checkout plus offset; not considered at all.
			continue
		}

		label, err := DeriveLabel(r)
		if err != nil {
			res.errorf("reservation checking in %s: %v", r.Checkin.Format("2006-01-02"), err)
			continue
		}
		raw, err := DeriveRawCode(r.Phone)
		if err != nil {
			res.errorf("%s: %v", label, err)
			continue
		}

		if _, dup := claimed[label]; dup {
			res.errorf("%v", &CollisionError{Label: label})
			continue
		}
		claimed[label] = struct{}{}

		existing := findCode(codes, label)
		switch {
		case existing == nil:
			log.Info("adding code", zap.String("label", label))
			if err := e.createVerified(ctx, device, raw, label, desired, log); err != nil {
				res.errorf("adding code %q: %v", label, err)
				continue
			}
			res.Additions = append(res.Additions, label)

		case !existing.Window.Equal(desired):
			// The code exists, so the blast radius of a failed update is
			// small; one attempt, no verification loop.
			log.Info("updating code window", zap.String("label", label))
			if err := e.adapter.UpdateCode(ctx, device, existing.ID, raw, label, desired); err != nil {
				res.errorf("updating code %q: %v", label, err)
				continue
			}
			res.Updates = append(res.Updates, label)
		}
	}

	return res
}

// createVerified issues CreateCode under the attempt budget and trusts it
// only once the label is observed in a subsequent listing. Vendors may
// accept a write before it is applied, so each attempt is followed by up
// to VerifyAttempts reads separated by the settle delay.
func (e *Engine) createVerified(ctx context.Context, device DeviceRef, raw, label string, w Window, log *zap.Logger) error {
	m := NewCreateMutation(label, e.cfg.CreateAttempts, e.cfg.VerifyAttempts)

	for m.State() == StatePending {
		if m.Attempts() > 0 {
			e.clock.Sleep(e.cfg.SettleDelay)
		}
		m.BeginAttempt()
		log.Info("create attempt",
			zap.String("label", label),
			zap.Int("attempt", m.Attempts()),
			zap.Int("budget", e.cfg.CreateAttempts))

		if err := e.adapter.CreateCode(ctx, device, raw, label, w); err != nil {
			log.Warn("create call failed", zap.String("label", label), zap.Error(err))
			m.AttemptFailed(err)
			continue
		}
		m.AwaitVerification()

		for m.State() == StateAwaitingVerification {
			e.clock.Sleep(e.cfg.SettleDelay)
			codes, err := e.adapter.ListCodes(ctx, device)
			if err != nil {
				log.Warn("verification read failed", zap.String("label", label), zap.Error(err))
				m.VerifyMissed(err)
				continue
			}
			if findCode(codes, label) != nil {
				m.Verified()
				break
			}
			log.Warn("code not yet observed", zap.String("label", label))
			m.VerifyMissed(nil)
		}
	}

	if m.State() == StateVerified {
		return nil
	}
	return m.Err()
}
