package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lock-sync/core/notify"
	"lock-sync/core/reconcile"
	"lock-sync/feature/hospitable"
	"lock-sync/feature/properties"
)

// Registry supplies the properties taking part in sync runs.
type Registry interface {
	Active(ctx context.Context) ([]properties.Property, error)
}

// ReservationSource supplies upcoming stays for one provider property.
type ReservationSource interface {
	Reservations(ctx context.Context, propertyID string) ([]hospitable.Reservation, error)
}

// RunReport is the outcome of one full sync run.
type RunReport struct {
	RunID      string                      `json:"run_id"`
	StartedAt  time.Time                   `json:"started_at"`
	FinishedAt time.Time                   `json:"finished_at"`
	Results    map[string]reconcile.Result `json:"results"`
}

// Service runs lock reconciliation across the property registry.
type Service struct {
	cfg          Config
	registry     Registry
	source       ReservationSource
	adapters     map[string]reconcile.Adapter
	reporter     notify.Reporter
	alwaysReport bool
	clock        reconcile.Clock
	loc          *time.Location
	log          *zap.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithClock substitutes the service's time source, which is also handed
// to the engines it builds.
func WithClock(c reconcile.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// NewService builds a Service. Adapters are keyed by brand name as it
// appears in the property registry.
func NewService(cfg Config, registry Registry, source ReservationSource,
	adapters map[string]reconcile.Adapter, reporter notify.Reporter,
	alwaysReport bool, log *zap.Logger, opts ...ServiceOption) (*Service, error) {

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		cfg:          cfg,
		registry:     registry,
		source:       source,
		adapters:     adapters,
		reporter:     reporter,
		alwaysReport: alwaysReport,
		clock:        reconcile.SystemClock{},
		loc:          loc,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes one sync pass over every active property, sequentially.
// Vendor accounts are single-writer, so properties are never processed
// concurrently. Only a registry read failure aborts the run; everything
// else lands in the per-property results.
func (s *Service) Run(ctx context.Context, purgeAll bool) (RunReport, error) {
	return s.RunWithID(ctx, uuid.NewString(), purgeAll)
}

// RunWithID is Run with a caller-chosen run identifier, for callers that
// hand the id out before the run finishes.
func (s *Service) RunWithID(ctx context.Context, runID string, purgeAll bool) (RunReport, error) {
	report := RunReport{
		RunID:     runID,
		StartedAt: s.clock.Now(),
		Results:   map[string]reconcile.Result{},
	}
	log := s.log.With(zap.String("run_id", report.RunID))
	log.Info("starting sync run", zap.Bool("purge_all", purgeAll))

	props, err := s.registry.Active(ctx)
	if err != nil {
		return report, fmt.Errorf("run %s: %w", report.RunID, err)
	}

	now := s.clock.Now().In(s.loc)
	for _, p := range props {
		if s.cfg.NonProd && p.Name != s.cfg.TestPropertyName {
			log.Info("skipping property outside non-prod allowlist", zap.String("property", p.Name))
			continue
		}
		res := s.syncProperty(ctx, log, p, now, purgeAll)
		report.Results[p.Name] = res

		if !res.Empty() || s.alwaysReport {
			summary := notify.Summary{
				RunID:        report.RunID,
				PropertyName: p.Name,
				Result:       res,
				CompletedAt:  s.clock.Now(),
			}
			if err := s.reporter.Summary(ctx, summary); err != nil {
				log.Error("summary delivery failed", zap.String("property", p.Name), zap.Error(err))
			}
		}
	}

	report.FinishedAt = s.clock.Now()
	log.Info("sync run finished", zap.Int("properties", len(report.Results)))
	return report, nil
}

func (s *Service) syncProperty(ctx context.Context, log *zap.Logger, p properties.Property, now time.Time, purgeAll bool) reconcile.Result {
	var res reconcile.Result
	log = log.With(zap.String("property", p.Name))

	adapter, ok := s.adapters[p.Brand]
	if !ok {
		msg := fmt.Sprintf("property %q has unknown lock brand %q", p.Name, p.Brand)
		log.Error("unknown brand", zap.String("brand", p.Brand))
		res.Errors = append(res.Errors, msg)
		s.message(ctx, log, msg)
		return res
	}

	stays, err := s.source.Reservations(ctx, p.SourceID)
	if err != nil {
		msg := fmt.Sprintf("fetching reservations for %q: %v", p.Name, err)
		log.Error("reservation fetch failed", zap.Error(err))
		res.Errors = append(res.Errors, msg)
		return res
	}
	reservations, parseErrs := s.convert(stays)
	res.Errors = append(res.Errors, parseErrs...)

	device, err := adapter.FindDevice(ctx, p.Location, p.LockName)
	if err != nil {
		lookupErr := &reconcile.DeviceLookupError{Location: p.Location, Name: p.LockName, Err: err}
		log.Error("device lookup failed", zap.Error(lookupErr))
		res.Errors = append(res.Errors, lookupErr.Error())
		s.message(ctx, log, fmt.Sprintf("unable to find lock `%s` at `%s`: %v", p.LockName, p.Name, err))
		return res
	}

	engine := reconcile.New(adapter, s.cfg.EngineConfig(),
		reconcile.WithClock(s.clock),
		reconcile.WithLogger(log))
	engineRes := engine.Sync(ctx, device, reservations, now, purgeAll)
	res.Merge(engineRes)
	return res
}

// convert parses provider reservations into engine reservations.
// Unparseable stays are reported and dropped; missing guest or phone
// data is left for the engine's own validation.
func (s *Service) convert(stays []hospitable.Reservation) ([]reconcile.Reservation, []string) {
	var out []reconcile.Reservation
	var errs []string
	for _, stay := range stays {
		checkin, err := time.ParseInLocation(hospitable.TimestampLayout, stay.Checkin, s.loc)
		if err != nil {
			errs = append(errs, fmt.Sprintf("reservation for %q has bad check-in %q", stay.Guest, stay.Checkin))
			continue
		}
		checkout, err := time.ParseInLocation(hospitable.TimestampLayout, stay.Checkout, s.loc)
		if err != nil {
			errs = append(errs, fmt.Sprintf("reservation for %q has bad check-out %q", stay.Guest, stay.Checkout))
			continue
		}
		out = append(out, reconcile.Reservation{
			GuestName: stay.Guest,
			Phone:     stay.Phone,
			Checkin:   checkin,
			Checkout:  checkout,
		})
	}
	return out, errs
}

func (s *Service) message(ctx context.Context, log *zap.Logger, text string) {
	if err := s.reporter.Message(ctx, text); err != nil {
		log.Error("message delivery failed", zap.Error(err))
	}
}
