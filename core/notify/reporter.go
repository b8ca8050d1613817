package notify

import (
	"context"
	"errors"
	"time"

	"lock-sync/core/reconcile"
)

// Summary is the outcome of one property's sync pass, as handed to
// reporters.
type Summary struct {
	// RunID identifies the sync run this summary belongs to.
	RunID string `json:"run_id"`

	// PropertyName is the property the pass processed.
	PropertyName string `json:"property_name"`

	// Result carries the labels touched and the errors hit.
	Result reconcile.Result `json:"result"`

	// CompletedAt is when the pass finished.
	CompletedAt time.Time `json:"completed_at"`
}

// Reporter receives structured sync outcomes.
type Reporter interface {
	// Summary delivers one property's sync outcome.
	Summary(ctx context.Context, s Summary) error

	// Message delivers a free-form operational message (auth failures,
	// skipped properties).
	Message(ctx context.Context, text string) error
}

// Config holds configuration for outcome reporting.
type Config struct {
	// SlackWebhookURL is the incoming-webhook endpoint. Empty disables
	// Slack delivery.
	SlackWebhookURL string `mapstructure:"slack_webhook_url" default:""`
	// AlwaysReport sends summaries even when a pass changed nothing.
	AlwaysReport bool `mapstructure:"always_report" default:"false"`
	// Archive stores run summaries in the object storage bucket.
	Archive bool `mapstructure:"archive" default:"true"`
}

// MultiReporter fans out to several reporters. Every reporter sees every
// summary; errors are joined so one failing sink does not hide another.
type MultiReporter []Reporter

func (m MultiReporter) Summary(ctx context.Context, s Summary) error {
	var errs []error
	for _, r := range m {
		if err := r.Summary(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiReporter) Message(ctx context.Context, text string) error {
	var errs []error
	for _, r := range m {
		if err := r.Message(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
