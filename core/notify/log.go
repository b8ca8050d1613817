package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogReporter writes summaries to the structured logger. It is always
// enabled so a run leaves a trace even with every other sink down.
type LogReporter struct {
	log *zap.Logger
}

// NewLogReporter builds a reporter over the given logger.
func NewLogReporter(log *zap.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Summary(ctx context.Context, s Summary) error {
	r.log.Info("sync summary",
		zap.String("run_id", s.RunID),
		zap.String("property", s.PropertyName),
		zap.Strings("deletions", s.Result.Deletions),
		zap.Strings("updates", s.Result.Updates),
		zap.Strings("additions", s.Result.Additions),
		zap.Strings("errors", s.Result.Errors),
	)
	return nil
}

func (r *LogReporter) Message(ctx context.Context, text string) error {
	r.log.Info("sync notice", zap.String("message", text))
	return nil
}
