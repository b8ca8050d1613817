package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lock-sync/core/config"
	"lock-sync/core/database"
	"lock-sync/core/notify"
	"lock-sync/core/reconcile"
	"lock-sync/core/storage"
	"lock-sync/feature/hospitable"
	"lock-sync/feature/locks"
	"lock-sync/feature/locks/brand/smartthings"
	"lock-sync/feature/locks/brand/wyze"
	"lock-sync/feature/properties"
)

// buildService wires the sync service from configuration: database,
// reservation provider, brand adapters, and reporters. Both the start
// and sync commands share it.
func buildService(cfg *config.Config, logg *zap.Logger) (*locks.Service, *gorm.DB, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}

	provider := hospitable.NewClient(cfg.Hospitable, nil, logg)

	adapters := map[string]reconcile.Adapter{
		"wyze": wyze.NewAdapter(wyze.NewClient(cfg.Wyze, nil, logg), cfg.Wyze, logg),
		"smartthings": smartthings.NewAdapter(
			smartthings.NewClient(cfg.SmartThings, nil, logg),
			smartthings.NewLedger(db),
			cfg.SmartThings, logg),
	}

	reporter, err := buildReporter(cfg, logg)
	if err != nil {
		return nil, nil, err
	}

	svc, err := locks.NewService(cfg.Sync, properties.NewStore(db), provider,
		adapters, reporter, cfg.Notify.AlwaysReport, logg)
	if err != nil {
		return nil, nil, err
	}
	return svc, db, nil
}

// buildReporter assembles the reporting fan-out. The zap reporter is
// always on; Slack and the object storage archive depend on config.
func buildReporter(cfg *config.Config, logg *zap.Logger) (notify.Reporter, error) {
	reporters := notify.MultiReporter{notify.NewLogReporter(logg)}

	if cfg.Notify.SlackWebhookURL != "" {
		reporters = append(reporters, notify.NewSlackReporter(cfg.Notify.SlackWebhookURL, nil))
	}
	if cfg.Notify.Archive {
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		arch := notify.NewArchiveReporter(store, cfg.Storage.Bucket)
		if err := arch.EnsureBucket(context.Background()); err != nil {
			return nil, fmt.Errorf("report archive: %w", err)
		}
		reporters = append(reporters, arch)
	}
	return reporters, nil
}
