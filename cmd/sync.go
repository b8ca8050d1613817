package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lock-sync/core/config"
	"lock-sync/core/logger"
)

var purgeAll bool

// syncCmd runs one reconciliation pass from the command line, the way
// the scheduled trigger would.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one lock sync pass",
	Long: `Reconciles every active property's lock codes against its upcoming
reservations and exits. With --purge-all, every guest code is removed
regardless of expiry before codes for current reservations are re-added.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		svc, _, err := buildService(cfg, logg)
		if err != nil {
			return err
		}

		report, err := svc.Run(cmd.Context(), purgeAll)
		if err != nil {
			return err
		}

		failed := 0
		for name, res := range report.Results {
			if len(res.Errors) > 0 {
				failed++
				logg.Warn("property finished with errors",
					zap.String("property", name),
					zap.Strings("errors", res.Errors))
			}
		}
		logg.Info("sync complete",
			zap.String("run_id", report.RunID),
			zap.Int("properties", len(report.Results)),
			zap.Int("with_errors", failed))
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&purgeAll, "purge-all", false,
		"delete every guest code, including active ones, before re-adding")
	RootCmd.AddCommand(syncCmd)
}
