package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lock-sync/core/config"
	"lock-sync/core/database"
	"lock-sync/core/logger"
	"lock-sync/core/storage"
	"lock-sync/feature/properties"
)

var importObject string

// importCmd seeds the property registry from a JSON document in the
// storage bucket.
var importCmd = &cobra.Command{
	Use:   "import-properties",
	Short: "Import property records from object storage",
	Long: `Reads a JSON array of property records from the configured bucket and
upserts them into the registry. Existing properties are matched by name
and overwritten.`,
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

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return err
		}

		imp := properties.NewImporter(properties.NewStore(db), store, cfg.Storage.Bucket, logg)
		n, err := imp.Import(cmd.Context(), importObject)
		if err != nil {
			return err
		}
		logg.Info("import finished", zap.Int("records", n), zap.String("object", importObject))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importObject, "object", "properties.json",
		"object name of the property document in the bucket")
	RootCmd.AddCommand(importCmd)
}
