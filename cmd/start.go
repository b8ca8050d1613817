package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"lock-sync/core/config"
	"lock-sync/core/logger"
	"lock-sync/core/middleware/auth"
	"lock-sync/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd runs the HTTP trigger server. Sync runs stay single-flight:
// a request landing while a run is in progress is turned away with 409.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the lock sync server",
	Long:  `Starts the HTTP server exposing the sync trigger and health check.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Wire the sync service
		svc, _, err := buildService(cfg, logg)
		if err != nil {
			logg.Fatal("Failed to build sync service", zap.Error(err))
		}

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Health check stays public for probes.
		app.Get("/healthz", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})

		// 3. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// Vendor accounts are single-writer; one run at a time.
		var running atomic.Bool
		app.Post("/api/sync/locks", func(c *fiber.Ctx) error {
			purge := c.QueryBool("purge_all", false)
			if !running.CompareAndSwap(false, true) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error": "a sync run is already in progress",
				})
			}

			runID := uuid.NewString()
			l := logger.WithRayID(logg, c).With(zap.String("run_id", runID))
			go func() {
				defer running.Store(false)
				if _, err := svc.RunWithID(context.Background(), runID, purge); err != nil {
					l.Error("sync run failed", zap.Error(err))
				}
			}()

			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"run_id":    runID,
				"purge_all": purge,
			})
		})

		// Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
