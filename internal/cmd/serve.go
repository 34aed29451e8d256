package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	errwrap "github.com/RimvydasPet/tech-doc-assistant/internal/errors"
	"github.com/RimvydasPet/tech-doc-assistant/internal/index"
	"github.com/RimvydasPet/tech-doc-assistant/internal/metrics"
	"github.com/RimvydasPet/tech-doc-assistant/internal/observability"
	"github.com/RimvydasPet/tech-doc-assistant/internal/server"
	"github.com/RimvydasPet/tech-doc-assistant/internal/server/handlers"
	"github.com/RimvydasPet/tech-doc-assistant/internal/store"
)

// storeHealthChecker pings the database behind the chunk and usage tables.
type storeHealthChecker struct {
	db *store.Store
}

func (c storeHealthChecker) CheckHealth(ctx context.Context) error {
	if err := c.db.DB.PingContext(ctx); err != nil {
		return errwrap.WrapDatabaseError(ctx, err, "store ping failed")
	}
	return nil
}

// indexHealthChecker fails readiness until the vector index has content.
type indexHealthChecker struct {
	idx *index.Index
}

func (c indexHealthChecker) CheckHealth(ctx context.Context) error {
	if c.idx.Len() == 0 {
		return errwrap.NewInternalError("vector index is empty; run 'docassist index build'")
	}
	return nil
}

// telemetryHealthChecker ensures the telemetry system and exporter are up.
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server cleanly shuts down the HTTP server, closes the store, and
flushes logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errwrap.WrapInvalidInput(cmd.Context(), err, "invalid configuration")
		}

		observability.InitServerLogger(appName, cfg.Logging.Level)

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(appName, cfg.Metrics.Port); err != nil {
				observability.ServerLogger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}

		componentLogger, err := observability.NewComponentLogger(cfg.Logging.Level)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "component logger initialization failed")
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", appName),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("provider", cfg.GenAI.Provider),
			zap.Int("metrics_port", cfg.Metrics.Port))

		application, err := buildApp(cmd.Context(), cfg, componentLogger)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "pipeline initialization failed")
		}

		observability.ServerLogger.Info("Vector index loaded",
			zap.Int("chunks", application.Index.Len()))
		if application.Index.Len() == 0 {
			observability.ServerLogger.Warn("Vector index is empty; run 'docassist index build' to populate it")
		}

		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("store", storeHealthChecker{db: application.Store})
		hm.RegisterChecker("vector_index", indexHealthChecker{idx: application.Index})
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}

		srv := server.New(cfg.Server, application.Assistant, application.Cache)
		metrics.SetServerStartTime(time.Now().Unix())

		// Evict sessions idle longer than session_max_age so abandoned
		// sessions do not accumulate.
		cleanupDone := make(chan struct{})
		if maxAge := cfg.Limits.SessionMaxAge; maxAge > 0 {
			go func() {
				ticker := time.NewTicker(maxAge / 4)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if removed := application.Limiter.CleanupIdle(maxAge); removed > 0 {
							observability.ServerLogger.Debug("Cleaned up idle sessions",
								zap.Int("removed", removed))
						}
					case <-cleanupDone:
						return
					}
				}
			}()
		}

		shutdownTimeout := srv.ShutdownTimeout()

		// Graceful shutdown handlers run LIFO: last registered, first executed.
		// Handler 1: flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: stop the cleanup loop and close the store
		signals.OnShutdown(func(ctx context.Context) error {
			close(cleanupDone)
			observability.ServerLogger.Info("Closing store...")
			if err := application.Close(); err != nil {
				observability.ServerLogger.Warn("Store close returned error", zap.Error(err))
			}
			return nil
		})

		// Handler 3: shut down the HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapInvalidInput(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
