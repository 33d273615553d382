package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mysbc/sbcadmin/internal/config"
	"github.com/mysbc/sbcadmin/internal/engine"
	"github.com/mysbc/sbcadmin/internal/events"
	"github.com/mysbc/sbcadmin/internal/server"
	"github.com/mysbc/sbcadmin/internal/storage"
	"github.com/mysbc/sbcadmin/internal/store/postgres"
	"github.com/mysbc/sbcadmin/internal/tts"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the administration HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		st, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (SBC_NATS_URL not set)")
		}

		fs := &engine.FreeSwitch{
			BaseDir:  cfg.EngineBaseDir,
			AudioDir: cfg.EngineAudioDir,
			APIBase:  cfg.APIBase,
			APIToken: cfg.AuthToken,
			CLI: &engine.FsCLI{
				Host:     cfg.EngineCLIHost,
				Port:     cfg.EngineCLIPort,
				Password: cfg.EngineCLIPassword,
				Timeout:  cfg.EngineCLITimeout,
			},
			ReloadEnabled: cfg.EngineReload,
			ReloadStrict:  cfg.EngineReloadStrict,
			Logger:        logger,
		}
		if !cfg.EngineReload {
			logger.Info("engine reload disabled, artifacts will be written only")
		}

		var blobs storage.BlobStore
		if cfg.AudioS3Bucket != "" {
			s3, err := storage.NewS3Store(cmd.Context(), cfg.AudioS3Bucket, cfg.AudioS3Region, cfg.AudioS3Endpoint)
			if err != nil {
				publisher.Close()
				st.Close()
				return err
			}
			blobs = s3
			logger.Info("audio object storage enabled", "bucket", cfg.AudioS3Bucket)
		}

		adminServer := server.New(server.Options{
			Store:     st,
			Publisher: publisher,
			Engine:    fs,
			Blobs:     blobs,
			Synth:     tts.Placeholder{},
			AudioDir:  cfg.EngineAudioDir,
		})

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: adminServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		if cfg.AuthToken == "" {
			logger.Warn("SBC_AUTH_TOKEN not set, API authentication is disabled")
		}

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
