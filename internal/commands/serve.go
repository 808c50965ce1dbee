package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/klabast/wb-services/groupie-dates/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cfg, cfgErr := app.LoadConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dates service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "Port to listen on")
	cmd.Flags().StringVar(&cfg.DataPath, "data", cfg.DataPath, "Data file (.json, .yaml or .db)")
	cmd.Flags().BoolVar(&cfg.EditMode, "edit", cfg.EditMode, "Enable edit mode (default is serve mode)")
	cmd.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "Reload the data file when it changes (serve mode)")
	cmd.Flags().StringVar(&cfg.DatesURL, "dates-url", cfg.DatesURL, "Dates endpoint the page renders from (default: own /dates)")
	cmd.Flags().StringVar(&cfg.ArtistsAPI, "artists-api", cfg.ArtistsAPI, "Groupie Tracker API root for the artist pages")
	return cmd
}

func runServe(ctx context.Context, cfg app.Config) error {
	var auth *app.Auth
	if cfg.EditMode {
		authFile, err := cfg.AuthFilePath()
		if err != nil {
			return err
		}
		auth, err = app.LoadAuth(authFile, logger)
		if err != nil {
			return fmt.Errorf("failed to load auth credentials: %w", err)
		}
	}

	store, err := app.OpenStore(cfg.DataPath, logger)
	if err != nil {
		return fmt.Errorf("failed to load dates: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Error closing store", zap.Error(err))
		}
	}()

	// Edits are staged until committed from the edit API
	fileStore, isFile := store.(*app.FileStore)
	if isFile && cfg.EditMode {
		if err := fileStore.EnableStaging(); err != nil {
			return fmt.Errorf("failed to load staged dates: %w", err)
		}
	}

	srv := app.NewServer(cfg, store, auth, logger)
	httpServer := srv.NewHTTPServer()

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", httpServer.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting Groupie Dates",
			zap.String("mode", cfg.Mode()),
			zap.String("addr", ln.Addr().String()),
			zap.String("data", cfg.DataPath),
			zap.String("dates_source", cfg.SourceURL()),
		)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	// The edit mode process is the only writer, so only serve mode watches
	if isFile && cfg.Watch && !cfg.EditMode {
		g.Go(func() error {
			return app.Watch(gctx, fileStore, logger)
		})
	}

	return g.Wait()
}
