package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/csbs/studyportal/internal/auth"
	"github.com/csbs/studyportal/internal/config"
	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/csbs/studyportal/internal/logging"
	"github.com/csbs/studyportal/internal/mcp"
	"github.com/csbs/studyportal/internal/metrics"
	"github.com/csbs/studyportal/internal/reconcile"
	"github.com/csbs/studyportal/internal/store"
	"github.com/csbs/studyportal/internal/transport"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "portal",
		Short:         "Student portal backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if configPath != "" {
				return os.Setenv("PORTAL_CONFIG_PATH", configPath)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Recount every work once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReconcile(cmd.Context())
		},
	})
	return root
}

// app holds the process-wide dependencies built at startup.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *store.Store
	works    *work.Service
	services transport.Services
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "config error")
	}
	logger := logging.New(cfg.Log)

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, errors.Wrap(err, "failed to open store")
	}

	works := work.NewService(st.Works, st.Activity, logger)
	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		works:  works,
		services: transport.Services{
			Works:     works,
			Portions:  portion.NewService(st.Portions, st.Activity, logger),
			Materials: material.NewService(st.Materials, st.Activity, logger),
			Activity:  activity.NewService(st.Activity, logger),
		},
	}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.store.Close(ctx); err != nil {
		a.logger.Error("failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	m := metrics.New()
	cfg := transport.Config{
		Services: a.services,
		Logger:   a.logger,
		Metrics:  m,
	}

	var verifier *auth.Verifier
	if a.cfg.Auth.Enabled {
		verifier = auth.NewVerifier(a.cfg.Auth.JWTSecret)
		cfg.Verifier = verifier
	}

	if a.cfg.MCP.Enabled {
		mcpCfg := mcp.Config{
			Services: mcp.Services{
				Works:     a.services.Works,
				Portions:  a.services.Portions,
				Materials: a.services.Materials,
				Activity:  a.services.Activity,
			},
			Logger:  a.logger.Named("mcp"),
			Version: version,
		}
		if verifier != nil {
			mcpCfg.Verifier = verifier
		}
		cfg.MCPHandler = mcp.NewHTTPHandler(mcp.NewServer(mcpCfg))
	}

	if schedule := a.cfg.Reconcile.Schedule; schedule != "" {
		scheduler := reconcile.NewScheduler(a.works, m, schedule, a.logger.Named("reconcile"))
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("store", a.cfg.Store.Driver),
			zap.Bool("auth", a.cfg.Auth.Enabled),
			zap.Bool("mcp", a.cfg.MCP.Enabled))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(a.logger, httpServer, errCh)
}

func runReconcile(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	fixed, err := reconcile.NewScheduler(a.works, nil, "", a.logger).RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("repaired %d work(s)\n", fixed)
	return nil
}

func waitForShutdown(logger *zap.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "server error")
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "shutdown error")
	}
	return nil
}
