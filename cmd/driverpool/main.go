package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p-arndt/driverpool/internal/api"
	"github.com/p-arndt/driverpool/internal/config"
	"github.com/p-arndt/driverpool/internal/docker"
	"github.com/p-arndt/driverpool/internal/pool"
	"github.com/p-arndt/driverpool/internal/reaper"
	"github.com/p-arndt/driverpool/internal/session"
	"github.com/p-arndt/driverpool/internal/store"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "ps" {
		os.Exit(runPs(os.Args[2:]))
	}
	os.Exit(runDaemon(os.Args[1:]))
}

func printMainUsage() {
	fmt.Fprint(os.Stderr, `Usage:
  driverpool [--config <path>]                     Run daemon (foreground)
  driverpool ps [--config <path>] [--host <url>]   List tracked drivers
`)
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch cfg.LogFormat {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log_format %q", cfg.LogFormat)
	}
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("driverpool", flag.ContinueOnError)
	fs.Usage = printMainUsage
	cfgPath := fs.String("config", "", "path to driverpool.yaml")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}

	if cfg.APIKey == "" {
		logger.Warn("no API key configured, running in open access mode")
	}

	st, err := store.New(cfg.DBPath, 0)
	if err != nil {
		logger.Error("open store", "error", err)
		return 1
	}
	defer st.Close()

	dc, err := docker.New(cfg, logger.With("component", "docker"))
	if err != nil {
		logger.Error("docker client", "error", err)
		return 1
	}
	defer dc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := dc.Ping(ctx); err != nil {
		logger.Error("docker ping failed, is Docker running?", "error", err)
		return 1
	}
	logger.Info("docker connection OK")

	drivers := pool.New(pool.Config{
		Factory:         dc.Factory(),
		Recorder:        session.NewLedger(st),
		LivenessTimeout: cfg.LivenessTimeout(),
		QuitTimeout:     cfg.QuitTimeout(),
	}, logger.With("component", "pool"))

	mgr := session.NewManager(cfg, drivers, st, logger.With("component", "session"))

	if cfg.Reaper.Enabled {
		rpr := reaper.New(st, dc, cfg.ReaperInterval(), cfg.OrphanGrace(), logger.With("component", "reaper"))
		rpr.SetTracker(drivers)
		go rpr.Run(ctx)
	}

	srv := api.NewServer(cfg, mgr, logger.With("component", "api"))

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // browser startup can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-sigCh
		logger.Info("shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		if err := drivers.DismissAll(shutdownCtx); err != nil {
			logger.Error("dismiss drivers on shutdown", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.Listen)
	fmt.Fprintf(os.Stderr, "\n  driverpool daemon ready at http://%s\n\n", cfg.Listen)

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		return 1
	}
	<-done
	return 0
}
