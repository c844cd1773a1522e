// Prioris is a personal productivity server with an authentication-driven
// persistence engine: unauthenticated sessions stay on the local SQLite
// store, authenticated sessions read cloud-first with transparent local
// fallback and propagate writes to the cloud in the background.
//
// Usage:
//
//	prioris setup                             # interactive first-run wizard
//	prioris serve [--config <path>] [--verbose]  # start the HTTP server
//	prioris status                            # show config & database state
//	prioris version                           # print version
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

	"github.com/N3z3d/prioris/internal/api"
	"github.com/N3z3d/prioris/internal/auth"
	"github.com/N3z3d/prioris/internal/cloud"
	"github.com/N3z3d/prioris/internal/config"
	"github.com/N3z3d/prioris/internal/local"
	"github.com/N3z3d/prioris/internal/persistence"
	"github.com/N3z3d/prioris/internal/setup"
	"github.com/N3z3d/prioris/internal/telemetry"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// run dispatches to the appropriate subcommand.
func run() error {
	if len(os.Args) < 2 {
		return printUsage()
	}

	switch cmd := os.Args[1]; cmd {
	case "setup":
		return runSetup()
	case "serve":
		return runServe(os.Args[2:])
	case "status":
		return runStatus()
	case "version":
		fmt.Println("prioris", version)
		return nil
	default:
		return fmt.Errorf("unknown command %q — run 'prioris' for usage", cmd)
	}
}

// printUsage shows help and suggests setup if no config exists.
func printUsage() error {
	cfgPath, _ := config.DefaultPath()
	_, cfgErr := os.Stat(cfgPath)

	fmt.Fprintln(os.Stderr, "Prioris — local-first task lists with cloud sync")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  prioris setup                         Interactive first-run wizard")
	fmt.Fprintln(os.Stderr, "  prioris serve [--config ...] [--verbose]  Start the HTTP server")
	fmt.Fprintln(os.Stderr, "  prioris status                        Show config & database state")
	fmt.Fprintln(os.Stderr, "  prioris version                       Print version")
	fmt.Fprintln(os.Stderr, "")

	if cfgErr != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Run 'prioris setup' to get started.")
	}

	os.Exit(1)
	return nil // unreachable
}

// --- Subcommands -------------------------------------------------------------

// runSetup launches the interactive setup wizard.
func runSetup() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	wiz := setup.NewWizard(os.Stdin, os.Stdout, logger)
	return wiz.Run(ctx)
}

// runStatus prints the current configuration and database state.
func runStatus() error {
	cfgPath, _ := config.DefaultPath()

	fmt.Println("Prioris Status")
	fmt.Println("──────────────")

	dbPath, _ := config.DefaultDBPath()
	if _, err := os.Stat(cfgPath); err == nil {
		if cfg, loadErr := config.Load(cfgPath); loadErr == nil {
			fmt.Printf("  Config:    %s ✓\n", cfgPath)
			if cfg.Cloud != nil {
				fmt.Printf("  Cloud:     %s\n", cfg.Cloud.BaseURL)
			} else {
				fmt.Printf("  Cloud:     not configured (local-only)\n")
			}
			fmt.Printf("  Mode:      %s\n", cfg.Persistence.Mode)
			fmt.Printf("  Dedup:     %t\n", cfg.Persistence.EnableDeduplication)
			fmt.Printf("  Sync:      %t\n", cfg.Persistence.EnableBackgroundSync)
			fmt.Printf("  Listen:    %s\n", cfg.ListenAddr)
			if cfg.DBPath != "" {
				dbPath = cfg.DBPath
			}
		} else {
			fmt.Printf("  Config:    %s (invalid: %v)\n", cfgPath, loadErr)
		}
	} else {
		fmt.Printf("  Config:    not found (%s)\n", cfgPath)
	}

	if info, err := os.Stat(dbPath); err == nil {
		fmt.Printf("  Database:  %s (%s)\n", dbPath, humanSize(info.Size()))
	} else {
		fmt.Printf("  Database:  not found (%s)\n", dbPath)
	}

	return nil
}

// runServe starts the HTTP server with the full persistence engine behind it.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	defaultCfg, _ := config.DefaultPath()
	cfgPath := fs.String("config", defaultCfg, "path to config.yaml")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// --- Logger --------------------------------------------------------------

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// --- Config --------------------------------------------------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("loading config from %q: %w", *cfgPath, err)
	}
	logger.Info("config loaded",
		"mode", cfg.Persistence.Mode,
		"dedup", cfg.Persistence.EnableDeduplication,
		"background_sync", cfg.Persistence.EnableBackgroundSync,
		"cloud", cfg.Cloud != nil,
	)

	// --- Telemetry (optional) ------------------------------------------------

	if cfg.Telemetry != nil {
		telCfg := telemetry.Config{
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			Insecure:     cfg.Telemetry.Insecure,
			ServiceName:  cfg.Telemetry.ServiceName,
			Headers:      cfg.Telemetry.Headers,
		}
		shutdownTel, err := telemetry.Setup(context.Background(), telCfg)
		if err != nil {
			logger.Error("telemetry setup failed, continuing without telemetry", "error", err)
		} else {
			logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTel(flushCtx); err != nil {
					logger.Error("telemetry shutdown error", "error", err)
				}
			}()
		}
	}

	// --- Local store ---------------------------------------------------------

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolving database path: %w", err)
		}
	}
	store, err := local.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database at %q: %w", dbPath, err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("closing database", "error", closeErr)
		}
	}()
	logger.Info("database opened", "path", dbPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// --- Cloud adapter & connectivity check ----------------------------------

	var (
		cloudLists persistence.ListRepository = cloud.DisabledListClient{}
		cloudItems persistence.ItemRepository = cloud.DisabledItemClient{}
	)
	if cfg.Cloud != nil {
		adapter := cloud.NewAdapter(cfg.Cloud.BaseURL, cfg.Cloud.APIToken, logger)
		logger.Info("pinging cloud backend", "url", cfg.Cloud.BaseURL)
		if err := adapter.Ping(ctx); err != nil {
			// The engine falls back to local on every cloud failure, so an
			// unreachable backend at startup is not fatal.
			logger.Warn("cloud backend unreachable, continuing local-first", "error", err)
		} else {
			logger.Info("cloud backend reachable")
		}
		cloudLists = adapter.Lists()
		cloudItems = adapter.Items()
	}

	// --- Persistence engine --------------------------------------------------

	authCtx := auth.NewContext(logger)
	if cfg.Persistence.Mode == config.ModeHybrid {
		authCtx.SetModeOverride(auth.ModeHybrid)
	}
	authCtx.Initialize(false)
	defer authCtx.Dispose()

	dedup := persistence.NewDeduplicator(logger)
	ops := persistence.NewOperations(cfg.Persistence, store.Lists(), store.Items(), cloudLists, cloudItems, dedup, logger)
	syncer := persistence.NewSyncer(cfg.Persistence, authCtx, ops, logger)
	manager := persistence.NewStrategyManager(ops, syncer, authCtx, logger)
	defer manager.Dispose()

	bootstrap := persistence.NewBootstrap(ops, authCtx, logger)
	if seeded, err := bootstrap.Run(ctx); err != nil {
		logger.Warn("cloud bootstrap failed", "error", err)
	} else if seeded > 0 {
		logger.Info("local store seeded from cloud", "lists", seeded)
	}

	// --- HTTP server ---------------------------------------------------------

	handler := api.NewHandler(manager, authCtx, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")

		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}

		// Let in-flight background syncs finish before the store closes.
		syncer.Drain()
	}

	logger.Info("shutdown complete")
	return nil
}

// humanSize returns a human-readable file size string.
func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
