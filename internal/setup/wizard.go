package setup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/N3z3d/prioris/internal/cloud"
	"github.com/N3z3d/prioris/internal/config"
)

// Wizard guides the user through first-run configuration.
type Wizard struct {
	prompt *Prompter
	logger *slog.Logger
	w      io.Writer
}

// NewWizard creates a Wizard wired to the given I/O and logger.
func NewWizard(r io.Reader, w io.Writer, logger *slog.Logger) *Wizard {
	return &Wizard{
		prompt: NewPrompter(r, w),
		logger: logger,
		w:      w,
	}
}

// Run executes the interactive setup wizard. It walks the user through the
// cloud backend connection, persistence behaviour, local database location,
// and config file creation.
func (wiz *Wizard) Run(ctx context.Context) error {
	fmt.Fprintf(wiz.w, "\nWelcome to Prioris Setup!\n")
	fmt.Fprintf(wiz.w, "This wizard will help you configure the Prioris server.\n\n")

	// Check for existing config.
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	if _, statErr := os.Stat(cfgPath); statErr == nil {
		fmt.Fprintf(wiz.w, "  Existing config found at %s\n", cfgPath)
		if !wiz.prompt.Confirm("Overwrite existing configuration?", false) {
			fmt.Fprintf(wiz.w, "\n  Keeping existing config.\n\n")
			return nil
		}
		fmt.Fprintf(wiz.w, "\n")
	}

	// Step 1: Cloud backend.
	fmt.Fprintf(wiz.w, "Step 1/4 — Cloud Backend\n")

	cloudCfg, err := wiz.configureCloud(ctx)
	if err != nil {
		return err
	}

	// Step 2: Persistence behaviour.
	fmt.Fprintf(wiz.w, "Step 2/4 — Persistence Behaviour\n")

	persistCfg, err := wiz.configurePersistence(cloudCfg != nil)
	if err != nil {
		return err
	}

	// Step 3: Local database.
	fmt.Fprintf(wiz.w, "Step 3/4 — Local Database\n")

	defaultDB, err := config.DefaultDBPath()
	if err != nil {
		return fmt.Errorf("resolving default database path: %w", err)
	}
	dbPath := wiz.prompt.String("SQLite database path", defaultDB)
	if dbPath == defaultDB {
		dbPath = "" // keep the config file portable when the default is chosen
	}
	listenAddr := wiz.prompt.String("HTTP listen address", ":8080")
	fmt.Fprintf(wiz.w, "\n")

	// Step 4: Write config.
	fmt.Fprintf(wiz.w, "Step 4/4 — Save Configuration\n")

	cfg := &config.Config{
		Cloud:       cloudCfg,
		Persistence: persistCfg,
		ListenAddr:  listenAddr,
		DBPath:      dbPath,
	}

	if err := cfg.Write(cfgPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(wiz.w, "  ✓ Config written to %s\n", cfgPath)

	fmt.Fprintf(wiz.w, "\nSetup complete!\n")
	fmt.Fprintf(wiz.w, "  Start the server with: prioris serve\n")
	fmt.Fprintf(wiz.w, "  Check health with:     prioris status\n\n")

	return nil
}

// configureCloud asks whether to connect a cloud backend and, if so, verifies
// the connection before accepting the settings.
func (wiz *Wizard) configureCloud(ctx context.Context) (*config.CloudConfig, error) {
	if !wiz.prompt.Confirm("Connect a cloud backend? (without one Prioris runs purely local)", true) {
		fmt.Fprintf(wiz.w, "\n  Running local-only. You can add a cloud block to the config later.\n\n")
		return nil, nil
	}

	for {
		baseURL := wiz.prompt.String("Cloud API URL", "https://api.prioris.app")
		token := wiz.prompt.Secret("API token")

		fmt.Fprintf(wiz.w, "  Connecting to cloud backend...")
		adapter := cloud.NewAdapter(baseURL, token, wiz.logger)
		if err := adapter.Ping(ctx); err != nil {
			fmt.Fprintf(wiz.w, " ✗\n")
			wiz.logger.Warn("cloud ping failed", "url", baseURL, "error", err)
			fmt.Fprintf(wiz.w, "  Could not reach the backend: %v\n", err)
			if wiz.prompt.Confirm("Try different settings?", true) {
				continue
			}
			if wiz.prompt.Confirm("Keep these settings anyway?", false) {
				return &config.CloudConfig{BaseURL: baseURL, APIToken: token}, nil
			}
			fmt.Fprintf(wiz.w, "\n  Running local-only.\n\n")
			return nil, nil
		}
		fmt.Fprintf(wiz.w, " ✓\n\n")
		return &config.CloudConfig{BaseURL: baseURL, APIToken: token}, nil
	}
}

// configurePersistence collects the strategy engine settings.
func (wiz *Wizard) configurePersistence(hasCloud bool) (config.PersistenceConfig, error) {
	cfg := config.PersistenceConfig{
		Mode:                config.ModeAuto,
		EnableDeduplication: true,
	}

	modeIdx, err := wiz.prompt.Select("Mode selection policy", []string{
		"auto — follow the authentication state (recommended)",
		"hybrid — always use the hybrid strategy",
	})
	if err != nil {
		return cfg, fmt.Errorf("selecting persistence mode: %w", err)
	}
	if modeIdx == 1 {
		cfg.Mode = config.ModeHybrid
	}

	cfg.EnableDeduplication = wiz.prompt.Confirm("Enable duplicate detection on save?", true)

	if hasCloud {
		cfg.EnableBackgroundSync = wiz.prompt.Confirm("Enable background sync to the cloud?", true)
	}

	if cfg.EnableBackgroundSync {
		timeoutStr := wiz.prompt.String("Per-attempt sync timeout (1s–5m)", "10s")
		timeout, parseErr := time.ParseDuration(timeoutStr)
		if parseErr != nil {
			timeout = 10 * time.Second
			fmt.Fprintf(wiz.w, "  (invalid duration, using default 10s)\n")
		}
		cfg.SyncTimeout = timeout
		cfg.MaxRetries = 2
	}

	fmt.Fprintf(wiz.w, "\n")
	return cfg, nil
}
