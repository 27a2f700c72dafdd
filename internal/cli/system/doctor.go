package system

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/cli/settings"
	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/keyring"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
	"github.com/julianstephens/drivewise/internal/notifier"
	"github.com/julianstephens/drivewise/internal/storage"
	"github.com/julianstephens/drivewise/internal/utils"
)

type DoctorCmd struct {
	Timeout time.Duration `help:"How long to wait for the backend." default:"5s"`
}

type check struct {
	name     string
	run      func() error
	warnOnly bool
	needsDB  bool
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	checks := []check{
		{name: "Storage reachable", run: func() error { return checkStorageReachable(ctx) }},
		{name: "Migrations complete", run: func() error { return checkMigrationsComplete(ctx) }, needsDB: true},
		{name: "Wellness logs", run: func() error { return checkWellnessLogs(ctx) }, needsDB: true},
		{name: "Settings", run: func() error { return checkSettings(ctx) }, needsDB: true},
		{name: "Token store", run: func() error { return checkTokenStore(ctx) }, needsDB: true},
		{name: "Backend reachable", run: func() error { return checkBackend(ctx, cmd.Timeout) }, needsDB: true},
		{name: "Clock/timezone", run: checkClockTimezone},
		{name: "Log file", run: checkLogFile, warnOnly: true},
		{name: "Tray notifications", run: func() error { return notifier.New().Available() }, warnOnly: true},
	}

	hasError := false
	dbReachable := true
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (storage not reachable)\n", c.name)
			continue
		}
		err := c.run()
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
			if c.name == "Storage reachable" {
				dbReachable = false
			}
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkStorageReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}
	if _, _, err := ctx.Store.GetItem(constants.StorageKeyTimezone); err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		// JSON and memory stores have no schema
		return nil
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	if pending > 0 {
		return fmt.Errorf("migrations incomplete: %d pending", pending)
	}
	return nil
}

func checkWellnessLogs(ctx *cli.Context) error {
	raw, ok, err := ctx.Store.GetItem(constants.StorageKeyWellnessLog)
	if err != nil || !ok {
		return err
	}
	var logs []models.WellnessLog
	if err := json.Unmarshal([]byte(raw), &logs); err != nil {
		return fmt.Errorf("stored wellness logs are corrupt and will be ignored: %w", err)
	}
	for _, l := range logs {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("wellness log %s: %w", l.ID, err)
		}
		if _, err := time.Parse(time.RFC3339, l.Timestamp); err != nil {
			return fmt.Errorf("wellness log %s has an invalid timestamp %q", l.ID, l.Timestamp)
		}
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	s := ctx.Settings()
	if _, err := settings.ValidateBaseURL(ctx.APIBaseURL()); err != nil {
		return err
	}
	if _, err := utils.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return nil
}

func checkTokenStore(ctx *cli.Context) error {
	if ctx.TokenStore != constants.TokenStoreStorage && !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available, use --token-store=%s", constants.TokenStoreStorage)
	}
	return nil
}

func checkBackend(ctx *cli.Context, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := ctx.Client().Ping(pingCtx); err != nil {
		return fmt.Errorf("%s is not reachable: %w", ctx.APIBaseURL(), err)
	}
	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkLogFile() error {
	path := logger.Path()
	if path == "" {
		return fmt.Errorf("logging is disabled for this run")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("log file %s is not writable: %w", path, err)
	}
	return f.Close()
}
