package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/cli/advice"
	"github.com/julianstephens/drivewise/internal/cli/auth"
	"github.com/julianstephens/drivewise/internal/cli/chats"
	"github.com/julianstephens/drivewise/internal/cli/settings"
	"github.com/julianstephens/drivewise/internal/cli/stats"
	"github.com/julianstephens/drivewise/internal/cli/system"
	"github.com/julianstephens/drivewise/internal/cli/wellness"
	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/keyring"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/storage"
)

var CLI struct {
	Version    kong.VersionFlag
	Config     string `help:"Storage path or PostgreSQL connection string. Defaults to the keyring connection string, then ~/.config/drivewise/drivewise.db." type:"string"`
	APIURL     string `name:"api-url" help:"Backend base URL, overriding the stored setting." env:"DRIVEWISE_API_URL"`
	TokenStore string `help:"Where the API token is kept." enum:"keyring,storage" default:"keyring" env:"DRIVEWISE_TOKEN_STORE"`
	Debug      bool   `help:"Log debug output to stderr." env:"DRIVEWISE_DEBUG"`

	Init   system.InitCmd   `cmd:"" help:"Initialize drivewise storage."`
	Doctor system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Tui    system.TuiCmd    `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Serve  system.ServeCmd  `cmd:"" help:"Serve the session to browser front ends."`
	Sync   system.SyncCmd   `cmd:"" help:"Keep trip statistics and wellness data in sync."`
	Backup struct {
		Create  system.BackupCreateCmd  `cmd:"" help:"Create a storage backup." default:"1"`
		List    system.BackupListCmd    `cmd:"" help:"List storage backups."`
		Restore system.BackupRestoreCmd `cmd:"" help:"Restore storage from a backup."`
	} `cmd:"" help:"Manage SQLite storage backups."`

	Login    auth.LoginCmd    `cmd:"" help:"Log in with email and password."`
	Logout   auth.LogoutCmd   `cmd:"" help:"Log out and clear the stored token."`
	Register auth.RegisterCmd `cmd:"" help:"Create an account."`
	Verify   auth.VerifyCmd   `cmd:"" help:"Request an email verification code."`
	Refresh  auth.RefreshCmd  `cmd:"" help:"Refresh the API token."`
	Status   auth.StatusCmd   `cmd:"" help:"Show the session status."`

	Stats    stats.StatsCmd `cmd:"" help:"Show trip statistics."`
	Wellness struct {
		Log  wellness.WellnessLogCmd  `cmd:"" help:"Record a wellness check-in."`
		Show wellness.WellnessShowCmd `cmd:"" help:"Show wellness check-ins." default:"1"`
	} `cmd:"" help:"Track wellness check-ins."`
	Advice struct {
		Financial  advice.AdviceFinancialCmd  `cmd:"" help:"Saving, investing and insurance advice."`
		Wellness   advice.AdviceWellnessCmd   `cmd:"" help:"Rest and wellness recommendations."`
		Investment advice.AdviceInvestmentCmd `cmd:"" help:"Investment instruments for your budget."`
	} `cmd:"" help:"Ask the assistant for advice."`
	Chat  chats.ChatCmd  `cmd:"" help:"Chat with the assistant."`
	Chats chats.ChatsCmd `cmd:"" help:"List previous chats."`

	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Keyring  struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with the password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Show keyring availability and stored credentials." default:"1"`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
}

// storageFree commands run without loading storage first.
var storageFree = []string{"init", "doctor", "keyring", "backup"}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Earnings, wellness and financial companion for ride-hailing drivers"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	command := ctx.Command()
	if err := initLogger(command); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Logging disabled: %v\n", err)
	}
	defer logger.Close()

	store, err := storage.Open(resolveConfig(CLI.Config))
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if needsStorage(command) {
		if err := store.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "       Run '%s init' to create storage.\n", constants.AppName)
			os.Exit(1)
		}
	}

	appCtx := &cli.Context{
		Store:      store,
		APIURL:     CLI.APIURL,
		TokenStore: CLI.TokenStore,
		Debug:      CLI.Debug,
	}

	if err := ctx.Run(appCtx); err != nil {
		logger.Error("Command failed", "command", command, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfig picks storage: the --config flag, then the connection string
// in the OS keyring, then the default SQLite path.
func resolveConfig(flag string) string {
	if flag != "" {
		return flag
	}
	connStr, err := keyring.GetConnectionString()
	switch {
	case err == nil && connStr != "":
		return connStr
	case err != nil && !errors.Is(err, keyring.ErrNotFound):
		logger.Debug("Keyring lookup failed, using default storage", "error", err)
	}
	return constants.DefaultConfigPath
}

func needsStorage(command string) bool {
	name, _, _ := strings.Cut(command, " ")
	return !slices.Contains(storageFree, name)
}

// initLogger writes to the log file under the user config dir. Long-running
// commands also log to stderr.
func initLogger(command string) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	name, _, _ := strings.Cut(command, " ")
	return logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: filepath.Join(configDir, constants.AppName),
		Stderr:    name == "serve" || name == "sync",
	})
}
