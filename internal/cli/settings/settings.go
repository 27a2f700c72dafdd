package settings

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/storage"
	"github.com/julianstephens/drivewise/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	BaseURL  *string `help:"Backend API root, e.g. https://api.example.com/api/v1." name:"base-url"`
	Timezone *string `help:"IANA timezone used for wellness periods, or Local."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings := storage.LoadSettings(ctx.Store)

	if c.List {
		fmt.Println("Current Settings:")
		fmt.Printf("  API Base URL:  %s\n", settings.APIBaseURL)
		if ctx.APIURL != "" && ctx.APIURL != settings.APIBaseURL {
			fmt.Printf("                 (overridden by --api-url: %s)\n", ctx.APIURL)
		}
		fmt.Printf("  Timezone:      %s\n", settings.Timezone)
		fmt.Printf("  Token Store:   %s\n", ctx.TokenStore)
		fmt.Printf("  Storage:       %s\n", ctx.Store.GetConfigPath())
		return nil
	}

	updated := false
	if c.BaseURL != nil {
		base, err := ValidateBaseURL(*c.BaseURL)
		if err != nil {
			return err
		}
		settings.APIBaseURL = base
		updated = true
	}
	if c.Timezone != nil {
		if _, err := utils.LoadLocation(*c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", *c.Timezone, err)
		}
		settings.Timezone = *c.Timezone
		updated = true
	}

	if updated {
		if err := storage.SaveSettings(ctx.Store, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("Settings updated successfully.")
	} else {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}

// ValidateBaseURL requires an absolute http(s) URL and drops a trailing slash.
func ValidateBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid base URL %q (expected http:// or https://)", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}
