package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/drivewise/internal/api"
	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/integration"
	"github.com/julianstephens/drivewise/internal/keyring"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
	"github.com/julianstephens/drivewise/internal/storage"
	"github.com/julianstephens/drivewise/internal/utils"
)

// Context is shared by every command.
type Context struct {
	Store      storage.Provider
	APIURL     string // --api-url / DRIVEWISE_API_URL, empty when unset
	TokenStore string // keyring or storage
	Debug      bool

	once  sync.Once
	layer *integration.Layer
}

// Settings returns the stored settings with defaults applied.
func (c *Context) Settings() models.Settings {
	return storage.LoadSettings(c.Store)
}

// APIBaseURL resolves the backend root: flag or env, then stored setting.
func (c *Context) APIBaseURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return c.Settings().APIBaseURL
}

// Location returns the timezone wellness periods are evaluated in.
func (c *Context) Location() *time.Location {
	tz := c.Settings().Timezone
	loc, err := utils.LoadLocation(tz)
	if err != nil {
		logger.Warn("Invalid timezone setting, using local time", "timezone", tz, "error", err)
		return time.Local
	}
	return loc
}

// Tokens returns the configured token store.
func (c *Context) Tokens() integration.TokenStore {
	if strings.EqualFold(c.TokenStore, constants.TokenStoreStorage) {
		return storage.NewTokenStore(c.Store)
	}
	return keyring.NewTokenStore()
}

// Client returns a backend client reading tokens from the configured store.
func (c *Context) Client() *api.Client {
	return api.New(c.APIBaseURL(), c.Tokens())
}

// Layer returns the session's integration layer, built on first use.
func (c *Context) Layer() *integration.Layer {
	c.once.Do(func() {
		c.layer = integration.New(c.Client(), c.Tokens(), c.Store,
			integration.WithLocation(c.Location()),
		)
	})
	return c.layer
}

// RequireAuth fails with a hint when no token is stored.
func (c *Context) RequireAuth() error {
	if !c.Layer().IsAuthenticated() {
		return fmt.Errorf("not logged in, run '%s login' first", constants.AppName)
	}
	return nil
}

// PrintJSON writes v to stdout as indented JSON.
func PrintJSON(v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}
