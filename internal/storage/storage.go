package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/storage/postgres"
	"github.com/julianstephens/drivewise/internal/storage/sqlite"
)

// Provider is device-local key/value storage. Values are whole blobs: every
// write replaces the previous value for its key.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// GetItem returns the value under key and whether it was present.
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error

	// Utils
	GetConfigPath() string
}

// Keys lists every key the client writes.
var Keys = []string{
	constants.StorageKeyToken,
	constants.StorageKeyWellnessLog,
	constants.StorageKeyAPIBaseURL,
	constants.StorageKeyTimezone,
}

// CopyItems copies every known key present in src into dst and returns how
// many were copied.
func CopyItems(dst, src Provider) (int, error) {
	copied := 0
	for _, key := range Keys {
		value, ok, err := src.GetItem(key)
		if err != nil {
			return copied, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if err := dst.SetItem(key, value); err != nil {
			return copied, fmt.Errorf("failed to write %s: %w", key, err)
		}
		copied++
	}
	return copied, nil
}

// Migrator is implemented by providers backed by a migrated schema.
type Migrator interface {
	PendingMigrations() (int, error)
}

// Open picks a provider for config: a PostgreSQL connection string, a
// .json file path, or an SQLite database path.
func Open(config string) (Provider, error) {
	if postgres.IsConnString(config) {
		if postgres.HasEmbeddedCredentials(config) {
			return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed, use the OS keyring, .pgpass or PGPASSWORD instead")
		}
		return postgres.New(config), nil
	}

	path, err := ExpandPath(config)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
