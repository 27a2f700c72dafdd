package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing storage before initialization."`
	Source string `help:"Storage path or connection string to copy token, wellness logs and settings from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if c.Source != "" {
			absDbPath, err := filepath.Abs(dbPath)
			if err == nil {
				dbPath = absDbPath
			}
			absSource, err := filepath.Abs(c.Source)
			if err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
		if _, err := os.Stat(dbPath); err == nil {
			if mgr, err := backupManager(ctx.Store); err == nil {
				info, err := mgr.Create()
				if err != nil {
					return fmt.Errorf("failed to back up existing storage: %w", err)
				}
				fmt.Printf("Backed up existing storage to: %s\n", info.Path)
			}
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing storage: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing storage: %w", err)
			}
			fmt.Printf("Deleted existing storage at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing storage: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized drivewise storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Printf("Copying data from: %s\n", c.Source)
		n, err := copyFrom(ctx.Store, c.Source)
		if err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		fmt.Printf("Copied %d items\n", n)
	}
	return nil
}

func copyFrom(dst storage.Provider, source string) (int, error) {
	src, err := storage.Open(source)
	if err != nil {
		return 0, err
	}
	if err := src.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source storage: %w", err)
	}
	defer src.Close()
	return storage.CopyItems(dst, src)
}
