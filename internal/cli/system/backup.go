package system

import (
	"fmt"
	"path/filepath"

	"github.com/julianstephens/drivewise/internal/backup"
	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/storage"
	"github.com/julianstephens/drivewise/internal/storage/sqlite"
)

// backupManager returns a manager for SQLite storage. Other backends keep
// their own backups.
func backupManager(store storage.Provider) (*backup.Manager, error) {
	if _, ok := store.(*sqlite.Store); !ok {
		return nil, fmt.Errorf("backups are only supported for SQLite storage")
	}
	return backup.NewManager(store.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx.Store)
	if err != nil {
		return err
	}
	info, err := mgr.Create()
	if err != nil {
		return err
	}
	fmt.Printf("✓ Backup created: %s (%d bytes)\n", info.Path, info.Size)
	return nil
}

type BackupListCmd struct {
	JSON bool `help:"Output as JSON."`
}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx.Store)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if c.JSON {
		return cli.PrintJSON(backups)
	}
	if len(backups) == 0 {
		fmt.Printf("No backups in %s\n", mgr.Dir())
		return nil
	}
	fmt.Printf("Backups in %s:\n", mgr.Dir())
	for _, b := range backups {
		fmt.Printf("  %s  %s  %d bytes\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), b.Size)
	}
	return nil
}

type BackupRestoreCmd struct {
	Path string `arg:"" optional:"" help:"Backup file to restore. Defaults to the newest backup."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx.Store)
	if err != nil {
		return err
	}
	path := c.Path
	if path == "" {
		latest, err := mgr.Latest()
		if err != nil {
			return err
		}
		path = latest.Path
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	previous, err := mgr.Restore(path)
	if err != nil {
		return err
	}
	if previous.Path != "" {
		fmt.Printf("ℹ Previous storage saved as %s\n", filepath.Base(previous.Path))
	}
	fmt.Printf("✓ Restored %s\n", filepath.Base(path))
	return nil
}
