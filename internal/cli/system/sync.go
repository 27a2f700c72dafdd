package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/datasync"
	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/notifier"
)

type SyncCmd struct {
	Once     bool          `help:"Run a single full sync and exit."`
	Notify   bool          `help:"Send tray notifications on sync failures and new data."`
	Interval time.Duration `help:"Resync interval while running in the foreground." default:"2m"`
}

func (c *SyncCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireAuth(); err != nil {
		return err
	}

	syncCtx := datasync.New(ctx.Layer(), c.options()...)
	defer syncCtx.Close()

	if c.Once {
		err := syncCtx.SyncAllData(context.Background())
		printSnapshot(syncCtx.State())
		if err != nil {
			return fmt.Errorf("sync failed: %s", apperrors.Message(err))
		}
		return nil
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Syncing every %s, press Ctrl+C to stop\n", c.Interval)
	return syncCtx.Run(runCtx)
}

func (c *SyncCmd) options() []datasync.Option {
	opts := []datasync.Option{datasync.WithResyncInterval(c.Interval)}

	var n *notifier.Notifier
	if c.Notify {
		n = notifier.New()
	}
	opts = append(opts,
		datasync.WithSyncHook(func(r datasync.SyncResult) {
			if r.Err != nil {
				logger.Warn("Sync failed", "error", r.Err)
				fmt.Printf("%s  sync failed: %s\n", r.Time.Format("15:04:05"), apperrors.Message(r.Err))
			} else {
				fmt.Printf("%s  synced\n", r.Time.Format("15:04:05"))
			}
			if n != nil {
				n.OnSync(r)
			}
		}),
	)
	if n != nil {
		opts = append(opts, datasync.WithStatusHook(func(page constants.PageType) {
			go n.OnDataAvailable(page)
		}))
	}
	return opts
}

func printSnapshot(s datasync.Snapshot) {
	if s.LastSyncTime != nil {
		fmt.Printf("Last sync: %s\n", s.LastSyncTime.Format("2006-01-02 15:04:05"))
	}
	for _, page := range []constants.PageType{
		constants.PageDashboard,
		constants.PageEarnings,
		constants.PageAnalytics,
		constants.PageWellness,
		constants.PageFinancial,
	} {
		mark := "·"
		if s.CacheStatus.For(page) {
			mark = "✓"
		}
		fmt.Printf("  %s %s\n", mark, page)
	}
}
