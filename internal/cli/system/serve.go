package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/datasync"
	"github.com/julianstephens/drivewise/internal/gateway"
)

type ServeCmd struct {
	Addr        string        `help:"Address the gateway listens on." default:"127.0.0.1:8787"`
	AllowOrigin []string      `help:"Allowed CORS origins. Defaults to common localhost dev servers." name:"allow-origin"`
	Heartbeat   time.Duration `help:"Event stream keep-alive interval." default:"30s"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	layer := ctx.Layer()
	syncCtx := datasync.New(layer)
	defer syncCtx.Close()

	server := gateway.New(syncCtx, chat.NewSession(layer), gateway.Config{
		Addr:         c.Addr,
		AllowOrigins: c.AllowOrigin,
		Heartbeat:    c.Heartbeat,
		Debug:        ctx.Debug,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncDone := make(chan error, 1)
	go func() { syncDone <- syncCtx.Run(runCtx) }()

	fmt.Printf("Gateway listening on http://%s/api, press Ctrl+C to stop\n", c.Addr)
	serveErr := server.Run(runCtx)
	stop()
	return errors.Join(serveErr, <-syncDone)
}
