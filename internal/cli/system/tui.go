package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/datasync"
	"github.com/julianstephens/drivewise/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	layer := ctx.Layer()
	syncCtx := datasync.New(layer)
	defer syncCtx.Close()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = syncCtx.Run(runCtx) }()

	p := tea.NewProgram(tui.NewModel(syncCtx, chat.NewSession(layer)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with an error: %w", err)
	}
	return nil
}
