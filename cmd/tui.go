package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/wouldwatch/internal/shared"
	"github.com/desertthunder/wouldwatch/internal/ui"
)

// TUI launches the interactive terminal UI at the requested route.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil || r.api == nil {
		return fmt.Errorf("%w: services not connected", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Logging.TUIFile
	if logPath == "" {
		logPath = "./tmp/ww-tui.log"
	}
	if err := r.redirectLogs(logPath); err != nil {
		return err
	}

	err := ui.Run(ctx, ui.Deps{
		Auth:      r.auth,
		API:       r.api,
		AppURL:    r.config.API.AppURL,
		Mount:     r.mount,
		Clipboard: r.clipboard,
		Logger:    r.logger,
	}, cmd.String("path"))
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
