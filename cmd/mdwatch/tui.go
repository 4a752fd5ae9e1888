package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rmera/mdwatch/display/tui"
	"github.com/rmera/mdwatch/logging"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [dir]",
	Short: "Show the state of the simulation in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		C, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		//the screen belongs to the dashboard, the log goes only to a file.
		log, closeLog, err := newLogger(C, io.Discard)
		if err != nil {
			return err
		}
		defer closeLog()
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)
		return tui.Run(ctx, newSession(ctx, C), true)
	},
}
