package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rmera/mdwatch/display/web"
	"github.com/rmera/mdwatch/logging"
	"github.com/rmera/mdwatch/rmsd"
	"github.com/rmera/mdwatch/session"
)

var (
	portFlag  int
	startFlag bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve the state of the simulation over HTTP",
	Long:  "serve polls the directory and serves the records, progress and plots as JSON and PNG, and runs RMSD jobs on request.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		C, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(C, os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		//bind first, so a busy port is reported before anything starts.
		ln, err := web.Listen(fmt.Sprintf(":%d", C.Port))
		if err != nil {
			return err
		}
		S := newSession(ctx, C)
		view := session.NewView()
		view.Apply(S.Init())
		trace := session.SinkFunc(func(ps []session.Patch) { log.Debug("patches applied", "n", len(ps)) })
		disp := session.NewDispatcher(S, session.Sinks{view, trace})
		engine := &rmsd.Engine{TargetFrames: C.RMSD.TargetFrames, Workers: C.RMSD.Workers, Fit: C.RMSD.Fit}
		srv := web.New(view, disp, engine, log)
		go disp.Run(ctx)
		if startFlag {
			if err := disp.Send(ctx, session.Toggle{On: true}); err != nil {
				return err
			}
		}
		log.Info("mdwatch started", "dir", C.Dir, "port", C.Port, "update", C.Update)
		return srv.Serve(ctx, ln)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 5100, "HTTP port")
	serveCmd.Flags().BoolVar(&startFlag, "start", false, "start monitoring right away")
}
