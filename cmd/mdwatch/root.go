/*
 * root.go, part of mdwatch.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmera/mdwatch"
	"github.com/rmera/mdwatch/config"
	"github.com/rmera/mdwatch/logging"
	"github.com/rmera/mdwatch/session"
)

var (
	configPath  string
	dirFlag     string
	updateFlag  time.Duration
	logFlag     string
	simsFlag    int
	statusFlag  string
	staleFlag   time.Duration
	logFileFlag string
)

var rootCmd = &cobra.Command{
	Use:           "mdwatch",
	Short:         "Monitor Amber molecular dynamics runs",
	Long:          "mdwatch follows the output of Amber simulations in a directory: energies, progress, simulated time and backbone RMSD.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, mdwatch.ErrResourceBusy) {
			fmt.Fprintf(os.Stderr, "mdwatch: %v. Is another mdwatch running? Use --port to pick another port.\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "mdwatch:", err)
		}
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	f.StringVarP(&dirFlag, "dir", "d", "", "directory to monitor (default \".\")")
	f.DurationVarP(&updateFlag, "update", "u", 0, "polling interval (default 10s)")
	f.StringVar(&logFlag, "log", "", "log level: debug, info, warn or error (default info)")
	f.IntVarP(&simsFlag, "simulations", "n", 0, "number of recent simulations in the simulated time (default 2)")
	f.StringVar(&statusFlag, "status-file", "", "name of the status file (default mdinfo)")
	f.DurationVar(&staleFlag, "stale-after", 0, "age after which the status file is considered stale (default 3m)")
	f.StringVar(&logFileFlag, "log-file", "", "write the log to this file instead of the standard error")
	rootCmd.AddCommand(serveCmd, tuiCmd, rmsdCmd)
}

// loadConfig reads the configuration file, if any, and applies the flags that were set.
// A positional argument is the directory to monitor.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	C, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("dir") {
		C.Dir = dirFlag
	}
	if len(args) > 0 {
		C.Dir = args[0]
	}
	if f.Changed("update") {
		C.Update = updateFlag
	}
	if f.Changed("log") {
		C.Log = logFlag
	}
	if f.Changed("simulations") {
		C.Simulations = simsFlag
	}
	if f.Changed("status-file") {
		C.StatusFile = statusFlag
	}
	if f.Changed("stale-after") {
		C.StaleAfter = staleFlag
	}
	if f.Changed("port") {
		C.Port = portFlag
	}
	if err := C.Check(); err != nil {
		return nil, err
	}
	info, err := os.Stat(C.Dir)
	if err != nil {
		return nil, mdwatch.FromOS(err, mdwatch.ErrInput, C.Dir, "loadConfig")
	}
	if !info.IsDir() {
		return nil, mdwatch.InputError("not a directory", C.Dir, "loadConfig", nil)
	}
	return C, nil
}

// newLogger returns the logger for C, writing to w unless a log file was given.
// The returned function closes the log file.
func newLogger(C *config.Config, w io.Writer) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(C.Log)
	if err != nil {
		return nil, nil, err
	}
	if logFileFlag == "" {
		return logging.New(w, level), func() {}, nil
	}
	f, err := os.OpenFile(logFileFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(f, level), func() { f.Close() }, nil
}

func newSession(ctx context.Context, C *config.Config) *session.Session {
	return session.New(session.Options{
		Dir:         C.Dir,
		Interval:    C.Update,
		StatusFile:  C.StatusFile,
		StaleAfter:  C.StaleAfter,
		Simulations: C.Simulations,
		ScanLines:   C.ScanLines,
		Workers:     C.Workers,
		Logger:      logging.FromContext(ctx),
	})
}
