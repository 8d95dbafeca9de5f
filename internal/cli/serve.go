package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"ytaudit/internal/config"
	"ytaudit/internal/state"
	"ytaudit/internal/statusserver"
)

// serveStatus is a test seam for running the status server.
var serveStatus = statusserver.Serve

// runServe builds the handler for the serve command.
func runServe(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", DefaultConfigPath, "Path to experiment config")
		addr := flags.String("addr", "127.0.0.1:5000", "Address to listen on")
		if err := flags.Parse(args); err != nil {
			if err == flag.ErrHelp {
				printCommandUsage(cmd, stdout)
				return ExitOK
			}
			fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if flags.NArg() > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(flags.Args(), " "))
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if *addr == "" {
			fmt.Fprintln(stderr, "Missing --addr")
			return ExitUsage
		}

		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}

		dir := config.ExperimentDir(cfg)
		tracker, err := state.NewTracker(cfg.Name, dir)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open experiment: %v\n", err)
			return ExitError
		}
		found, err := tracker.LoadExisting()
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read status: %v\n", err)
			return ExitError
		}
		if !found {
			fmt.Fprintf(stderr, "No status found for experiment %q under %s\n", cfg.Name, dir)
			return ExitError
		}

		fmt.Fprintf(stdout, "Serving status at http://%s/status\n", *addr)
		if err := serveStatus(context.Background(), statusserver.Config{
			Addr:    *addr,
			Tracker: tracker,
			Hub:     statusserver.NewHub(),
		}); err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}
