package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"ytaudit/internal/config"
	"ytaudit/internal/report"
	"ytaudit/internal/storage"
)

// runReport builds the handler for the report command.
func runReport(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", DefaultConfigPath, "Path to experiment config")
		htmlPath := flags.String("html", "", "Also write an HTML report to this path")
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

		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}

		dir := config.ExperimentDir(cfg)
		store, err := storage.NewFileStore(config.ResultsDir(dir))
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open results: %v\n", err)
			return ExitError
		}

		results, err := report.Load(context.Background(), store)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load results: %v\n", err)
			return ExitError
		}

		if err := report.WriteText(stdout, cfg.Name, results); err != nil {
			fmt.Fprintf(stderr, "Failed to write report: %v\n", err)
			return ExitError
		}

		if *htmlPath != "" {
			if err := report.WriteHTML(*htmlPath, cfg.Name, results); err != nil {
				fmt.Fprintf(stderr, "Failed to write HTML report: %v\n", err)
				return ExitError
			}
			fmt.Fprintf(stdout, "HTML report: %s\n", *htmlPath)
		}
		return ExitOK
	}
}
