package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const starterConfig = `version: 1
name: my-experiment
output_dir: experiments

# Per-video watch budget: a plain number of seconds, or a fraction of the
# video duration such as 0.5.
watch_time: 10

hops: 15
threads: 2
max_retries: 3
err_attempts: 5

# Randomized pause between task waves, in seconds.
sleep_range:
  min: 300
  max: 900

browser:
  headless: true
  incognito: false
  adblock: ""

tasks:
  - seed_ids: ["dQw4w9WgXcQ"]
    mode: long
  - seed_ids: ["dQw4w9WgXcQ"]
    mode: short
`

// runInit builds the handler for the init command.
func runInit(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", DefaultConfigPath, "Path to write the starter config")
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

		if _, err := os.Stat(*configPath); err == nil {
			fmt.Fprintf(stderr, "Init failed: %s already exists\n", *configPath)
			return ExitError
		} else if !os.IsNotExist(err) {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}

		if err := os.WriteFile(*configPath, []byte(starterConfig), 0o644); err != nil {
			fmt.Fprintf(stderr, "Init failed: %v\n", err)
			return ExitError
		}

		fmt.Fprintf(stdout, "Wrote %s\n", *configPath)
		fmt.Fprintln(stdout, "Edit the seed ids and experiment name, then run \"ytaudit run\".")
		return ExitOK
	}
}
