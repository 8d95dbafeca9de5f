package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"ytaudit/internal/audit"
	"ytaudit/internal/batch"
	"ytaudit/internal/browser"
	"ytaudit/internal/config"
	"ytaudit/internal/spec"
	"ytaudit/internal/state"
	"ytaudit/internal/statusserver"
	"ytaudit/internal/storage"
	"ytaudit/internal/ui/live"
)

// runOptions carries the parsed run flags.
type runOptions struct {
	UseLiveUI bool
	ServeAddr string
	DBPath    string
}

// runExperiment is a test seam for executing a configured experiment.
var runExperiment = executeExperiment

func runRun(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", DefaultConfigPath, "Path to experiment config")
		uiMode := flags.String("ui", "auto", "Terminal UI mode: auto, live, or plain")
		serveAddr := flags.String("serve", "", "Also serve status and metrics on this address")
		dbPath := flags.String("db", "", "DuckDB database path (default: <experiment-dir>/results.duckdb; \"off\" disables)")
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

		decision, err := resolveUIMode(*uiMode, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return ExitUsage
		}
		if decision.warning != "" {
			fmt.Fprintln(stderr, decision.warning)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := runOptions{
			UseLiveUI: decision.useLive,
			ServeAddr: *serveAddr,
			DBPath:    *dbPath,
		}
		if err := runExperiment(ctx, cfg, opts, stdout); err != nil {
			fmt.Fprintf(stderr, "Run failed: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}

// executeExperiment wires the tracker, stores, servers, UI and supervisor
// together and runs the experiment to completion.
func executeExperiment(ctx context.Context, cfg spec.Config, opts runOptions, stdout io.Writer) error {
	dir, err := config.CreateExperimentDir(cfg)
	if err != nil {
		return err
	}

	tracker, err := state.NewTracker(cfg.Name, dir)
	if err != nil {
		return err
	}

	store, err := openStores(dir, opts.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	tasks, err := config.TaskSpecs(cfg)
	if err != nil {
		return err
	}

	var hub *statusserver.Hub
	if opts.ServeAddr != "" {
		hub = statusserver.NewHub()
		serveCtx, cancelServe := context.WithCancel(ctx)
		defer cancelServe()
		go func() {
			if err := statusserver.Serve(serveCtx, statusserver.Config{
				Addr:    opts.ServeAddr,
				Tracker: tracker,
				Hub:     hub,
			}); err != nil {
				fmt.Fprintf(stdout, "Status server stopped: %v\n", err)
			}
		}()
		fmt.Fprintf(stdout, "Status at http://%s/status\n", opts.ServeAddr)
	}

	var controller *live.Controller
	if opts.UseLiveUI {
		controller = live.Start(stdout, live.Options{Experiment: cfg.Name})
	}

	deps := batch.Dependencies{
		NewSession: sessionFactory(cfg),
		Tracker:    tracker,
		Store:      store,
		Sink: func(e batch.Event) {
			controller.OnBatchEvent(e)
			if hub != nil {
				hub.Broadcast(e)
			}
		},
		ObserveSession: func(taskID string, e audit.Event) {
			controller.OnSessionEvent(taskID, e)
		},
	}
	runner, err := batch.NewRunner(cfg, tasks, deps)
	if err != nil {
		return err
	}

	runErr := runner.Run(ctx)

	if controller != nil {
		controller.Close()
		controller.Wait()
	}
	if runErr != nil {
		return runErr
	}

	snap := tracker.Snapshot()
	fmt.Fprintf(stdout, "Experiment %s %s\n", cfg.Name, snap.Status)
	fmt.Fprintf(stdout, "Completed: %d  Failed: %d\n", snap.Batch.CompletedTasks, snap.Batch.FailedTasks)
	fmt.Fprintf(stdout, "Results: %s\n", config.ResultsDir(dir))
	fmt.Fprintf(stdout, "Status: %s\n", tracker.Path())
	return nil
}

// openStores builds the result store stack for an experiment directory.
// Results always land as JSON files; a DuckDB mirror is kept unless
// disabled with "off".
func openStores(experimentDir, dbPath string) (storage.Store, error) {
	files, err := storage.NewFileStore(config.ResultsDir(experimentDir))
	if err != nil {
		return nil, err
	}
	if dbPath == "off" {
		return files, nil
	}
	if dbPath == "" {
		dbPath = filepath.Join(experimentDir, "results.duckdb")
	}
	duck, err := storage.OpenDuckDB(dbPath)
	if err != nil {
		return nil, err
	}
	return storage.NewComposite(files, duck), nil
}

// sessionFactory builds audit sessions that drive a real browser.
func sessionFactory(cfg spec.Config) batch.SessionFactory {
	return func(task spec.TaskSpec, sink audit.EventSink) (batch.Auditor, error) {
		return audit.New(audit.Config{
			Mode:     task.Mode,
			Budget:   cfg.WatchTime,
			Attempts: cfg.Attempts,
			Launch: func(ctx context.Context) (browser.Agent, error) {
				return browser.Launch(ctx, browser.Options{
					Headless:         cfg.Browser.Headless,
					Incognito:        cfg.Browser.Incognito,
					AdblockExtension: cfg.Browser.Adblock,
				})
			},
			Sink: sink,
		})
	}
}
