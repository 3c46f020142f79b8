package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rillflow/rill/internal/driver/file"
	"github.com/rillflow/rill/internal/driver/interval"
	"github.com/rillflow/rill/internal/engine"
	"github.com/rillflow/rill/internal/history"
	"github.com/rillflow/rill/internal/output"
	"github.com/rillflow/rill/internal/statedir"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <config.yaml>",
		Short: "Evaluate the configured inputs and re-evaluate on every change",
		Long: `Watch the files and timers named in the config, evaluating a snapshot of
all of them each cycle and blocking until any input changes.

Runs until interrupted. With history configured, every cycle is recorded
to a SQLite database for later inspection via "rill history".

Example:
  rill watch ./pipeline.yaml
  rill watch ./pipeline.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	return cmd
}

func runWatch(opts *WatchOptions, configPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := LoadWatchConfig(configPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid watch config", err)
	}
	slog.Info("config loaded", "pipeline", cfg.Name, "paths", len(cfg.Paths), "interval", cfg.Interval)

	historyPath, err := resolveHistoryPath(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve state directory", err)
	}

	var store *history.Store
	if historyPath != "" {
		slog.Info("opening history database", "path", historyPath)
		store, err = history.Open(historyPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				slog.Error("error closing history database", "error", closeErr)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	eng, err := buildEngine(ctx, cfg, store)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build engine", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Watching. Press Ctrl-C to stop.")

	err = eng.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		slog.Info("engine stopped gracefully")
		return nil
	case errors.Is(err, engine.ErrNoWatches):
		return WrapExitError(ExitFailure, "evaluation watches nothing", err)
	default:
		return WrapExitError(ExitFailure, "engine error", err)
	}
}

// resolveHistoryPath picks the cycle database location: an explicit path
// wins; otherwise a per-pipeline state directory under the state root.
// Empty means history recording is disabled.
func resolveHistoryPath(cfg *WatchConfig) (string, error) {
	if cfg.HistoryDB != "" {
		return cfg.HistoryDB, nil
	}
	if cfg.StateRoot == "" {
		return "", nil
	}
	dir, err := statedir.Dir(cfg.StateRoot, cfg.Name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cycles.db"), nil
}

// buildEngine wires monitors for every configured input and an evaluator
// that snapshots all of them each cycle.
func buildEngine(ctx context.Context, cfg *WatchConfig, store *history.Store) (*engine.Engine[string], error) {
	var files []*engine.Monitor[file.Snapshot]
	for _, p := range cfg.Paths {
		files = append(files, engine.NewMonitor(ctx, file.New(p)))
	}

	var ticks *engine.Monitor[time.Time]
	if period, ok, err := cfg.IntervalDuration(); err != nil {
		return nil, err
	} else if ok {
		ticks = engine.NewMonitor(ctx, interval.New(period))
	}

	opts := []engine.Option[string]{}

	if store != nil {
		last, err := store.LastSeq(ctx)
		if err != nil {
			return nil, err
		}
		// Resume cycle numbering past existing history.
		opts = append(opts, engine.WithClock[string](engine.NewClockAt(last)))

		record := history.Recorder[string](store)
		opts = append(opts, engine.WithTrace(func(c engine.Cycle, r output.Output[string], ws []engine.Watch) {
			engine.LogTrace(c, r, ws)
			record(c, r, ws)
		}))
	}

	return engine.New(pipelineEvaluator(files, ticks), opts...), nil
}

// pipelineEvaluator snapshots every input. The result is Ok with a
// one-line summary when all inputs have values, Pending while any input
// has not produced one yet, and Error carrying the first input failure.
func pipelineEvaluator(files []*engine.Monitor[file.Snapshot], ticks *engine.Monitor[time.Time]) engine.Evaluator[string] {
	return func(ctx context.Context) (output.Output[string], []engine.Watch) {
		var watches []engine.Watch
		var parts []string
		pending := false
		errMsg := ""

		for _, m := range files {
			snap, w := m.Get()
			watches = append(watches, w)
			switch snap.State() {
			case output.StateOk:
				s, _ := snap.Value()
				parts = append(parts, fmt.Sprintf("%s %s", m.Describe(), s))
			case output.StateError:
				if msg, _ := snap.ErrorMessage(); errMsg == "" {
					errMsg = msg
				}
			default:
				pending = true
			}
		}

		if ticks != nil {
			snap, w := ticks.Get()
			watches = append(watches, w)
			if at, ok := snap.Value(); ok {
				parts = append(parts, "tick "+at.UTC().Format(time.RFC3339))
			} else {
				pending = true
			}
		}

		switch {
		case errMsg != "":
			return output.Error[string](errMsg), watches
		case pending:
			return output.Pending[string](), watches
		default:
			return output.Ok(strings.Join(parts, "; ")), watches
		}
	}
}
