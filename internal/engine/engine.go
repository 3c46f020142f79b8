package engine

import (
	"context"
	"log/slog"

	"github.com/rillflow/rill/internal/output"
)

// Evaluator walks a pipeline definition once and returns the result plus
// the full list of Watches touched anywhere in that evaluation. It must
// return promptly: anything expensive belongs behind a Monitor, not inline
// in the evaluation.
type Evaluator[R any] func(ctx context.Context) (output.Output[R], []Watch)

// Cycle identifies one pass of the run loop: a monotonic seq from the
// engine's Clock and a correlation token from its TokenGenerator.
type Cycle struct {
	Seq   int64
	Token string
}

// TraceFunc observes one completed cycle. It runs after the previous
// cycle's watches were released and before the engine starts waiting, so
// the watch list it sees is exactly the set the engine is about to block
// on.
type TraceFunc[R any] func(cycle Cycle, result output.Output[R], watches []Watch)

// Engine is the top-level evaluate/wait/re-evaluate loop.
//
// Each cycle: evaluate, release the previous cycle's watches, trace, then
// suspend until the first of the current watches fires. The loop has no
// upper bound on cycles; it ends only on context cancellation, on an
// evaluation that touched no inputs (ErrNoWatches), or by an evaluator
// panic propagating out of Run uncaught. The pipeline runs unsupervised,
// so a crash should be visible, not swallowed.
type Engine[R any] struct {
	evaluate Evaluator[R]
	trace    TraceFunc[R]
	clock    *Clock
	tokens   TokenGenerator
}

// Option configures an Engine.
type Option[R any] func(*Engine[R])

// WithTrace replaces the default slog trace sink.
func WithTrace[R any](fn TraceFunc[R]) Option[R] {
	return func(e *Engine[R]) {
		e.trace = fn
	}
}

// WithClock sets the cycle clock, e.g. one resumed from a history store.
func WithClock[R any](c *Clock) Option[R] {
	return func(e *Engine[R]) {
		e.clock = c
	}
}

// WithTokens sets the cycle token generator (tests use FixedTokens).
func WithTokens[R any](g TokenGenerator) Option[R] {
	return func(e *Engine[R]) {
		e.tokens = g
	}
}

// New creates an Engine around the given evaluator. Defaults: slog trace
// sink, fresh clock, UUIDv7 tokens.
func New[R any](evaluate Evaluator[R], opts ...Option[R]) *Engine[R] {
	e := &Engine[R]{
		evaluate: evaluate,
		trace:    LogTrace[R],
		clock:    NewClock(),
		tokens:   UUIDv7Tokens{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LogTrace is the default trace sink: one structured log line per cycle
// naming the result and the active watch list.
func LogTrace[R any](cycle Cycle, result output.Output[R], watches []Watch) {
	slog.Info("evaluation complete",
		"cycle", cycle.Seq,
		"token", cycle.Token,
		"result", result.String(),
		"watches", DescribeAll(watches),
	)
}

// Run drives the loop until ctx is cancelled (returns ctx.Err()) or an
// evaluation touches no inputs (returns ErrNoWatches). Watches issued to
// the loop are always released before Run returns.
func (e *Engine[R]) Run(ctx context.Context) error {
	slog.Info("engine starting")

	var prev []Watch
	for {
		if err := ctx.Err(); err != nil {
			ReleaseAll(prev)
			slog.Info("engine stopping: context cancelled")
			return err
		}

		result, watches := e.evaluate(ctx)
		cycle := Cycle{Seq: e.clock.Next(), Token: e.tokens.Generate()}

		// The previous cycle's watches are retired only now, after the
		// new evaluation has taken its own watches on the same
		// resources. Releasing earlier would let a Monitor's ref count
		// hit zero between cycles and tear down subscriptions that are
		// still wanted.
		ReleaseAll(prev)

		e.trace(cycle, result, watches)

		if len(watches) == 0 {
			slog.Error("evaluation touched no inputs", "cycle", cycle.Seq)
			return ErrNoWatches
		}

		idx, err := waitChanged(ctx, watches)
		if err != nil {
			ReleaseAll(watches)
			slog.Info("engine stopping: context cancelled")
			return err
		}
		slog.Debug("input changed, re-evaluating",
			"cycle", cycle.Seq,
			"watch", watches[idx].Describe(),
		)
		prev = watches
	}
}

// waitChanged blocks until the first Changed among the watches fires or
// ctx is cancelled, returning the index of the winner. One waiter
// goroutine is spawned per watch; losers are abandoned through the
// abandon channel so they never leak.
func waitChanged(ctx context.Context, watches []Watch) (int, error) {
	abandon := make(chan struct{})
	defer close(abandon)

	fired := make(chan int, len(watches))
	for i, w := range watches {
		go func(i int, ch <-chan struct{}) {
			select {
			case <-ch:
				fired <- i
			case <-abandon:
			}
		}(i, w.Changed())
	}

	select {
	case <-ctx.Done():
		return -1, ctx.Err()
	case i := <-fired:
		return i, nil
	}
}
