// Package runner drives one or more dispatch cycles against a chosen
// backend, aggregates pass/fail counts, and classifies terminal outcomes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/yoleg/proxytest/internal/backend"
	"github.com/yoleg/proxytest/internal/metrics"
	"github.com/yoleg/proxytest/internal/request"
	"github.com/yoleg/proxytest/internal/tracing"
)

// ExecutionError wraps an error the backend strategy returned, naming the
// backend so a broken strategy can be told apart from a broken proxy.
type ExecutionError struct {
	Backend string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("error running backend %s: %v", e.Backend, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IncompleteBatchError reports a backend that returned without finishing
// every record. This is a contract violation by the backend, never silently
// ignored.
type IncompleteBatchError struct {
	Backend    string
	Unfinished int
	Total      int
}

func (e *IncompleteBatchError) Error() string {
	return fmt.Sprintf("backend %s left %d out of %d requests unfinished", e.Backend, e.Unfinished, e.Total)
}

// Options configure the Runner.
type Options struct {
	Registry *backend.Registry
	Backend  string // name of the strategy to look up

	// NewBatch builds a fresh batch of records for each cycle. Records are
	// never reused across cycles.
	NewBatch func() ([]*request.Record, error)

	Timeout time.Duration // per-request timeout, enforced by the strategy
	Workers int           // worker-count hint (0 = unbounded, 1 = sequential)
	Repeat  time.Duration // interval between cycles (0 = run once)

	Logger    zerolog.Logger
	Collector *metrics.Collector // optional
	Tracer    trace.Tracer       // optional
}

// Result captures the aggregate outcome of all completed cycles.
type Result struct {
	Ran      int
	Failed   int
	Cycles   int
	Duration time.Duration
}

// Runner executes cycles strictly sequentially: cycle K+1 never starts
// before cycle K's dispatch call returns.
type Runner struct {
	opt      Options
	strategy backend.Strategy
}

// New looks up the configured backend and returns a ready Runner. A lookup
// failure surfaces the registry's *backend.NotFoundError.
func New(opt Options) (*Runner, error) {
	if opt.Registry == nil {
		return nil, errors.New("runner: registry is required")
	}
	if opt.NewBatch == nil {
		return nil, errors.New("runner: batch builder is required")
	}
	if opt.Workers < 0 {
		return nil, fmt.Errorf("runner: workers must be >= 0, got %d", opt.Workers)
	}
	strategy, err := opt.Registry.Lookup(opt.Backend)
	if err != nil {
		return nil, err
	}
	if opt.Tracer == nil {
		opt.Tracer = noop.NewTracerProvider().Tracer("proxytest")
	}
	return &Runner{opt: opt, strategy: strategy}, nil
}

// Run executes cycles until the repeat interval is unset or the context is
// cancelled. Cancellation while waiting between cycles is a normal
// termination, since no requests are in flight; a failure during an active
// cycle aborts the run with an error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	var res Result
	for {
		if err := r.runOnce(ctx, &res); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
		if r.opt.Repeat <= 0 {
			break
		}
		r.opt.Logger.Info().Msgf("waiting %.2fs before repeating; use ctrl+c to exit", r.opt.Repeat.Seconds())
		select {
		case <-time.After(r.opt.Repeat):
		case <-ctx.Done():
			res.Duration = time.Since(start)
			return res, nil
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (r *Runner) runOnce(ctx context.Context, res *Result) error {
	records, err := r.opt.NewBatch()
	if err != nil {
		return fmt.Errorf("runner: building batch: %w", err)
	}
	session := request.NewSession(records, r.opt.Timeout, r.opt.Workers)

	log := r.opt.Logger.With().Str("cycle", ulid.Make().String()).Logger()
	log.Info().
		Int("requests", len(records)).
		Str("backend", r.opt.Backend).
		Msgf("starting %d requests using %s", len(records), r.opt.Backend)

	cycleCtx, span := tracing.StartCycleSpan(ctx, r.opt.Tracer, r.opt.Backend, len(records))
	started := time.Now()

	if err := r.strategy.Process(cycleCtx, session); err != nil {
		wrapped := &ExecutionError{Backend: r.opt.Backend, Err: err}
		tracing.EndSpan(span, wrapped)
		return wrapped
	}

	// An interrupt during an active cycle aborts the run. The in-flight
	// requests failed with context errors, not proxy errors, so counting
	// them would misreport healthy proxies as broken.
	if err := ctx.Err(); err != nil {
		wrapped := fmt.Errorf("runner: cycle interrupted: %w", err)
		tracing.EndSpan(span, wrapped)
		return wrapped
	}

	if unfinished := session.Unfinished(); unfinished > 0 {
		err := &IncompleteBatchError{Backend: r.opt.Backend, Unfinished: unfinished, Total: len(records)}
		tracing.EndSpan(span, err)
		return err
	}
	tracing.EndSpan(span, nil)

	for _, rec := range records {
		failed := !rec.Succeeded()
		if failed {
			res.Failed++
		}
		if r.opt.Collector != nil {
			r.opt.Collector.RecordRequest(rec.Config.ProxyURL, rec.Elapsed(), failed)
		}
	}
	res.Ran += len(records)
	res.Cycles++
	if r.opt.Collector != nil {
		r.opt.Collector.RecordCycle()
	}

	percent := 0.0
	if res.Ran > 0 {
		percent = float64(res.Failed) / float64(res.Ran) * 100
	}
	log.Info().Msgf("summary: %d/%d requests failed (%.1f%%) in %.2fs",
		res.Failed, res.Ran, percent, time.Since(started).Seconds())
	return nil
}
