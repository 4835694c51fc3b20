// Command proxytest tests whether HTTP/HTTPS proxies are working by
// fetching a webpage through each one.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/yoleg/proxytest/internal/backend"
	"github.com/yoleg/proxytest/internal/config"
	"github.com/yoleg/proxytest/internal/metrics"
	"github.com/yoleg/proxytest/internal/output"
	"github.com/yoleg/proxytest/internal/runner"
	"github.com/yoleg/proxytest/internal/tracing"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return runner.ExitSuccess
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return runner.ExitUnableToTest
	}

	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return runner.ExitUnableToTest
	}

	registry := backend.NewRegistry()
	if err := registry.Discover(builtinPlugins(), logger); err != nil {
		logger.Error().Err(err).Msg("backend discovery failed")
		return runner.ExitUnableToTest
	}
	if registry.Len() == 0 {
		evt := logger.Error()
		if pkgs := registry.Suggested(); len(pkgs) > 0 {
			evt = evt.Str("suggested", strings.Join(pkgs, ", "))
		}
		evt.Msg("no backends available")
		return runner.ExitUnableToTest
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Error().Err(err).Msg("tracing setup failed")
		return runner.ExitUnableToTest
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	endpoints, err := expandEndpoints(cfg.Proxies)
	if err != nil {
		logger.Error().Err(err).Msg("invalid proxy configuration")
		return runner.ExitUnableToTest
	}

	collector := metrics.NewCollector()
	observer := &output.LogObserver{Log: logger, Template: cfg.Format}
	if cfg.Print {
		observer.Print = os.Stdout
	}

	r, err := runner.New(runner.Options{
		Registry:  registry,
		Backend:   cfg.Backend,
		NewBatch:  newBatchFunc(cfg, endpoints, observer),
		Timeout:   cfg.Timeout,
		Workers:   cfg.Workers,
		Repeat:    cfg.Repeat,
		Logger:    logger,
		Collector: collector,
		Tracer:    tracer.Tracer(),
	})
	if err != nil {
		evt := logger.Error().Err(err)
		var notFound *backend.NotFoundError
		if errors.As(err, &notFound) {
			if pkgs := registry.Suggested(); len(pkgs) > 0 {
				evt = evt.Str("suggested", strings.Join(pkgs, ", "))
			}
		}
		evt.Msg("could not run tests")
		return runner.ExitUnableToTest
	}

	collector.Start()
	result, runErr := r.Run(ctx)
	stats := collector.Stats(result.Duration)

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, stats); err != nil {
			logger.Error().Err(err).Msg("writing JSON report")
			return runner.ExitUnableToTest
		}
	} else if !cfg.Quiet && result.Cycles > 0 {
		output.PrintReport(os.Stdout, stats)
	}

	if runErr != nil {
		logger.Error().Err(runErr).Msg("could not run tests")
	}
	return runner.ExitCode(result, runErr)
}

// newLogger builds the stderr console logger. Quiet wins over debug, debug
// over verbose; the default shows only warnings, matching the per-request
// failure lines without the chatter.
func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case cfg.Quiet:
		level = zerolog.Disabled
	case cfg.Debug:
		level = zerolog.DebugLevel
	case cfg.Verbose:
		level = zerolog.InfoLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "06/01/02 15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
