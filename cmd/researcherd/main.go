// Command researcherd serves the research engine over HTTP: POST a batch of
// entities, poll it until it finishes, abort it if needed. Batches run
// asynchronously against the same engine the researcher CLI uses.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ai-Whisperers/LangAi-sub012/api"
	"github.com/Ai-Whisperers/LangAi-sub012/config"
	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/batch"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/orchestration"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// shutdownTimeout bounds graceful shutdown: in-flight batches get cancelled
// and this long to seal their records before the listener closes.
const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("researcherd", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	addr := fs.String("addr", ":8080", "HTTP listen address")
	cfgPath := fs.String("config", "", "path to a YAML config file")
	reportDir := fs.String("report-dir", "", "write finished batch reports under this directory")
	logLevel := fs.String("log-level", "info", "zap log level (debug, info, warn, error)")
	logJSON := fs.Bool("log-json", false, "emit JSON logs instead of console encoding")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger, err := buildLogger(*logLevel, *logJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "researcherd: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	cfg := config.Default()
	if *cfgPath != "" {
		cfg, err = config.NewLoader().LoadFromFile(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "researcherd: %v\n", err)
			return exitUsage
		}
	}

	runFn, err := buildBatchFunc(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "researcherd: %v\n", err)
		return exitUsage
	}

	server := api.NewServer(*addr, runFn, api.Options{
		ReportDir: *reportDir,
		Logger:    logger,
	})

	logger.Info("researcherd: listening", zap.String("addr", *addr))

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("researcherd: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("researcherd: shutdown", zap.Error(err))
		}
		close(done)
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("researcherd: server", zap.Error(err))
		return exitFailed
	}

	<-done
	logger.Info("researcherd: stopped")
	return exitOK
}

// buildBatchFunc wires one engine per pipeline depth and dispatches each
// incoming batch to the matching runner. Both engines share the process
// config; the deep one carries the expanded node set and escalated models.
func buildBatchFunc(cfg *config.ResearchConfig, logger *zap.Logger) (api.BatchFunc, error) {
	runners := make(map[bool]*batch.Runner, 2)
	for _, deep := range []bool{false, true} {
		rt, err := orchestration.NewRuntime(cfg, deep, orchestration.FactoryOptions{Logger: logger})
		if err != nil {
			return nil, err
		}
		runner, err := batch.NewRunner(rt.Engine, batch.Options{
			Workers:       cfg.Batch.Workers,
			EntityTimeout: cfg.Batch.EntityTimeout.AsDuration(),
			Policy:        rt.Policy,
		}, rt.Audit)
		if err != nil {
			return nil, err
		}
		runners[deep] = runner
	}

	return func(ctx context.Context, entities []contracts.EntityID, deep bool) ([]contracts.BatchRecord, *contracts.Summary, error) {
		return runners[deep].Run(ctx, entities)
	}, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage:
  researcherd [flags]

Serves the research engine over HTTP:
  POST /api/v1/batches             start a research batch
  GET  /api/v1/batches/{id}        poll a batch
  POST /api/v1/batches/{id}/abort  abort a running batch

Flags:
`)
	fs.PrintDefaults()
}

// buildLogger constructs the process logger. Console encoding by default;
// -log-json switches to the production JSON encoder.
func buildLogger(level string, json bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, eris.Wrapf(err, "cli: log level %q", level)
	}

	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "cli: build logger")
	}
	return logger, nil
}
