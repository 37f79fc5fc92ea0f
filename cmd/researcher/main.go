// Package main is the batch research CLI: it takes a list of business
// entities, runs each through the research engine, and writes per-entity
// markdown reports plus a machine-readable batch summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ai-Whisperers/LangAi-sub012/config"
	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/batch"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/orchestration"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/report"
)

// Exit codes: 0 all entities succeeded, 1 at least one failed, 2 usage or
// configuration error.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("researcher", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	var (
		file     = fs.String("file", "", "entity list file, one per line, # comments skipped")
		workers  = fs.Int("workers", 4, "concurrent entity runs")
		timeout  = fs.Duration("timeout", 90*time.Second, "per-entity wall clock limit")
		outDir   = fs.String("out", "./out", "report output directory")
		deep     = fs.Bool("deep", false, "broader analysis set and stronger models")
		cfgPath  = fs.String("config", "", "YAML config file (merged over defaults)")
		logLevel = fs.String("log-level", "info", "log level: debug, info, warn, error")
		logJSON  = fs.Bool("log-json", false, "structured JSON logs instead of console")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger, err := buildLogger(*logLevel, *logJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	entities, err := loadEntities(fs.Args(), *file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}
	if len(entities) == 0 {
		fmt.Fprintln(os.Stderr, "error: no entities given")
		printUsage(fs)
		return exitUsage
	}

	cfg := config.Default()
	if *cfgPath != "" {
		cfg, err = config.NewLoader().LoadFromFile(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return exitUsage
		}
	}
	// Explicit flags win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Batch.Workers = *workers
		case "timeout":
			cfg.Batch.EntityTimeout = config.Duration(*timeout)
		}
	})

	rt, err := orchestration.NewRuntime(cfg, *deep, orchestration.FactoryOptions{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}

	runner, err := batch.NewRunner(rt.Engine, batch.Options{
		Workers:       cfg.Batch.Workers,
		EntityTimeout: cfg.Batch.EntityTimeout.AsDuration(),
		Policy:        rt.Policy,
	}, rt.Audit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, summary, err := runner.Run(ctx, entities)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUsage
	}

	table, err := batch.Compare(records, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitFailed
	}
	if err := writeOutputs(*outDir, records, summary, table); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitFailed
	}

	fmt.Print(report.RenderComparison(table))
	fmt.Printf("\n%d/%d succeeded, cost $%.4f, wall %s, cache hit rate %.0f%%, reports in %s\n",
		summary.Succeeded, summary.Entities, summary.TotalCostUSD,
		summary.WallDuration.Round(time.Millisecond), summary.CacheHitRate*100, *outDir)

	if summary.Failed > 0 {
		return exitFailed
	}
	return exitOK
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage:
  researcher [flags] <entity> [<entity>...]
  researcher [flags] -file entities.txt

Researches each entity and writes <out>/<entity>.md reports plus
summary.json and comparison.md.

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

// loadEntities merges positional args with the optional entity file.
// Order is preserved and duplicates collapse to their first occurrence.
func loadEntities(args []string, path string) ([]contracts.EntityID, error) {
	raw := append([]string(nil), args...)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "cli: read entity file %s", path)
		}
		for _, line := range strings.Split(string(data), "\n") {
			raw = append(raw, line)
		}
	}

	seen := make(map[string]struct{}, len(raw))
	entities := make([]contracts.EntityID, 0, len(raw))
	for _, e := range raw {
		e = strings.TrimSpace(e)
		if e == "" || strings.HasPrefix(e, "#") {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		entities = append(entities, contracts.EntityID(e))
	}
	return entities, nil
}

// writeOutputs renders every entity report, the batch summary and the
// comparison table under dir. Report paths are recorded before the summary
// is built so summary.json can point at them.
func writeOutputs(dir string, records []contracts.BatchRecord, summary *contracts.Summary, table *contracts.ComparisonTable) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "cli: create output dir %s", dir)
	}

	for i := range records {
		path, err := report.WriteEntity(dir, &records[i])
		if err != nil {
			return err
		}
		records[i].ReportPath = path
	}

	dto := report.BuildSummary(summary, records)
	if err := report.WriteSummaryJSON(filepath.Join(dir, "summary.json"), dto); err != nil {
		return err
	}

	return report.WriteComparison(filepath.Join(dir, "comparison.md"), table)
}
