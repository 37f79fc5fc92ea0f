// Package batch fans a set of entities across a bounded worker pool, runs
// each through the engine under a wall-clock timeout, and seals exactly one
// record per entity. Failure isolation is total: a panicking, erroring or
// timed-out entity costs the batch one failed record, never the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
	"github.com/Ai-Whisperers/LangAi-sub012/internal/audit"
)

const (
	defaultWorkers       = 4
	defaultEntityTimeout = 90 * time.Second
)

// Options tune one batch invocation. Zero values fall back to defaults.
type Options struct {
	Workers       int
	EntityTimeout time.Duration
	Policy        contracts.RunPolicy
}

// Runner drives entity runs through a shared engine.
type Runner struct {
	engine contracts.Engine
	opts   Options
	audit  *audit.Logger
}

// NewRunner creates a batch runner. The audit logger may be nil, in which
// case lifecycle events are discarded.
func NewRunner(engine contracts.Engine, opts Options, auditLog *audit.Logger) (*Runner, error) {
	if engine == nil {
		return nil, fmt.Errorf("batch: nil engine: %w", contracts.ErrInvalidInput)
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.EntityTimeout <= 0 {
		opts.EntityTimeout = defaultEntityTimeout
	}
	if auditLog == nil {
		auditLog = audit.NewNop()
	}
	return &Runner{engine: engine, opts: opts, audit: auditLog}, nil
}

// Run executes every entity and returns one sealed record per entity in
// submission order, plus the batch summary. The returned error covers batch
// setup only; per-entity failures live in the records.
func (r *Runner) Run(ctx context.Context, entities []contracts.EntityID) ([]contracts.BatchRecord, *contracts.Summary, error) {
	if len(entities) == 0 {
		return nil, nil, eris.Wrap(contracts.ErrNoEntities, "batch: nothing to run")
	}

	batchID := contracts.BatchID(uuid.NewString())
	started := time.Now()
	log := r.audit.With(zap.String("batch_id", string(batchID)))
	log.Event(audit.EventBatchStarted,
		zap.Int("entities", len(entities)),
		zap.Int("workers", r.opts.Workers),
		zap.Duration("entity_timeout", r.opts.EntityTimeout),
		zap.Bool("deep", r.opts.Policy.Deep),
	)

	// Plain group, not WithContext: one entity's failure must not cancel its
	// siblings. Records are indexed by submission position, one goroutine per
	// slot, so no locking is needed.
	records := make([]contracts.BatchRecord, len(entities))
	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, entity := range entities {
		g.Go(func() error {
			records[i] = r.runEntity(ctx, entity, log)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	summary := summarize(batchID, records, started)
	log.Event(audit.EventBatchSealed,
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Float64("total_cost_usd", summary.TotalCostUSD),
		zap.Float64("cache_hit_rate", summary.CacheHitRate),
		zap.Duration("wall", summary.WallDuration),
	)
	return records, summary, nil
}

// runOutcome carries one engine run's result across the watchdog channel.
type runOutcome struct {
	state    *contracts.State
	err      error
	panicked bool
}

// runEntity executes one entity under the wall-clock timeout. The engine run
// happens in a child goroutine; the worker waits on its outcome or the
// deadline. Cancellation is non-preemptive: on timeout the worker detaches
// and seals a timeout record, and whatever the detached run still produces
// is discarded (the buffered channel keeps the goroutine from leaking).
func (r *Runner) runEntity(ctx context.Context, entity contracts.EntityID, log *audit.Logger) contracts.BatchRecord {
	started := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, r.opts.EntityTimeout)
	defer cancel()

	outcome := make(chan runOutcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				outcome <- runOutcome{err: eris.Errorf("batch: entity run panicked: %v", rec), panicked: true}
			}
		}()
		state, err := r.engine.Run(runCtx, entity, r.opts.Policy)
		outcome <- runOutcome{state: state, err: err}
	}()

	select {
	case out := <-outcome:
		return r.seal(entity, out, time.Since(started), log)
	case <-runCtx.Done():
		err := eris.Wrap(contracts.ErrEntityTimeout, "batch: run entity")
		if !errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = eris.Wrap(runCtx.Err(), "batch: run aborted")
		}
		return r.seal(entity, runOutcome{err: err}, time.Since(started), log)
	}
}

// seal builds the entity's immutable record. Called exactly once per entity.
func (r *Runner) seal(entity contracts.EntityID, out runOutcome, duration time.Duration, log *audit.Logger) contracts.BatchRecord {
	rec := contracts.BatchRecord{
		Entity:   entity,
		Duration: duration,
		CacheHit: r.opts.Policy.FastPathThreshold > 0 && duration < r.opts.Policy.FastPathThreshold,
	}
	if out.state != nil {
		rec.RunID = out.state.RunID
		rec.QualityScore = out.state.QualityScore
		rec.Iterations = out.state.Iteration
		rec.CostUSD = out.state.CostUSD
		rec.FinalState = out.state
	}

	switch {
	case out.panicked:
		rec.FailureKind = contracts.FailurePanic
		rec.FailureMsg = out.err.Error()
	case out.err != nil:
		rec.FailureKind = classifyFailure(out.err)
		rec.FailureMsg = out.err.Error()
	case out.state != nil && out.state.TerminalErr != nil:
		rec.FailureKind = contracts.FailureRunError
		rec.FailureMsg = out.state.TerminalErr.Error()
	default:
		rec.Success = true
	}

	log.Event(audit.EventEntityDone,
		zap.String("entity", string(entity)),
		zap.Bool("success", rec.Success),
		zap.String("failure_kind", string(rec.FailureKind)),
		zap.Float64("quality_score", rec.QualityScore),
		zap.Float64("cost_usd", rec.CostUSD),
		zap.Int64("duration_ms", duration.Milliseconds()),
		zap.Bool("cache_hit", rec.CacheHit),
	)
	return rec
}

// classifyFailure maps a run error onto the record's failure taxonomy.
func classifyFailure(err error) contracts.FailureKind {
	switch {
	case errors.Is(err, contracts.ErrEntityTimeout), errors.Is(err, context.DeadlineExceeded):
		return contracts.FailureTimeout
	case errors.Is(err, contracts.ErrMergeConflict):
		return contracts.FailureMergeConflict
	default:
		return contracts.FailureRunError
	}
}

// summarize aggregates sealed records into the batch summary.
func summarize(id contracts.BatchID, records []contracts.BatchRecord, started time.Time) *contracts.Summary {
	s := &contracts.Summary{
		BatchID:      id,
		Entities:     len(records),
		WallDuration: time.Since(started),
		FailureKinds: make(map[contracts.FailureKind]int),
		StartedAt:    started,
	}

	var hits int
	for _, rec := range records {
		s.TotalCostUSD += rec.CostUSD
		if rec.CacheHit {
			hits++
		}
		if rec.Success {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.FailureKinds[rec.FailureKind]++
	}
	s.CacheHitRate = float64(hits) / float64(len(records))
	return s
}
