// Package audit emits structured run-lifecycle events. Engine and batch
// layers share one event vocabulary so operational greps stay stable across
// releases.
package audit

import (
	"go.uber.org/zap"
)

// Event names. New code must use these constants, never inline strings.
const (
	EventRunStarted   = "run_started"
	EventRoundStarted = "round_started"
	EventRoundMerged  = "round_merged"
	EventNodeFailed   = "node_failed"
	EventGateDecision = "gate_decision"
	EventRunFinalized = "run_finalized"
	EventBatchStarted = "batch_started"
	EventEntityDone   = "entity_done"
	EventBatchSealed  = "batch_sealed"
)

// Logger wraps a zap logger with the audit event convention: every entry is
// an event name plus structured fields.
type Logger struct {
	log *zap.Logger
}

// New creates an audit logger on top of base. A nil base falls back to the
// global zap logger.
func New(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.L()
	}
	return &Logger{log: base.Named("audit")}
}

// NewNop creates an audit logger that discards everything. For tests.
func NewNop() *Logger {
	return &Logger{log: zap.NewNop()}
}

// With returns a child logger carrying the given fields on every event.
func (a *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{log: a.log.With(fields...)}
}

// Event records one audit event at info level.
func (a *Logger) Event(event string, fields ...zap.Field) {
	a.log.Info(event, fields...)
}

// Warn records one audit event at warn level. Used for degraded-but-running
// conditions such as node failures inside a continuing round.
func (a *Logger) Warn(event string, fields ...zap.Field) {
	a.log.Warn(event, fields...)
}
