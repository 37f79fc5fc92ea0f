package contracts

import (
	"fmt"
	"time"
)

// SourceDocument is one fetched search hit feeding analysis tasks.
type SourceDocument struct {
	Query     string
	URL       string
	Title     string
	Snippet   string
	Category  CacheCategory
	FetchedAt time.Time
}

// Finding is the structured partial result one task unit contributes.
type Finding struct {
	Node       NodeID
	Summary    string
	Fields     map[string]string
	Confidence float64
	Sources    []string
	Model      ModelID
}

// Clone returns a deep copy of the finding.
func (f *Finding) Clone() *Finding {
	if f == nil {
		return nil
	}
	out := &Finding{
		Node:       f.Node,
		Summary:    f.Summary,
		Confidence: f.Confidence,
		Model:      f.Model,
	}
	if f.Fields != nil {
		out.Fields = make(map[string]string, len(f.Fields))
		for k, v := range f.Fields {
			out.Fields[k] = v
		}
	}
	if f.Sources != nil {
		out.Sources = append([]string(nil), f.Sources...)
	}
	return out
}

// NodeError records a task unit failure. Failures are data, not control flow:
// the round keeps running and the merged state carries the record.
type NodeError struct {
	Node      NodeID
	Message   string
	Retryable bool
	At        time.Time
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s", e.Node, e.Message)
}

// State is the shared state of one entity run. One instance exists per run;
// task units receive read-only snapshots and communicate changes through
// patches folded in by the reducer.
type State struct {
	RunID        RunID
	Entity       EntityID
	RawInputs    []SourceDocument
	TaskOutputs  map[NodeID]*Finding
	CostUSD      float64
	Iteration    int
	QualityScore float64
	TerminalErr  *NodeError
	NodeErrs     []*NodeError
	Phase        RunPhase
	StartedAt    time.Time
}

// NewState returns a fresh isolated state for one entity run.
func NewState(id RunID, entity EntityID) *State {
	return &State{
		RunID:       id,
		Entity:      entity,
		TaskOutputs: make(map[NodeID]*Finding),
		Phase:       PhaseCollecting,
		StartedAt:   time.Now(),
	}
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		RunID:        s.RunID,
		Entity:       s.Entity,
		CostUSD:      s.CostUSD,
		Iteration:    s.Iteration,
		QualityScore: s.QualityScore,
		TerminalErr:  s.TerminalErr,
		Phase:        s.Phase,
		StartedAt:    s.StartedAt,
	}
	if s.RawInputs != nil {
		out.RawInputs = append([]SourceDocument(nil), s.RawInputs...)
	}
	out.TaskOutputs = make(map[NodeID]*Finding, len(s.TaskOutputs))
	for k, v := range s.TaskOutputs {
		out.TaskOutputs[k] = v.Clone()
	}
	if s.NodeErrs != nil {
		out.NodeErrs = append([]*NodeError(nil), s.NodeErrs...)
	}
	return out
}

// StatePatch is the partial update a task unit returns. Only the fields a
// task actually produced are set; the reducer owns folding them in.
type StatePatch struct {
	RawInputs []SourceDocument
	Outputs   map[NodeID]*Finding
	Score     *float64
}

// TaskResult is a task unit's patch plus execution metadata.
type TaskResult struct {
	Node         NodeID
	Patch        StatePatch
	CostDeltaUSD float64
	Duration     time.Duration
	CacheHit     bool
	Err          *NodeError
}

// TaskInput is the read-only view handed to a task unit: a state snapshot
// plus resolved dependency findings and the round's execution knobs.
type TaskInput struct {
	State      *State
	Deps       map[NodeID]*Finding
	Role       ModelRole
	Round      int
	CharBudget int
}

// NodeSpec declares one task unit node: its identity, the state keys it
// needs, the output key it writes, and the function that runs it. Final
// nodes sit outside the collection loop and run once after the gate decides
// to finalize.
type NodeSpec struct {
	Name      NodeID
	OutputKey NodeID
	Needs     []NodeID
	Role      ModelRole
	Final     bool
	Run       TaskFunc
}

// GateVerdict is the gate's decision after one evaluation.
type GateVerdict struct {
	Decision GateDecision
	Reason   FinalizeReason
	Score    float64
}

// RunPolicy carries the per-run execution constraints.
type RunPolicy struct {
	MaxIterations     int
	QualityThreshold  float64
	CostCeilingUSD    float64
	Deep              bool
	FastPathThreshold time.Duration
}

// Usage is the token and cost accounting for one model call.
type Usage struct {
	InputTokens  TokenCount
	OutputTokens TokenCount
	CostUSD      float64
}

// Add returns the element-wise sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		CostUSD:      u.CostUSD + other.CostUSD,
	}
}

// AnalyzeRequest is one structured analysis call.
type AnalyzeRequest struct {
	RunID     RunID
	Node      NodeID
	Role      ModelRole
	System    string
	Prompt    string
	MaxTokens int
}

// Analysis is one analyze() reply: the structured text plus accounting.
// Cached is true when the reply was served from the analysis cache, in which
// case Usage reports zero fresh spend.
type Analysis struct {
	Text   string
	Model  ModelID
	Usage  Usage
	Cached bool
}

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int64
}

// BatchRecord is the sealed per-entity outcome of a batch run. Created when
// the entity's run starts, sealed exactly once at completion, never mutated
// by the batch layer afterward. CacheHit is a duration proxy: true when the
// wall duration fell below the policy's fast-path threshold.
type BatchRecord struct {
	Entity       EntityID
	RunID        RunID
	Success      bool
	FailureKind  FailureKind
	FailureMsg   string
	QualityScore float64
	Iterations   int
	CostUSD      float64
	Duration     time.Duration
	CacheHit     bool
	FinalState   *State
	ReportPath   string
}

// Summary aggregates a completed batch.
type Summary struct {
	BatchID      BatchID
	Entities     int
	Succeeded    int
	Failed       int
	TotalCostUSD float64
	WallDuration time.Duration
	CacheHitRate float64
	FailureKinds map[FailureKind]int
	StartedAt    time.Time
}

// ComparisonTable is a pure pivot of batch records: one row per entity in
// submission order, one column per requested field.
type ComparisonTable struct {
	Fields []string
	Rows   []ComparisonRow
}

// ComparisonRow is one entity's values, aligned with the table's fields.
type ComparisonRow struct {
	Entity EntityID
	Values []string
}
