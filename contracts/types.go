// Package contracts defines the core types and interfaces for the research
// engine.
package contracts

// EntityID identifies a business entity under research (company name or domain).
type EntityID string

// NodeID identifies a task unit node in the orchestration graph. Output keys
// in State.TaskOutputs are NodeIDs as well.
type NodeID string

// RunID uniquely identifies one entity run.
type RunID string

// BatchID uniquely identifies one batch invocation.
type BatchID string

// ModelID identifies an LLM model (e.g. "gpt-4o-mini").
type ModelID string

// TokenCount represents a count of tokens.
type TokenCount int64

// CacheCategory selects the TTL class for a cached computation.
type CacheCategory string

const (
	CacheSearch   CacheCategory = "search"
	CacheNews     CacheCategory = "news"
	CacheAnalysis CacheCategory = "analysis"
)

// Pseudo input keys a node may declare in Needs; they are satisfied by the
// initial state rather than by a producer node.
const (
	KeyRawInputs NodeID = "raw_inputs"
	KeyEntity    NodeID = "entity"
)
