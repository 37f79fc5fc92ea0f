package api

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// BatchState is the lifecycle state of a stored batch.
type BatchState string

// Batch lifecycle states. A batch moves from running to exactly one terminal
// state when its goroutine hands in results via Complete.
const (
	BatchRunning   BatchState = "running"
	BatchCompleted BatchState = "completed"
	BatchFailed    BatchState = "failed"
	BatchAborted   BatchState = "aborted"
)

// BatchEntry represents one batch stored in the BatchStore. Results land in
// a single Complete call once the runner returns, so the entry needs no
// shadow copies: all fields are guarded by the store mutex.
type BatchEntry struct {
	ID       contracts.BatchID
	Entities []contracts.EntityID
	Deep     bool
	Cancel   context.CancelFunc
	Done     chan struct{} // closed when the batch run finishes

	State   BatchState
	Records []contracts.BatchRecord
	Summary *contracts.Summary
	Err     error

	Aborting  bool // true after Abort() until the run finishes
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BatchStore provides thread-safe in-memory storage for batches.
type BatchStore struct {
	mu      sync.RWMutex
	batches map[contracts.BatchID]*BatchEntry
}

// NewBatchStore creates a new BatchStore.
func NewBatchStore() *BatchStore {
	return &BatchStore{
		batches: make(map[contracts.BatchID]*BatchEntry),
	}
}

// Create stores a new running batch. Returns ErrBatchExists if the ID is
// already taken.
func (s *BatchStore) Create(id contracts.BatchID, entities []contracts.EntityID, deep bool, cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[id]; exists {
		return eris.Wrapf(ErrBatchExists, "batch %s", id)
	}

	now := time.Now()
	s.batches[id] = &BatchEntry{
		ID:        id,
		Entities:  append([]contracts.EntityID(nil), entities...),
		Deep:      deep,
		Cancel:    cancel,
		Done:      make(chan struct{}),
		State:     BatchRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// BatchSnapshot is a point-in-time copy of batch state for API responses.
type BatchSnapshot struct {
	ID        contracts.BatchID
	State     BatchState
	APIState  string // "aborting" while an abort is in flight
	Deep      bool
	Entities  []contracts.EntityID
	Records   []contracts.BatchRecord
	Summary   *contracts.Summary
	Err       error
	CreatedAt int64
	UpdatedAt int64
}

// Snapshot returns a copy of the batch state safe to read while the batch
// goroutine is still running.
func (s *BatchStore) Snapshot(id contracts.BatchID) (*BatchSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.batches[id]
	if !exists {
		return nil, false
	}

	apiState := string(entry.State)
	if entry.Aborting && !isDone(entry) {
		apiState = "aborting"
	}

	return &BatchSnapshot{
		ID:        entry.ID,
		State:     entry.State,
		APIState:  apiState,
		Deep:      entry.Deep,
		Entities:  append([]contracts.EntityID(nil), entry.Entities...),
		Records:   append([]contracts.BatchRecord(nil), entry.Records...),
		Summary:   entry.Summary,
		Err:       entry.Err,
		CreatedAt: entry.CreatedAt.UnixMilli(),
		UpdatedAt: entry.UpdatedAt.UnixMilli(),
	}, true
}

// Complete seals the batch with the runner's results, resolves the terminal
// state and closes the Done channel. Aborted batches land in BatchAborted
// even when the runner returned records for them.
func (s *BatchStore) Complete(id contracts.BatchID, records []contracts.BatchRecord, summary *contracts.Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.batches[id]
	if !exists {
		return
	}

	entry.Records = records
	entry.Summary = summary
	entry.Err = err
	entry.UpdatedAt = time.Now()

	switch {
	case entry.Aborting:
		entry.State = BatchAborted
	case err != nil:
		entry.State = BatchFailed
	default:
		entry.State = BatchCompleted
	}

	select {
	case <-entry.Done:
		// already closed
	default:
		close(entry.Done)
	}
}

// Abort cancels a running batch. Returns:
// - ErrBatchNotFound if the batch doesn't exist
// - ErrBatchCompleted if the batch already finished
// Aborting an already-aborting batch is a no-op.
func (s *BatchStore) Abort(id contracts.BatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.batches[id]
	if !exists {
		return eris.Wrapf(ErrBatchNotFound, "batch %s", id)
	}

	if entry.Aborting {
		return nil // idempotent
	}

	if isDone(entry) {
		return eris.Wrapf(ErrBatchCompleted, "batch %s", id)
	}

	entry.Aborting = true
	entry.UpdatedAt = time.Now()
	if entry.Cancel != nil {
		entry.Cancel()
	}
	return nil
}

// IsAborting returns true if Abort was called but the batch hasn't finished.
func (s *BatchStore) IsAborting(id contracts.BatchID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.batches[id]
	if !exists {
		return false
	}
	return entry.Aborting && !isDone(entry)
}

// Timestamps returns the created and updated timestamps for a batch.
func (s *BatchStore) Timestamps(id contracts.BatchID) (createdAt, updatedAt int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.batches[id]
	if !exists {
		return 0, 0
	}
	return entry.CreatedAt.UnixMilli(), entry.UpdatedAt.UnixMilli()
}

// CancelAll cancels all active batches. Used for graceful shutdown.
// Returns the number of batches that were cancelled.
func (s *BatchStore) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := 0
	for _, entry := range s.batches {
		if entry.Aborting || isDone(entry) {
			continue
		}
		entry.Aborting = true
		entry.UpdatedAt = time.Now()
		if entry.Cancel != nil {
			entry.Cancel()
		}
		cancelled++
	}
	return cancelled
}

// WaitAll waits for all active batches to finish, up to the timeout.
// Returns the number of batches still active when it gives up.
func (s *BatchStore) WaitAll(timeout time.Duration) int {
	deadline := time.Now().Add(timeout)

	for {
		s.mu.RLock()
		active := 0
		var doneChannels []chan struct{}
		for _, entry := range s.batches {
			if !isDone(entry) {
				active++
				doneChannels = append(doneChannels, entry.Done)
			}
		}
		s.mu.RUnlock()

		if active == 0 {
			return 0
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return active
		}

		select {
		case <-time.After(remaining):
			return active
		case <-doneChannels[0]:
			// one batch finished, loop to check the rest
		}
	}
}

// PruneCompleted removes finished batches older than the retention duration.
// Returns the number of removed batches.
func (s *BatchStore) PruneCompleted(retention time.Duration) int {
	if retention <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-retention)
	removed := 0

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.batches {
		if !isDone(entry) {
			continue
		}
		if entry.UpdatedAt.Before(cutoff) {
			delete(s.batches, id)
			removed++
		}
	}
	return removed
}

// isDone checks whether the entry's Done channel is closed.
func isDone(entry *BatchEntry) bool {
	select {
	case <-entry.Done:
		return true
	default:
		return false
	}
}
