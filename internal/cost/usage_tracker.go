package cost

import (
	"sync"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// usageTracker implements contracts.UsageTracker, accumulating token and cost
// usage per run. Thread-safe: entity runs report concurrently.
type usageTracker struct {
	mu    sync.Mutex
	usage map[contracts.RunID]contracts.Usage
}

// NewUsageTracker creates a new UsageTracker.
func NewUsageTracker() contracts.UsageTracker {
	return &usageTracker{
		usage: make(map[contracts.RunID]contracts.Usage),
	}
}

// Add adds usage to the run's total.
func (ut *usageTracker) Add(run contracts.RunID, u contracts.Usage) {
	ut.mu.Lock()
	defer ut.mu.Unlock()

	ut.usage[run] = ut.usage[run].Add(u)
}

// Snapshot returns the current usage for the run as a copy.
func (ut *usageTracker) Snapshot(run contracts.RunID) contracts.Usage {
	ut.mu.Lock()
	defer ut.mu.Unlock()

	return ut.usage[run]
}

// Total returns usage summed across all runs.
func (ut *usageTracker) Total() contracts.Usage {
	ut.mu.Lock()
	defer ut.mu.Unlock()

	var total contracts.Usage
	for _, u := range ut.usage {
		total = total.Add(u)
	}
	return total
}
