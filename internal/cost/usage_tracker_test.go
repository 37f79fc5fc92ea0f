package cost

import (
	"sync"
	"testing"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

func TestUsageTracker_Add_UpdatesRunUsage(t *testing.T) {
	ut := NewUsageTracker()

	ut.Add("run-1", contracts.Usage{InputTokens: 1000, OutputTokens: 200, CostUSD: 0.05})
	ut.Add("run-1", contracts.Usage{InputTokens: 500, OutputTokens: 100, CostUSD: 0.02})

	got := ut.Snapshot("run-1")
	if got.InputTokens != 1500 {
		t.Errorf("InputTokens = %d, want 1500", got.InputTokens)
	}
	if got.OutputTokens != 300 {
		t.Errorf("OutputTokens = %d, want 300", got.OutputTokens)
	}
	if diff := got.CostUSD - 0.07; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("CostUSD = %v, want 0.07", got.CostUSD)
	}
}

func TestUsageTracker_Snapshot_UnknownRunIsZero(t *testing.T) {
	ut := NewUsageTracker()

	got := ut.Snapshot("missing")
	if got != (contracts.Usage{}) {
		t.Errorf("Snapshot() = %+v, want zero usage", got)
	}
}

func TestUsageTracker_Total_SumsAcrossRuns(t *testing.T) {
	ut := NewUsageTracker()

	ut.Add("run-1", contracts.Usage{InputTokens: 100, CostUSD: 0.01})
	ut.Add("run-2", contracts.Usage{InputTokens: 200, CostUSD: 0.02})
	ut.Add("run-3", contracts.Usage{OutputTokens: 50, CostUSD: 0.03})

	total := ut.Total()
	if total.InputTokens != 300 {
		t.Errorf("Total InputTokens = %d, want 300", total.InputTokens)
	}
	if total.OutputTokens != 50 {
		t.Errorf("Total OutputTokens = %d, want 50", total.OutputTokens)
	}
	if diff := total.CostUSD - 0.06; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Total CostUSD = %v, want 0.06", total.CostUSD)
	}
}

func TestUsageTracker_ConcurrentAdds(t *testing.T) {
	ut := NewUsageTracker()

	const goroutines = 10
	const addsPerGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < addsPerGoroutine; j++ {
				ut.Add("shared", contracts.Usage{InputTokens: 1, CostUSD: 0.001})
			}
		}()
	}
	wg.Wait()

	got := ut.Snapshot("shared")
	want := contracts.TokenCount(goroutines * addsPerGoroutine)
	if got.InputTokens != want {
		t.Errorf("InputTokens = %d, want %d", got.InputTokens, want)
	}
}
