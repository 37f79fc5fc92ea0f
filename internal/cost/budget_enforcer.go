package cost

import (
	"fmt"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// budgetEnforcer implements contracts.BudgetEnforcer against a fixed per-run
// ceiling. Errors here mean client money loss, so the projected check runs
// before every priced call.
//
// The enforcer is stateless: spending lives in the run state and is passed
// in, so one enforcer serves any number of concurrent runs.
type budgetEnforcer struct {
	ceilingUSD float64
}

// NewBudgetEnforcer creates a BudgetEnforcer with the given ceiling in USD.
// A zero or negative ceiling means unlimited.
func NewBudgetEnforcer(ceilingUSD float64) contracts.BudgetEnforcer {
	return &budgetEnforcer{ceilingUSD: ceilingUSD}
}

// Allow checks whether spent plus estimate stays under the ceiling.
// Returns ErrBudgetExceeded when the projected total crosses it.
func (b *budgetEnforcer) Allow(spentUSD, estimateUSD float64) error {
	if b.ceilingUSD <= 0 {
		return nil
	}

	projected := spentUSD + estimateUSD
	if projected > b.ceilingUSD {
		return fmt.Errorf("projected cost %.4f exceeds ceiling %.4f (spent: %.4f, estimate: %.4f): %w",
			projected, b.ceilingUSD, spentUSD, estimateUSD, contracts.ErrBudgetExceeded)
	}

	return nil
}

// Exhausted reports whether spending has reached the ceiling.
func (b *budgetEnforcer) Exhausted(spentUSD float64) bool {
	return b.ceilingUSD > 0 && spentUSD >= b.ceilingUSD
}
