package cost

import (
	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// costCalculator implements contracts.CostCalculator using a ModelCatalog.
type costCalculator struct {
	catalog contracts.ModelCatalog
}

// NewCostCalculator creates a CostCalculator with the built-in catalog.
func NewCostCalculator() contracts.CostCalculator {
	return &costCalculator{catalog: NewModelCatalog()}
}

// NewCostCalculatorWithCatalog creates a CostCalculator with a custom catalog.
func NewCostCalculatorWithCatalog(catalog contracts.ModelCatalog) contracts.CostCalculator {
	if catalog == nil {
		catalog = NewModelCatalog()
	}
	return &costCalculator{catalog: catalog}
}

// Calculate prices an exact input/output token split for a model.
func (c *costCalculator) Calculate(model contracts.ModelID, input, output contracts.TokenCount) (float64, error) {
	info, ok := c.catalog.Get(model)
	if !ok {
		return 0, contracts.ErrModelUnknown
	}

	inCost := float64(input) * info.InputCostPer1M / 1_000_000
	outCost := float64(output) * info.OutputCostPer1M / 1_000_000
	return inCost + outCost, nil
}

// EstimateByRole prices a token count against the role's model using its
// average per-1M rate. Used before a call, when the input/output split is
// not yet known.
func (c *costCalculator) EstimateByRole(role contracts.ModelRole, tokens contracts.TokenCount) (float64, error) {
	info, ok := c.catalog.ByRole(role)
	if !ok {
		return 0, contracts.ErrModelUnknown
	}

	return float64(tokens) * info.AverageCostPer1M() / 1_000_000, nil
}
