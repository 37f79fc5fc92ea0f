package cost

import (
	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// DefaultModels contains the built-in model catalog used when no pricing is
// configured. Overridden by the llm.models config section.
var DefaultModels = []contracts.ModelInfo{
	{
		ID:              "gpt-4o-mini",
		Provider:        "openai",
		MaxContext:      128000,
		InputCostPer1M:  0.15,
		OutputCostPer1M: 0.60,
		Role:            contracts.RoleFast,
	},
	{
		ID:              "gpt-4o",
		Provider:        "openai",
		MaxContext:      128000,
		InputCostPer1M:  2.50,
		OutputCostPer1M: 10.00,
		Role:            contracts.RoleBalanced,
	},
	{
		ID:              "o1",
		Provider:        "openai",
		MaxContext:      200000,
		InputCostPer1M:  15.00,
		OutputCostPer1M: 60.00,
		Role:            contracts.RoleFlagship,
	},
}

// modelCatalog implements contracts.ModelCatalog. Immutable after
// construction, so reads need no locking.
type modelCatalog struct {
	models map[contracts.ModelID]contracts.ModelInfo
	byRole map[contracts.ModelRole]contracts.ModelID
}

// NewModelCatalog creates a ModelCatalog with the built-in models.
func NewModelCatalog() contracts.ModelCatalog {
	return NewModelCatalogWithModels(DefaultModels)
}

// NewModelCatalogWithModels creates a ModelCatalog from explicit model infos.
// When several models share a role, the last one wins the role slot.
func NewModelCatalogWithModels(models []contracts.ModelInfo) contracts.ModelCatalog {
	c := &modelCatalog{
		models: make(map[contracts.ModelID]contracts.ModelInfo, len(models)),
		byRole: make(map[contracts.ModelRole]contracts.ModelID, len(models)),
	}

	for _, m := range models {
		c.models[m.ID] = m
		if m.Role != "" {
			c.byRole[m.Role] = m.ID
		}
	}

	return c
}

// Get returns model info by ID.
func (c *modelCatalog) Get(id contracts.ModelID) (contracts.ModelInfo, bool) {
	info, ok := c.models[id]
	return info, ok
}

// ByRole returns the configured model for a given role.
func (c *modelCatalog) ByRole(role contracts.ModelRole) (contracts.ModelInfo, bool) {
	id, ok := c.byRole[role]
	if !ok {
		return contracts.ModelInfo{}, false
	}

	info, ok := c.models[id]
	return info, ok
}

// List returns all available models.
func (c *modelCatalog) List() []contracts.ModelInfo {
	result := make([]contracts.ModelInfo, 0, len(c.models))
	for _, m := range c.models {
		result = append(result, m)
	}
	return result
}
