package contracts

// ModelRole represents the intended use of a model tier.
type ModelRole string

const (
	// RoleFlagship - maximum quality, for deep-round synthesis.
	RoleFlagship ModelRole = "flagship"
	// RoleBalanced - good quality/cost ratio, for standard analysis.
	RoleBalanced ModelRole = "balanced"
	// RoleFast - cheap and fast, for scanning and auxiliary tasks.
	RoleFast ModelRole = "fast"
)

// EscalateRole returns the next tier up: fast -> balanced -> flagship.
// Flagship has nowhere to go and stays put. Deep runs use this to buy extra
// quality on re-collection rounds.
func EscalateRole(role ModelRole) ModelRole {
	switch role {
	case RoleFast:
		return RoleBalanced
	case RoleBalanced:
		return RoleFlagship
	default:
		return role
	}
}

// ModelInfo contains pricing and capability metadata for one model.
type ModelInfo struct {
	ID              ModelID   `json:"id"`
	Provider        string    `json:"provider"`
	MaxContext      int       `json:"max_context"`
	InputCostPer1M  float64   `json:"input_cost_per_1m"`  // USD per 1M tokens
	OutputCostPer1M float64   `json:"output_cost_per_1m"` // USD per 1M tokens
	Role            ModelRole `json:"role"`
}

// AverageCostPer1M returns the average cost per 1M tokens (input + output / 2).
// Pre-call estimates use it before the input/output split is known.
func (m ModelInfo) AverageCostPer1M() float64 {
	return (m.InputCostPer1M + m.OutputCostPer1M) / 2
}

// ModelCatalog provides model information and role-based selection.
type ModelCatalog interface {
	// Get returns model info by ID.
	Get(id ModelID) (ModelInfo, bool)

	// ByRole returns the configured model for a given role.
	ByRole(role ModelRole) (ModelInfo, bool)

	// List returns all available models.
	List() []ModelInfo
}
