package cost

import (
	"errors"
	"testing"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

func TestCostCalculator_Calculate(t *testing.T) {
	calc := NewCostCalculator()

	tests := []struct {
		name     string
		model    contracts.ModelID
		input    contracts.TokenCount
		output   contracts.TokenCount
		wantCost float64
		wantErr  error
	}{
		{
			name:     "zero tokens",
			model:    "gpt-4o-mini",
			input:    0,
			output:   0,
			wantCost: 0.0,
		},
		{
			name:     "fast model 1M in 1M out",
			model:    "gpt-4o-mini",
			input:    1_000_000,
			output:   1_000_000,
			wantCost: 0.75, // 0.15 + 0.60
		},
		{
			name:     "balanced model input only",
			model:    "gpt-4o",
			input:    1_000_000,
			output:   0,
			wantCost: 2.50,
		},
		{
			name:     "flagship model small call",
			model:    "o1",
			input:    100_000,
			output:   10_000,
			wantCost: 2.10, // 1.50 + 0.60
		},
		{
			name:    "unknown model",
			model:   "unknown-model",
			input:   1000,
			output:  1000,
			wantErr: contracts.ErrModelUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(tt.model, tt.input, tt.output)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Calculate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Calculate() unexpected error = %v", err)
			}

			if diff := got - tt.wantCost; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Calculate() = %v, want %v", got, tt.wantCost)
			}
		})
	}
}

func TestCostCalculator_EstimateByRole(t *testing.T) {
	calc := NewCostCalculator()

	tests := []struct {
		name     string
		role     contracts.ModelRole
		tokens   contracts.TokenCount
		wantCost float64
		wantErr  error
	}{
		{
			name:     "fast role",
			role:     contracts.RoleFast,
			tokens:   1_000_000,
			wantCost: 0.375, // (0.15 + 0.60) / 2
		},
		{
			name:     "balanced role",
			role:     contracts.RoleBalanced,
			tokens:   1_000_000,
			wantCost: 6.25, // (2.50 + 10.00) / 2
		},
		{
			name:     "flagship role",
			role:     contracts.RoleFlagship,
			tokens:   1_000_000,
			wantCost: 37.50, // (15 + 60) / 2
		},
		{
			name:    "unknown role",
			role:    contracts.ModelRole("turbo"),
			tokens:  1000,
			wantErr: contracts.ErrModelUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.EstimateByRole(tt.role, tt.tokens)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("EstimateByRole() error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("EstimateByRole() unexpected error = %v", err)
			}

			if diff := got - tt.wantCost; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("EstimateByRole() = %v, want %v", got, tt.wantCost)
			}
		})
	}
}

func TestCostCalculator_CustomCatalog(t *testing.T) {
	customModels := []contracts.ModelInfo{
		{
			ID:              "custom-model",
			Provider:        "custom",
			InputCostPer1M:  10.0,
			OutputCostPer1M: 20.0,
			Role:            contracts.RoleFlagship,
		},
	}

	catalog := NewModelCatalogWithModels(customModels)
	calc := NewCostCalculatorWithCatalog(catalog)

	got, err := calc.Calculate("custom-model", 1_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != 30.0 {
		t.Errorf("Calculate() = %v, want 30.0", got)
	}

	// Built-in models must not leak into the custom catalog.
	_, err = calc.Calculate("gpt-4o-mini", 1000, 1000)
	if !errors.Is(err, contracts.ErrModelUnknown) {
		t.Errorf("expected ErrModelUnknown for model not in custom catalog, got %v", err)
	}
}

func TestCostCalculator_DefaultsOnNil(t *testing.T) {
	calc := NewCostCalculatorWithCatalog(nil)

	got, err := calc.Calculate("gpt-4o-mini", 1_000_000, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != 0.15 {
		t.Errorf("Calculate() = %v, want 0.15", got)
	}
}
