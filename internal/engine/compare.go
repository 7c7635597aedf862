package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/SteelSys/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.CutSettings
}

// ComparisonResult holds the optimization result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario         ComparisonScenario
	Result           model.OptimizeResult
	BarsUsed         int
	RemnantsUsed     int
	RemnantsProduced int
	WasteLength      float64
	WastePercent     float64
	UnassignedCount  int
}

// CompareScenarios runs optimization for each scenario and returns the results
// in scenario order. This enables side-by-side comparison of different
// parameters (kerf widths, remnant threshold, remnant usage).
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, stock []model.StockItem, remnants []model.RemnantItem, demand []model.RequiredPiece) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := New(scenario.Settings).Optimize(ctx, stock, remnants, demand)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}

		cr := ComparisonResult{
			Scenario:        scenario,
			Result:          result,
			BarsUsed:        result.TotalStockConsumed(),
			WasteLength:     result.TotalWasteLength(),
			WastePercent:    result.WastePercent(),
			UnassignedCount: result.UnassignedCount(),
		}
		for _, p := range result.Plans {
			cr.RemnantsUsed += p.TotalRemnantsConsumed
			cr.RemnantsProduced += len(p.ProducedRemnants)
		}
		results = append(results, cr)
	}

	return results, nil
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(baseSettings model.CutSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: baseSettings,
		},
	}

	// Scenario: Thinner blade
	if baseSettings.Kerf > 1.0 {
		tightKerf := baseSettings
		tightKerf.Kerf = baseSettings.Kerf * 0.5
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Kerf %.1fmm (half)", tightKerf.Kerf),
			Settings: tightKerf,
		})
	}

	// Scenario: Keep every leftover
	if baseSettings.MinUsableRemnant > 0 {
		keepAll := baseSettings
		keepAll.MinUsableRemnant = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Keep All Leftovers",
			Settings: keepAll,
		})
	}

	// Scenario: Fresh stock only
	if baseSettings.UseRemnants {
		stockOnly := baseSettings
		stockOnly.UseRemnants = false
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Stock Only",
			Settings: stockOnly,
		})
	}

	return scenarios
}
