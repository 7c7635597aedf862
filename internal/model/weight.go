package model

import "github.com/shopspring/decimal"

var mmPerMetre = decimal.NewFromInt(1000)

// WeightFor returns the weight in kg of lengthMM of this profile.
func (p Profile) WeightFor(lengthMM float64) decimal.Decimal {
	return p.WeightPerMetre.Mul(decimal.NewFromFloat(lengthMM)).Div(mmPerMetre).Round(3)
}

// CostFor returns the material cost of lengthMM of this profile.
func (p Profile) CostFor(lengthMM float64) decimal.Decimal {
	return p.WeightFor(lengthMM).Mul(p.PricePerKg).Round(2)
}

// PlanWeight breaks a cutting plan down into kilograms.
type PlanWeight struct {
	Profile    string          `json:"profile"`
	ConsumedKg decimal.Decimal `json:"consumed_kg"` // All consumed sources
	CutKg      decimal.Decimal `json:"cut_kg"`      // Delivered pieces
	RemnantKg  decimal.Decimal `json:"remnant_kg"`  // Returned to stock
	WasteKg    decimal.Decimal `json:"waste_kg"`    // Kerf and scrap
	WasteCost  decimal.Decimal `json:"waste_cost"`
	CutCost    decimal.Decimal `json:"cut_cost"`
}

// CalculatePlanWeight computes the weight breakdown of a plan.
func CalculatePlanWeight(plan CuttingPlan, profile Profile) PlanWeight {
	return PlanWeight{
		Profile:    plan.Profile,
		ConsumedKg: profile.WeightFor(plan.ConsumedLength()),
		CutKg:      profile.WeightFor(plan.AssignedLength()),
		RemnantKg:  profile.WeightFor(plan.ProducedRemnantLength()),
		WasteKg:    profile.WeightFor(plan.TotalWasteLength),
		WasteCost:  profile.CostFor(plan.TotalWasteLength),
		CutCost:    profile.CostFor(plan.AssignedLength()),
	}
}

// InventoryWeight is the stock value of one profile.
type InventoryWeight struct {
	Profile       string          `json:"profile"`
	StockBars     int             `json:"stock_bars"`
	StockLength   float64         `json:"stock_length"`
	RemnantCount  int             `json:"remnant_count"`
	RemnantLength float64         `json:"remnant_length"`
	TotalKg       decimal.Decimal `json:"total_kg"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// CalculateInventoryWeight totals the available stock and remnants of a profile.
func CalculateInventoryWeight(profile Profile, stock []StockItem, remnants []RemnantItem) InventoryWeight {
	iw := InventoryWeight{Profile: profile.Name}
	for _, s := range stock {
		if s.Status != StatusAvailable {
			continue
		}
		iw.StockBars++
		iw.StockLength += s.Length
	}
	for _, r := range remnants {
		if r.Status != StatusAvailable {
			continue
		}
		iw.RemnantCount++
		iw.RemnantLength += r.Length
	}
	total := iw.StockLength + iw.RemnantLength
	iw.TotalKg = profile.WeightFor(total)
	iw.TotalValue = profile.CostFor(total)
	return iw
}
