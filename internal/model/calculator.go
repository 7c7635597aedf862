package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ShortfallLine groups the unassigned units of one required piece.
type ShortfallLine struct {
	PieceID  string  `json:"piece_id"`
	Label    string  `json:"label,omitempty"`
	PartRef  string  `json:"part_ref,omitempty"`
	Length   float64 `json:"length"`
	Quantity int     `json:"quantity"`
}

// Shortfall groups unassigned units per piece, longest first.
func (p CuttingPlan) Shortfall() []ShortfallLine {
	index := make(map[string]int)
	var lines []ShortfallLine
	for _, u := range p.Unassigned {
		if i, ok := index[u.PieceID]; ok {
			lines[i].Quantity++
			continue
		}
		index[u.PieceID] = len(lines)
		lines = append(lines, ShortfallLine{
			PieceID:  u.PieceID,
			Label:    u.Label,
			PartRef:  u.PartRef,
			Length:   u.Length,
			Quantity: 1,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Length > lines[j].Length
	})
	return lines
}

// PurchaseSuggestion holds the bars to order for unassigned demand.
type PurchaseSuggestion struct {
	Profile        string          `json:"profile"`
	StockLength    float64         `json:"stock_length"`     // Bar length ordered
	BarsNeeded     int             `json:"bars_needed"`      // Bars covering the demand
	DemandLength   float64         `json:"demand_length"`    // Sum of piece lengths
	TooLong        []PieceUnit     `json:"too_long"`         // Units longer than a full bar
	EstimatedKg    decimal.Decimal `json:"estimated_kg"`     // Zero when no catalog entry
	EstimatedPrice decimal.Decimal `json:"estimated_price"`  // Zero when no price is known
	UtilizationPct float64         `json:"utilization_pct"`  // DemandLength / ordered length
}

// SuggestPurchase estimates how many bars of stockLength cover the given
// units, using first-fit decreasing over virtual bars. Units that do not fit
// a full bar even on their own are listed in TooLong.
func SuggestPurchase(profile Profile, units []PieceUnit, kerf float64) PurchaseSuggestion {
	ps := PurchaseSuggestion{
		Profile:        profile.Name,
		StockLength:    profile.StockLength,
		EstimatedKg:    decimal.Zero,
		EstimatedPrice: decimal.Zero,
	}
	if profile.StockLength <= 0 || len(units) == 0 {
		ps.TooLong = append(ps.TooLong, units...)
		return ps
	}

	sorted := make([]PieceUnit, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Length > sorted[j].Length
	})

	var bars []float64 // Remaining length per virtual bar
	for _, u := range sorted {
		need := u.Length + kerf
		if need > profile.StockLength+lengthEpsilon {
			ps.TooLong = append(ps.TooLong, u)
			continue
		}
		ps.DemandLength += u.Length
		placed := false
		for i := range bars {
			if need <= bars[i]+lengthEpsilon {
				bars[i] -= need
				placed = true
				break
			}
		}
		if !placed {
			bars = append(bars, profile.StockLength-need)
		}
	}

	ps.BarsNeeded = len(bars)
	ordered := float64(ps.BarsNeeded) * profile.StockLength
	if ordered > 0 {
		ps.UtilizationPct = (ps.DemandLength / ordered) * 100.0
	}
	ps.EstimatedKg = profile.WeightFor(ordered)
	ps.EstimatedPrice = profile.CostFor(ordered)
	return ps
}

// lengthEpsilon absorbs floating point noise when comparing lengths in mm.
const lengthEpsilon = 1e-6
