package model

import (
	"sort"

	"github.com/google/uuid"
)

// MinUsableRemnantDefault is the shortest leftover (in mm) kept as a remnant.
// Anything shorter is scrap.
const MinUsableRemnantDefault = 50.0

// RemnantOrigin records where a remnant was cut from.
type RemnantOrigin struct {
	SourceID    string     `json:"source_id"`   // Parent stock bar or remnant
	SourceKind  SourceKind `json:"source_kind"` // Kind of the parent
	WorkOrderID string     `json:"work_order_id,omitempty"`
	Offset      float64    `json:"offset"` // Position on the parent where the remnant starts
}

// RemnantItem is a usable leftover from an earlier cut.
type RemnantItem struct {
	ID         string        `json:"id"`
	Profile    string        `json:"profile"`
	Label      string        `json:"label,omitempty"`
	Length     float64       `json:"length"` // mm
	Origin     RemnantOrigin `json:"origin"`
	Status     Status        `json:"status"`
	Location   string        `json:"location,omitempty"`
	HeatNumber string        `json:"heat_number,omitempty"`
}

func NewRemnantItem(profile string, length float64, origin RemnantOrigin) RemnantItem {
	return RemnantItem{
		ID:      uuid.New().String()[:8],
		Profile: profile,
		Length:  length,
		Origin:  origin,
		Status:  StatusAvailable,
	}
}

// IsUsable reports whether a leftover length is worth keeping.
func IsUsable(length, minUsable float64) bool {
	return length > 0 && length >= minUsable
}

// ToStockItem converts a remnant into a stock-shaped record, e.g. for
// purchase comparisons or exports that only deal with bars.
func (r RemnantItem) ToStockItem() StockItem {
	label := r.Label
	if label == "" {
		label = "Remnant " + r.Origin.SourceID
	}
	return StockItem{
		ID:         r.ID,
		Profile:    r.Profile,
		Label:      label,
		Length:     r.Length,
		Status:     r.Status,
		Location:   r.Location,
		HeatNumber: r.HeatNumber,
	}
}

// TotalRemnantLength returns the summed length of all remnants.
func TotalRemnantLength(remnants []RemnantItem) float64 {
	var total float64
	for _, r := range remnants {
		total += r.Length
	}
	return total
}

// SortRemnantsByLength sorts remnants longest first, ties by ID.
func SortRemnantsByLength(remnants []RemnantItem) {
	sort.Slice(remnants, func(i, j int) bool {
		if remnants[i].Length != remnants[j].Length {
			return remnants[i].Length > remnants[j].Length
		}
		return remnants[i].ID < remnants[j].ID
	})
}
