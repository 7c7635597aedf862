package model

import "github.com/google/uuid"

// SourceKind identifies where a cut piece is taken from.
type SourceKind int

const (
	SourceStock   SourceKind = iota // Fresh full-length bar
	SourceRemnant                   // Leftover from an earlier cut
)

func (k SourceKind) String() string {
	switch k {
	case SourceRemnant:
		return "Remnant"
	default:
		return "Stock"
	}
}

// Status is the inventory lifecycle state of a stock bar or remnant.
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusConsumed  Status = "consumed"
)

// StockItem is a fresh bar of a single profile.
type StockItem struct {
	ID         string  `json:"id"`
	Profile    string  `json:"profile"`
	Label      string  `json:"label,omitempty"`
	Length     float64 `json:"length"` // mm
	Status     Status  `json:"status"`
	Location   string  `json:"location,omitempty"`    // Rack / bay
	HeatNumber string  `json:"heat_number,omitempty"` // Mill certificate reference
}

func NewStockItem(profile string, length float64) StockItem {
	return StockItem{
		ID:      uuid.New().String()[:8],
		Profile: profile,
		Length:  length,
		Status:  StatusAvailable,
	}
}

// RequiredPiece is a linear piece that must be cut Quantity times.
type RequiredPiece struct {
	ID       string  `json:"id"`
	Profile  string  `json:"profile"`
	Label    string  `json:"label,omitempty"`
	PartRef  string  `json:"part_ref,omitempty"` // Drawing / assembly position
	Length   float64 `json:"length"`             // mm
	Quantity int     `json:"quantity"`
}

func NewRequiredPiece(profile, label string, length float64, qty int) RequiredPiece {
	return RequiredPiece{
		ID:       uuid.New().String()[:8],
		Profile:  profile,
		Label:    label,
		Length:   length,
		Quantity: qty,
	}
}

// PieceUnit is one instance of a RequiredPiece after quantity expansion.
type PieceUnit struct {
	PieceID string  `json:"piece_id"`
	Label   string  `json:"label,omitempty"`
	PartRef string  `json:"part_ref,omitempty"`
	Length  float64 `json:"length"`
	Index   int     `json:"index"` // 0-based instance number within the piece
}

// CutSettings holds the optimizer configuration.
type CutSettings struct {
	Kerf             float64 `json:"kerf"`               // Saw blade width in mm, lost per cut
	MinUsableRemnant float64 `json:"min_usable_remnant"` // Shorter leftovers are scrapped
	Parallelism      int     `json:"parallelism"`        // Profile groups optimized concurrently
	UseRemnants      bool    `json:"use_remnants"`       // false = plan against fresh stock only
}

func DefaultSettings() CutSettings {
	return CutSettings{
		Kerf:             3.0,
		MinUsableRemnant: MinUsableRemnantDefault,
		Parallelism:      4,
		UseRemnants:      true,
	}
}

// CutAssignment places one piece unit on one source bar.
type CutAssignment struct {
	ID         string     `json:"id"`
	PieceID    string     `json:"piece_id"`
	PieceIndex int        `json:"piece_index"`
	Label      string     `json:"label,omitempty"`
	PartRef    string     `json:"part_ref,omitempty"`
	SourceID   string     `json:"source_id"`
	SourceKind SourceKind `json:"source_kind"`
	Offset     float64    `json:"offset"` // mm from the start of the source
	Length     float64    `json:"length"` // Piece length
	Kerf       float64    `json:"kerf"`   // Blade loss following the piece
}

// End returns the position right after the piece and its kerf.
func (a CutAssignment) End() float64 {
	return a.Offset + a.Length + a.Kerf
}

// Disposition says what happens to the leftover of a consumed source.
type Disposition string

const (
	DispositionNone    Disposition = "none"    // Nothing left
	DispositionRemnant Disposition = "remnant" // Kept as a new remnant
	DispositionScrap   Disposition = "scrap"   // Too short to keep
)

// SourceUsage summarizes how one consumed source was cut.
type SourceUsage struct {
	SourceID    string      `json:"source_id"`
	SourceKind  SourceKind  `json:"source_kind"`
	Label       string      `json:"label,omitempty"`
	HeatNumber  string      `json:"heat_number,omitempty"`
	Length      float64     `json:"length"` // Original length
	Cuts        int         `json:"cuts"`
	UsedLength  float64     `json:"used_length"` // Sum of piece lengths
	KerfLoss    float64     `json:"kerf_loss"`
	Leftover    float64     `json:"leftover"`
	Disposition Disposition `json:"disposition"`
	RemnantID   string      `json:"remnant_id,omitempty"`
}

// Utilization returns the used percentage of the source.
func (u SourceUsage) Utilization() float64 {
	if u.Length == 0 {
		return 0
	}
	return (u.UsedLength / u.Length) * 100.0
}

// CuttingPlan is the result of optimizing one profile group.
type CuttingPlan struct {
	Profile               string          `json:"profile"`
	Kerf                  float64         `json:"kerf"`
	MinUsableRemnant      float64         `json:"min_usable_remnant"`
	Assignments           []CutAssignment `json:"assignments"`
	ProducedRemnants      []RemnantItem   `json:"produced_remnants"`
	Unassigned            []PieceUnit     `json:"unassigned"`
	Sources               []SourceUsage   `json:"sources"`
	// TotalWasteLength counts every mm not turned into a piece or a kept
	// remnant, kerf loss included. A 280 piece cut from a 300 remnant with
	// kerf 2 wastes 20 while ScrapLength reports the 18 left on the rack.
	TotalWasteLength      float64         `json:"total_waste_length"`
	TotalKerfLoss         float64         `json:"total_kerf_loss"`
	TotalStockConsumed    int             `json:"total_stock_consumed"`
	TotalRemnantsConsumed int             `json:"total_remnants_consumed"`
}

// AssignedLength returns the total length of all cut pieces.
func (p CuttingPlan) AssignedLength() float64 {
	var total float64
	for _, a := range p.Assignments {
		total += a.Length
	}
	return total
}

// ConsumedLength returns the total original length of all consumed sources.
func (p CuttingPlan) ConsumedLength() float64 {
	var total float64
	for _, s := range p.Sources {
		total += s.Length
	}
	return total
}

// ProducedRemnantLength returns the total length of new remnants.
func (p CuttingPlan) ProducedRemnantLength() float64 {
	return TotalRemnantLength(p.ProducedRemnants)
}

// ScrapLength returns the sub-threshold leftovers, i.e. waste without kerf.
func (p CuttingPlan) ScrapLength() float64 {
	return p.TotalWasteLength - p.TotalKerfLoss
}

// WastePercent returns waste as a share of consumed material.
func (p CuttingPlan) WastePercent() float64 {
	consumed := p.ConsumedLength()
	if consumed == 0 {
		return 0
	}
	return (p.TotalWasteLength / consumed) * 100.0
}

// AssignmentsFor returns the assignments cut from one source, in cut order.
func (p CuttingPlan) AssignmentsFor(sourceID string) []CutAssignment {
	var out []CutAssignment
	for _, a := range p.Assignments {
		if a.SourceID == sourceID {
			out = append(out, a)
		}
	}
	return out
}

// ConsumedSourceIDs returns the IDs of all sources touched by the plan.
func (p CuttingPlan) ConsumedSourceIDs() []string {
	ids := make([]string, len(p.Sources))
	for i, s := range p.Sources {
		ids[i] = s.SourceID
	}
	return ids
}

// Satisfied reports whether every piece unit was assigned.
func (p CuttingPlan) Satisfied() bool {
	return len(p.Unassigned) == 0
}

// OptimizeResult holds one plan per profile group.
type OptimizeResult struct {
	Plans []CuttingPlan `json:"plans"`
}

// Plan returns the plan for a profile, or nil.
func (r OptimizeResult) Plan(profile string) *CuttingPlan {
	for i := range r.Plans {
		if r.Plans[i].Profile == profile {
			return &r.Plans[i]
		}
	}
	return nil
}

// TotalWasteLength sums waste across all profile groups.
func (r OptimizeResult) TotalWasteLength() float64 {
	var total float64
	for _, p := range r.Plans {
		total += p.TotalWasteLength
	}
	return total
}

// TotalStockConsumed counts fresh bars used across all groups.
func (r OptimizeResult) TotalStockConsumed() int {
	total := 0
	for _, p := range r.Plans {
		total += p.TotalStockConsumed
	}
	return total
}

// UnassignedCount counts piece units that could not be placed.
func (r OptimizeResult) UnassignedCount() int {
	total := 0
	for _, p := range r.Plans {
		total += len(p.Unassigned)
	}
	return total
}

// WastePercent returns overall waste as a share of consumed material.
func (r OptimizeResult) WastePercent() float64 {
	var waste, consumed float64
	for _, p := range r.Plans {
		waste += p.TotalWasteLength
		consumed += p.ConsumedLength()
	}
	if consumed == 0 {
		return 0
	}
	return (waste / consumed) * 100.0
}
