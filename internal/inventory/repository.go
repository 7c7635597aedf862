// Package inventory stores stock bars, remnants and the cuts applied to them.
package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/piwi3910/SteelSys/internal/model"
)

var (
	// ErrConflict means a source referenced by a plan is no longer available.
	// The caller should take a fresh snapshot and optimize again.
	ErrConflict = errors.New("inventory changed concurrently")
	// ErrNotFound means a referenced item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID means an inserted stock bar or remnant reuses an ID
	// already held by a stock bar or a remnant. Retrying does not help.
	ErrDuplicateID = errors.New("id already in use")
)

// Snapshot is the available inventory of one profile at a point in time.
type Snapshot struct {
	Profile  string              `json:"profile"`
	Stock    []model.StockItem   `json:"stock"`
	Remnants []model.RemnantItem `json:"remnants"`
}

// Contents is every stock bar and remnant regardless of status.
type Contents struct {
	Stock    []model.StockItem   `json:"stock"`
	Remnants []model.RemnantItem `json:"remnants"`
}

// Repository persists inventory. ApplyPlan is atomic over all given plans:
// either every consumed source is marked consumed and every produced remnant
// inserted, or nothing changes.
type Repository interface {
	Snapshot(ctx context.Context, profile string) (Snapshot, error)
	Profiles(ctx context.Context) ([]string, error)
	Contents(ctx context.Context) (Contents, error)
	AddStock(ctx context.Context, items ...model.StockItem) error
	AddRemnants(ctx context.Context, items ...model.RemnantItem) error
	ApplyPlan(ctx context.Context, workOrderID string, plans ...model.CuttingPlan) error
	Cuts(ctx context.Context, workOrderID string) ([]model.CutAssignment, error)
}

func sortStock(items []model.StockItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

func sortRemnants(items []model.RemnantItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

// duplicateIn returns the first ID that occurs twice in ids.
func duplicateIn(ids []string) (string, bool) {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return id, true
		}
		seen[id] = true
	}
	return "", false
}

// producedFor stamps the work order onto the remnants a plan produces.
func producedFor(workOrderID string, plan model.CuttingPlan) []model.RemnantItem {
	out := make([]model.RemnantItem, len(plan.ProducedRemnants))
	for i, r := range plan.ProducedRemnants {
		r.Origin.WorkOrderID = workOrderID
		r.Status = model.StatusAvailable
		if r.Profile == "" {
			r.Profile = plan.Profile
		}
		out[i] = r
	}
	return out
}
