package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/piwi3910/SteelSys/internal/engine"
	"github.com/piwi3910/SteelSys/internal/importer"
	"github.com/piwi3910/SteelSys/internal/inventory"
	"github.com/piwi3910/SteelSys/internal/model"
)

// OptimizePayload is the input of an optimize job.
type OptimizePayload struct {
	Stock    []model.StockItem     `json:"stock"`
	Remnants []model.RemnantItem   `json:"remnants"`
	Demand   []model.RequiredPiece `json:"demand"`
}

// ParseDrawingPayload is the input of a parse-drawing job.
type ParseDrawingPayload struct {
	Path           string `json:"path"`
	DefaultProfile string `json:"default_profile,omitempty"`
}

// OptimizeHandler plans the payload with the given settings and returns
// a model.OptimizeResult.
func OptimizeHandler(settings model.CutSettings) Handler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p OptimizePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("invalid optimize payload: %w", err)
		}
		return engine.New(settings).Optimize(ctx, p.Stock, p.Remnants, p.Demand)
	}
}

// RecalculateWeightsHandler totals the available inventory of every profile
// and returns a []model.InventoryWeight sorted by profile. Profiles missing
// from the catalog are reported with zero weight.
func RecalculateWeightsHandler(repo inventory.Repository, catalog model.Catalog) Handler {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		contents, err := repo.Contents(ctx)
		if err != nil {
			return nil, err
		}

		stock := make(map[string][]model.StockItem)
		remnants := make(map[string][]model.RemnantItem)
		names := make(map[string]bool)
		for _, s := range contents.Stock {
			stock[s.Profile] = append(stock[s.Profile], s)
			names[s.Profile] = true
		}
		for _, r := range contents.Remnants {
			remnants[r.Profile] = append(remnants[r.Profile], r)
			names[r.Profile] = true
		}

		profiles := make([]string, 0, len(names))
		for name := range names {
			profiles = append(profiles, name)
		}
		sort.Strings(profiles)

		weights := make([]model.InventoryWeight, 0, len(profiles))
		for _, name := range profiles {
			profile := model.Profile{Name: name}
			if p := catalog.Find(name); p != nil {
				profile = *p
				profile.Name = name
			}
			weights = append(weights, model.CalculateInventoryWeight(profile, stock[name], remnants[name]))
		}
		return weights, nil
	}
}

// ParseDrawingHandler reads linear pieces from a DXF drawing and returns an
// importer.ImportResult. A drawing that yields no pieces fails the job.
func ParseDrawingHandler(opts importer.DXFOptions) Handler {
	return func(ctx context.Context, payload json.RawMessage) (any, error) {
		var p ParseDrawingPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("invalid parse-drawing payload: %w", err)
		}
		if p.Path == "" {
			return nil, errors.New("parse-drawing payload has no path")
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o := opts
		if p.DefaultProfile != "" {
			o.DefaultProfile = p.DefaultProfile
		}
		result := importer.ImportDXF(p.Path, o)
		if len(result.Pieces) == 0 {
			return nil, fmt.Errorf("%s: %s", p.Path, strings.Join(result.Errors, "; "))
		}
		return result, nil
	}
}
