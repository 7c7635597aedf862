package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/piwi3910/SteelSys/internal/model"
	"golang.org/x/sync/errgroup"
)

// remnantNamespace seeds the deterministic IDs of produced remnants.
var remnantNamespace = uuid.MustParse("6f1c2b7e-3d0a-4c55-9a61-2f8e0b1d4c77")

// ComputeCuttingPlan assigns every unit of demand to a remnant or stock bar
// of one profile, best fit first and remnants before fresh stock.
//
// Units are processed longest first. Each unit goes to the open source
// (remnant or already opened bar) with the least remaining length that still
// holds length+kerf. Only when none fits is the shortest fitting fresh bar
// opened. Units that fit nowhere are returned in Unassigned. Leftovers of at
// least minUsableRemnant become produced remnants; shorter ones are scrap.
//
// The result depends only on the inputs. Malformed input returns an
// *model.InvalidInputError and no plan.
func ComputeCuttingPlan(profile string, stock []model.StockItem, remnants []model.RemnantItem, demand []model.RequiredPiece, kerf, minUsableRemnant float64) (model.CuttingPlan, error) {
	if err := validateInput(profile, stock, remnants, demand, kerf, minUsableRemnant); err != nil {
		return model.CuttingPlan{}, err
	}

	plan := model.CuttingPlan{
		Profile:          profile,
		Kerf:             kerf,
		MinUsableRemnant: minUsableRemnant,
		Assignments:      []model.CutAssignment{},
		ProducedRemnants: []model.RemnantItem{},
		Unassigned:       []model.PieceUnit{},
		Sources:          []model.SourceUsage{},
	}

	pool := newSourcePool(stock, remnants)
	var opened []*source // In order of first cut

	for _, u := range expandDemand(demand) {
		s := pool.take(u.Length + kerf)
		if s == nil {
			plan.Unassigned = append(plan.Unassigned, u)
			continue
		}
		if s.cuts == 0 {
			opened = append(opened, s)
		}
		plan.Assignments = append(plan.Assignments, s.cut(u, kerf))
		pool.put(s)
	}

	for _, s := range opened {
		usage := model.SourceUsage{
			SourceID:    s.id,
			SourceKind:  s.kind,
			Label:       s.label,
			HeatNumber:  s.heat,
			Length:      s.length,
			Cuts:        s.cuts,
			UsedLength:  s.used,
			KerfLoss:    s.kerfLoss,
			Leftover:    s.leftover(),
			Disposition: model.DispositionNone,
		}
		plan.TotalKerfLoss += s.kerfLoss
		plan.TotalWasteLength += s.kerfLoss

		switch {
		case usage.Leftover <= lengthEpsilon:
		case model.IsUsable(usage.Leftover, minUsableRemnant):
			r := producedRemnant(profile, s)
			usage.Disposition = model.DispositionRemnant
			usage.RemnantID = r.ID
			plan.ProducedRemnants = append(plan.ProducedRemnants, r)
		default:
			usage.Disposition = model.DispositionScrap
			plan.TotalWasteLength += usage.Leftover
		}

		if s.kind == model.SourceStock {
			plan.TotalStockConsumed++
		} else {
			plan.TotalRemnantsConsumed++
		}
		plan.Sources = append(plan.Sources, usage)
	}

	return plan, nil
}

// expandDemand turns pieces into individual units sorted longest first,
// ties by piece ID and then instance number.
func expandDemand(demand []model.RequiredPiece) []model.PieceUnit {
	var units []model.PieceUnit
	for _, p := range demand {
		for i := 0; i < p.Quantity; i++ {
			units = append(units, model.PieceUnit{
				PieceID: p.ID,
				Label:   p.Label,
				PartRef: p.PartRef,
				Length:  p.Length,
				Index:   i,
			})
		}
	}
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Length != units[j].Length {
			return units[i].Length > units[j].Length
		}
		if units[i].PieceID != units[j].PieceID {
			return units[i].PieceID < units[j].PieceID
		}
		return units[i].Index < units[j].Index
	})
	return units
}

func producedRemnant(profile string, s *source) model.RemnantItem {
	label := s.label
	if label == "" {
		label = s.id
	}
	return model.RemnantItem{
		ID:      uuid.NewSHA1(remnantNamespace, []byte(s.id)).String()[:8],
		Profile: profile,
		Label:   fmt.Sprintf("%s (rest)", label),
		Length:  s.leftover(),
		Origin: model.RemnantOrigin{
			SourceID:   s.id,
			SourceKind: s.kind,
			Offset:     s.cursor,
		},
		Status:     model.StatusAvailable,
		HeatNumber: s.heat,
	}
}

func assignmentID(sourceID string, n int) string {
	return fmt.Sprintf("%s/%d", sourceID, n)
}

func validateInput(profile string, stock []model.StockItem, remnants []model.RemnantItem, demand []model.RequiredPiece, kerf, minUsable float64) error {
	if !finite(kerf) || kerf < 0 {
		return model.Invalid("kerf", "must be a non-negative number, got %v", kerf)
	}
	if !finite(minUsable) || minUsable < 0 {
		return model.Invalid("minUsableRemnant", "must be a non-negative number, got %v", minUsable)
	}

	seen := make(map[string]bool, len(stock)+len(remnants))
	checkSource := func(field, id, itemProfile string, length float64, status model.Status) error {
		if id == "" {
			return model.Invalid(field+".id", "must not be empty")
		}
		if seen[id] {
			return model.Invalid(field+".id", "duplicate source id %q", id)
		}
		seen[id] = true
		if itemProfile != profile {
			return model.Invalid(field+".profile", "%q does not belong to profile group %q", itemProfile, profile)
		}
		if !finite(length) || length <= 0 {
			return model.Invalid(field+".length", "must be positive, got %v", length)
		}
		if status != "" && status != model.StatusAvailable {
			return model.Invalid(field+".status", "source %q is %s", id, status)
		}
		return nil
	}

	for i, r := range remnants {
		if err := checkSource(fmt.Sprintf("remnants[%d]", i), r.ID, r.Profile, r.Length, r.Status); err != nil {
			return err
		}
	}
	for i, s := range stock {
		if err := checkSource(fmt.Sprintf("stock[%d]", i), s.ID, s.Profile, s.Length, s.Status); err != nil {
			return err
		}
	}
	for i, p := range demand {
		field := fmt.Sprintf("demand[%d]", i)
		if p.Profile != profile {
			return model.Invalid(field+".profile", "%q does not belong to profile group %q", p.Profile, profile)
		}
		if !finite(p.Length) || p.Length <= 0 {
			return model.Invalid(field+".length", "must be positive, got %v", p.Length)
		}
		if p.Quantity < 1 {
			return model.Invalid(field+".quantity", "must be at least 1, got %d", p.Quantity)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Optimizer plans mixed-profile inventory against mixed-profile demand.
type Optimizer struct {
	Settings model.CutSettings
}

func New(settings model.CutSettings) *Optimizer {
	return &Optimizer{Settings: settings}
}

// Optimize groups the inputs by profile and runs ComputeCuttingPlan for each
// group, up to Settings.Parallelism groups at a time. Plans are returned
// sorted by profile name. Sources of profiles without demand are ignored.
// When Settings.UseRemnants is false remnants are left out of the pools.
func (o *Optimizer) Optimize(ctx context.Context, stock []model.StockItem, remnants []model.RemnantItem, demand []model.RequiredPiece) (model.OptimizeResult, error) {
	if !o.Settings.UseRemnants {
		remnants = nil
	}
	groups := groupByProfile(stock, remnants, demand)
	plans := make([]model.CuttingPlan, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	limit := o.Settings.Parallelism
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, grp := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			plan, err := ComputeCuttingPlan(grp.profile, grp.stock, grp.remnants, grp.demand, o.Settings.Kerf, o.Settings.MinUsableRemnant)
			if err != nil {
				return fmt.Errorf("profile %s: %w", grp.profile, err)
			}
			plans[i] = plan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.OptimizeResult{}, err
	}
	return model.OptimizeResult{Plans: plans}, nil
}

// profileGroup holds the inputs for a single profile.
type profileGroup struct {
	profile  string
	stock    []model.StockItem
	remnants []model.RemnantItem
	demand   []model.RequiredPiece
}

// groupByProfile splits the inputs by profile. Only profiles that appear in
// the demand get a group; groups are sorted by profile name.
func groupByProfile(stock []model.StockItem, remnants []model.RemnantItem, demand []model.RequiredPiece) []profileGroup {
	index := make(map[string]int)
	var groups []profileGroup
	for _, p := range demand {
		i, ok := index[p.Profile]
		if !ok {
			i = len(groups)
			index[p.Profile] = i
			groups = append(groups, profileGroup{profile: p.Profile})
		}
		groups[i].demand = append(groups[i].demand, p)
	}
	for _, s := range stock {
		if i, ok := index[s.Profile]; ok {
			groups[i].stock = append(groups[i].stock, s)
		}
	}
	for _, r := range remnants {
		if i, ok := index[r.Profile]; ok {
			groups[i].remnants = append(groups[i].remnants, r)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].profile < groups[j].profile
	})
	return groups
}
