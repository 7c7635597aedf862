package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/piwi3910/SteelSys/internal/model"
)

// MemoryRepository keeps inventory in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	stock    map[string]model.StockItem
	remnants map[string]model.RemnantItem
	cuts     map[string][]model.CutAssignment // By work order
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		stock:    make(map[string]model.StockItem),
		remnants: make(map[string]model.RemnantItem),
		cuts:     make(map[string][]model.CutAssignment),
	}
}

func (r *MemoryRepository) Snapshot(_ context.Context, profile string) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{Profile: profile}
	for _, s := range r.stock {
		if s.Profile == profile && s.Status == model.StatusAvailable {
			snap.Stock = append(snap.Stock, s)
		}
	}
	for _, rm := range r.remnants {
		if rm.Profile == profile && rm.Status == model.StatusAvailable {
			snap.Remnants = append(snap.Remnants, rm)
		}
	}
	sortStock(snap.Stock)
	sortRemnants(snap.Remnants)
	return snap, nil
}

func (r *MemoryRepository) Profiles(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]bool)
	for _, s := range r.stock {
		if s.Status == model.StatusAvailable {
			set[s.Profile] = true
		}
	}
	for _, rm := range r.remnants {
		if rm.Status == model.StatusAvailable {
			set[rm.Profile] = true
		}
	}
	profiles := make([]string, 0, len(set))
	for p := range set {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)
	return profiles, nil
}

func (r *MemoryRepository) Contents(_ context.Context) (Contents, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var c Contents
	for _, s := range r.stock {
		c.Stock = append(c.Stock, s)
	}
	for _, rm := range r.remnants {
		c.Remnants = append(c.Remnants, rm)
	}
	sortStock(c.Stock)
	sortRemnants(c.Remnants)
	return c, nil
}

func (r *MemoryRepository) AddStock(_ context.Context, items ...model.StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, len(items))
	for i, s := range items {
		ids[i] = s.ID
	}
	if err := r.checkFree(ids); err != nil {
		return err
	}
	for _, s := range items {
		if s.Status == "" {
			s.Status = model.StatusAvailable
		}
		r.stock[s.ID] = s
	}
	return nil
}

func (r *MemoryRepository) AddRemnants(_ context.Context, items ...model.RemnantItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, len(items))
	for i, rm := range items {
		ids[i] = rm.ID
	}
	if err := r.checkFree(ids); err != nil {
		return err
	}
	for _, rm := range items {
		if rm.Status == "" {
			rm.Status = model.StatusAvailable
		}
		r.remnants[rm.ID] = rm
	}
	return nil
}

// ApplyPlan checks every source before changing anything, so a conflict
// leaves the repository untouched.
func (r *MemoryRepository) ApplyPlan(_ context.Context, workOrderID string, plans ...model.CuttingPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var produced []model.RemnantItem
	for _, plan := range plans {
		for _, src := range plan.Sources {
			status, ok := r.statusOf(src)
			if !ok {
				return fmt.Errorf("source %s: %w", src.SourceID, ErrNotFound)
			}
			if status != model.StatusAvailable {
				return fmt.Errorf("source %s is %s: %w", src.SourceID, status, ErrConflict)
			}
		}
		produced = append(produced, producedFor(workOrderID, plan)...)
	}
	ids := make([]string, len(produced))
	for i, rm := range produced {
		ids[i] = rm.ID
	}
	if err := r.checkFree(ids); err != nil {
		return fmt.Errorf("produced remnant: %w", err)
	}

	for _, plan := range plans {
		for _, src := range plan.Sources {
			if src.SourceKind == model.SourceStock {
				s := r.stock[src.SourceID]
				s.Status = model.StatusConsumed
				r.stock[src.SourceID] = s
				continue
			}
			rm := r.remnants[src.SourceID]
			rm.Status = model.StatusConsumed
			r.remnants[src.SourceID] = rm
		}
		r.cuts[workOrderID] = append(r.cuts[workOrderID], plan.Assignments...)
	}
	for _, rm := range produced {
		r.remnants[rm.ID] = rm
	}
	return nil
}

// checkFree fails with ErrDuplicateID when an ID repeats within ids or is
// held by any stock bar or remnant. Callers hold r.mu.
func (r *MemoryRepository) checkFree(ids []string) error {
	if id, dup := duplicateIn(ids); dup {
		return fmt.Errorf("%s given twice: %w", id, ErrDuplicateID)
	}
	for _, id := range ids {
		if _, ok := r.stock[id]; ok {
			return fmt.Errorf("%s is a stock bar: %w", id, ErrDuplicateID)
		}
		if _, ok := r.remnants[id]; ok {
			return fmt.Errorf("%s is a remnant: %w", id, ErrDuplicateID)
		}
	}
	return nil
}

func (r *MemoryRepository) statusOf(src model.SourceUsage) (model.Status, bool) {
	if src.SourceKind == model.SourceStock {
		s, ok := r.stock[src.SourceID]
		return s.Status, ok
	}
	rm, ok := r.remnants[src.SourceID]
	return rm.Status, ok
}

func (r *MemoryRepository) Cuts(_ context.Context, workOrderID string) ([]model.CutAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cuts := r.cuts[workOrderID]
	out := make([]model.CutAssignment, len(cuts))
	copy(out, cuts)
	return out, nil
}
