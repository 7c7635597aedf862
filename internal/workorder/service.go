package workorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/piwi3910/SteelSys/internal/engine"
	"github.com/piwi3910/SteelSys/internal/inventory"
	"github.com/piwi3910/SteelSys/internal/model"
	"go.uber.org/zap"
)

// PlanResult is the outcome of planning one work order.
type PlanResult struct {
	WorkOrderID string                     `json:"work_order_id"`
	Result      model.OptimizeResult       `json:"result"`
	Shortfall   []model.ShortfallLine      `json:"shortfall"`
	Purchases   []model.PurchaseSuggestion `json:"purchases"`
	Attempts    int                        `json:"attempts"`
}

// Service plans work orders against an inventory repository.
type Service struct {
	repo        inventory.Repository
	settings    model.CutSettings
	catalog     model.Catalog
	maxAttempts int
	log         *zap.Logger
}

func NewService(repo inventory.Repository, cfg model.AppConfig, catalog model.Catalog, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	attempts := cfg.MaxApplyAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Service{
		repo:        repo,
		settings:    cfg.Settings(),
		catalog:     catalog,
		maxAttempts: attempts,
		log:         log,
	}
}

// Plan optimizes a draft work order against fresh inventory snapshots and
// applies the result. When another actor consumed a planned source first,
// the snapshots are re-read and the optimization repeated, up to the
// configured number of attempts. On success the work order becomes planned.
// Demand that cannot be met is reported in the result, not as an error.
func (s *Service) Plan(ctx context.Context, wo *WorkOrder) (PlanResult, error) {
	if !wo.Status.CanTransition(StatusPlanned) {
		return PlanResult{}, fmt.Errorf("work order %s is %s: %w", wo.Number, wo.Status, ErrInvalidTransition)
	}
	if len(wo.Parts) == 0 {
		return PlanResult{}, model.Invalid("parts", "work order %s has no parts", wo.Number)
	}

	log := s.log.With(zap.String("work_order", wo.Number))
	demand := wo.Demand()
	opt := engine.New(s.settings)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		var stock []model.StockItem
		var remnants []model.RemnantItem
		for _, profile := range wo.Profiles() {
			snap, err := s.repo.Snapshot(ctx, profile)
			if err != nil {
				return PlanResult{}, fmt.Errorf("failed to snapshot %s: %w", profile, err)
			}
			stock = append(stock, snap.Stock...)
			remnants = append(remnants, snap.Remnants...)
		}

		result, err := opt.Optimize(ctx, stock, remnants, demand)
		if err != nil {
			return PlanResult{}, err
		}

		err = s.repo.ApplyPlan(ctx, wo.ID, result.Plans...)
		if errors.Is(err, inventory.ErrConflict) {
			log.Warn("inventory changed while planning, re-optimizing",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if err != nil {
			return PlanResult{}, fmt.Errorf("failed to apply plan: %w", err)
		}

		if err := wo.Transition(StatusPlanned); err != nil {
			return PlanResult{}, err
		}
		pr := s.summarize(wo, result, attempt)
		log.Info("work order planned",
			zap.Int("attempts", attempt),
			zap.Int("bars", result.TotalStockConsumed()),
			zap.Float64("waste_mm", result.TotalWasteLength()),
			zap.Int("unassigned", result.UnassignedCount()))
		return pr, nil
	}

	return PlanResult{}, fmt.Errorf("work order %s: gave up after %d attempts: %w", wo.Number, s.maxAttempts, inventory.ErrConflict)
}

func (s *Service) summarize(wo *WorkOrder, result model.OptimizeResult, attempts int) PlanResult {
	pr := PlanResult{
		WorkOrderID: wo.ID,
		Result:      result,
		Shortfall:   []model.ShortfallLine{},
		Purchases:   []model.PurchaseSuggestion{},
		Attempts:    attempts,
	}
	for _, plan := range result.Plans {
		if plan.Satisfied() {
			continue
		}
		pr.Shortfall = append(pr.Shortfall, plan.Shortfall()...)

		profile := model.Profile{Name: plan.Profile}
		if p := s.catalog.Find(plan.Profile); p != nil {
			profile = *p
		}
		pr.Purchases = append(pr.Purchases, model.SuggestPurchase(profile, plan.Unassigned, s.settings.Kerf))
	}
	return pr
}

// Start moves a planned work order onto the shop floor.
func (s *Service) Start(wo *WorkOrder) error {
	return s.move(wo, StatusInProgress)
}

// Complete closes a work order that is in progress.
func (s *Service) Complete(wo *WorkOrder) error {
	return s.move(wo, StatusCompleted)
}

// Cancel stops a work order that has not been started.
func (s *Service) Cancel(wo *WorkOrder) error {
	return s.move(wo, StatusCancelled)
}

func (s *Service) move(wo *WorkOrder, next Status) error {
	from := wo.Status
	if err := wo.Transition(next); err != nil {
		return err
	}
	s.log.Info("work order status changed",
		zap.String("work_order", wo.Number),
		zap.String("from", string(from)),
		zap.String("to", string(next)))
	return nil
}
