package workorder

import (
	"context"
	"fmt"
	"testing"

	"github.com/piwi3910/SteelSys/internal/inventory"
	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, repo inventory.Repository) *Service {
	cfg := model.DefaultAppConfig()
	cfg.DefaultKerf = 3
	return NewService(repo, cfg, model.DefaultCatalog(), zaptest.NewLogger(t))
}

func seededRepo(t *testing.T) *inventory.MemoryRepository {
	repo := inventory.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.AddStock(ctx,
		model.StockItem{ID: "S1", Profile: "HEA200", Length: 6000},
		model.StockItem{ID: "S2", Profile: "HEA200", Length: 6000},
		model.StockItem{ID: "S3", Profile: "IPE200", Length: 6000},
	))
	require.NoError(t, repo.AddRemnants(ctx,
		model.RemnantItem{ID: "R1", Profile: "HEA200", Length: 1500},
	))
	return repo
}

func TestServicePlan(t *testing.T) {
	repo := seededRepo(t)
	svc := newTestService(t, repo)
	wo := New("WO-1", "ACME",
		Part{ID: "p1", Label: "Beam", Profile: "HEA200", Length: 4000, Quantity: 1},
		Part{ID: "p2", Label: "Stub", Profile: "HEA200", Length: 1200, Quantity: 1},
		Part{ID: "p3", Label: "Joist", Profile: "IPE200", Length: 2500, Quantity: 2},
	)

	pr, err := svc.Plan(context.Background(), wo)
	require.NoError(t, err)

	assert.Equal(t, StatusPlanned, wo.Status)
	assert.Equal(t, 1, pr.Attempts)
	assert.Empty(t, pr.Shortfall)
	assert.Empty(t, pr.Purchases)
	require.Len(t, pr.Result.Plans, 2)

	hea := pr.Result.Plan("HEA200")
	require.NotNil(t, hea)
	assert.Equal(t, 1, hea.TotalRemnantsConsumed, "the stub is cut from R1")

	snap, err := repo.Snapshot(context.Background(), "HEA200")
	require.NoError(t, err)
	ids := []string{}
	for _, s := range snap.Stock {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"S2"}, ids)

	cuts, err := repo.Cuts(context.Background(), wo.ID)
	require.NoError(t, err)
	assert.Len(t, cuts, 4)
}

func TestServicePlanReportsShortfall(t *testing.T) {
	repo := seededRepo(t)
	svc := newTestService(t, repo)
	wo := New("WO-2", "ACME",
		Part{ID: "long", Label: "Girder", Profile: "HEA200", Length: 5000, Quantity: 3},
	)

	pr, err := svc.Plan(context.Background(), wo)
	require.NoError(t, err)
	assert.Equal(t, StatusPlanned, wo.Status)

	require.Len(t, pr.Shortfall, 1)
	assert.Equal(t, "long", pr.Shortfall[0].PieceID)
	assert.Equal(t, 1, pr.Shortfall[0].Quantity)

	require.Len(t, pr.Purchases, 1)
	assert.Equal(t, 12000.0, pr.Purchases[0].StockLength, "catalog bar length")
	assert.Equal(t, 1, pr.Purchases[0].BarsNeeded)
	assert.True(t, pr.Purchases[0].EstimatedKg.IsPositive())
}

func TestServicePlanRejectsNonDraft(t *testing.T) {
	svc := newTestService(t, seededRepo(t))
	wo := New("WO-3", "ACME", Part{ID: "p", Profile: "HEA200", Length: 100, Quantity: 1})
	wo.Status = StatusInProgress

	_, err := svc.Plan(context.Background(), wo)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestServicePlanRejectsEmptyWorkOrder(t *testing.T) {
	svc := newTestService(t, seededRepo(t))
	_, err := svc.Plan(context.Background(), New("WO-4", "ACME"))
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestServicePlanInvalidPart(t *testing.T) {
	svc := newTestService(t, seededRepo(t))
	wo := New("WO-5", "ACME", Part{ID: "p", Profile: "HEA200", Length: -4, Quantity: 1})

	_, err := svc.Plan(context.Background(), wo)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Equal(t, StatusDraft, wo.Status)
}

// racingRepo lets a rival consume S1 right before the first ApplyPlan.
type racingRepo struct {
	*inventory.MemoryRepository
	raced   bool
	applies int
}

func (r *racingRepo) ApplyPlan(ctx context.Context, workOrderID string, plans ...model.CuttingPlan) error {
	r.applies++
	if !r.raced {
		r.raced = true
		rival := model.CuttingPlan{
			Profile: "HEA200",
			Sources: []model.SourceUsage{{SourceID: "S1", SourceKind: model.SourceStock, Length: 6000}},
		}
		if err := r.MemoryRepository.ApplyPlan(ctx, "rival", rival); err != nil {
			return err
		}
	}
	return r.MemoryRepository.ApplyPlan(ctx, workOrderID, plans...)
}

func TestServicePlanRetriesOnConflict(t *testing.T) {
	repo := &racingRepo{MemoryRepository: seededRepo(t)}
	svc := newTestService(t, repo)
	wo := New("WO-6", "ACME", Part{ID: "p", Label: "Beam", Profile: "HEA200", Length: 4000, Quantity: 1})

	pr, err := svc.Plan(context.Background(), wo)
	require.NoError(t, err)

	assert.Equal(t, 2, pr.Attempts)
	assert.Equal(t, 2, repo.applies)
	plan := pr.Result.Plan("HEA200")
	require.NotNil(t, plan)
	assert.Equal(t, "S2", plan.Assignments[0].SourceID, "re-optimized without the rival's bar")
}

// conflictRepo always loses the race.
type conflictRepo struct {
	*inventory.MemoryRepository
	applies int
}

func (r *conflictRepo) ApplyPlan(context.Context, string, ...model.CuttingPlan) error {
	r.applies++
	return inventory.ErrConflict
}

func TestServicePlanGivesUp(t *testing.T) {
	repo := &conflictRepo{MemoryRepository: seededRepo(t)}
	svc := newTestService(t, repo)
	wo := New("WO-8", "ACME", Part{ID: "p", Profile: "HEA200", Length: 4000, Quantity: 1})

	_, err := svc.Plan(context.Background(), wo)
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrConflict)
	assert.Equal(t, model.DefaultAppConfig().MaxApplyAttempts, repo.applies)
	assert.Equal(t, StatusDraft, wo.Status)
}

// collidingRepo rejects every plan because a produced remnant ID is taken.
type collidingRepo struct {
	*inventory.MemoryRepository
	applies int
}

func (r *collidingRepo) ApplyPlan(context.Context, string, ...model.CuttingPlan) error {
	r.applies++
	return fmt.Errorf("produced remnant: %w", inventory.ErrDuplicateID)
}

func TestServicePlanDoesNotRetryDuplicateID(t *testing.T) {
	repo := &collidingRepo{MemoryRepository: seededRepo(t)}
	svc := newTestService(t, repo)
	wo := New("WO-11", "ACME", Part{ID: "p", Profile: "HEA200", Length: 4000, Quantity: 1})

	_, err := svc.Plan(context.Background(), wo)
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrDuplicateID)
	assert.Equal(t, 1, repo.applies, "the same ids would collide again")
	assert.Equal(t, StatusDraft, wo.Status)
}

func TestServiceLifecycle(t *testing.T) {
	svc := newTestService(t, seededRepo(t))
	wo := New("WO-9", "ACME", Part{ID: "p", Profile: "IPE200", Length: 1000, Quantity: 1})

	assert.ErrorIs(t, svc.Start(wo), ErrInvalidTransition)

	_, err := svc.Plan(context.Background(), wo)
	require.NoError(t, err)
	require.NoError(t, svc.Start(wo))
	assert.ErrorIs(t, svc.Cancel(wo), ErrInvalidTransition)
	require.NoError(t, svc.Complete(wo))
	assert.Equal(t, StatusCompleted, wo.Status)

	other := New("WO-10", "ACME")
	require.NoError(t, svc.Cancel(other))
	assert.Equal(t, StatusCancelled, other.Status)
}
