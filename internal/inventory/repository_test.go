package inventory

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/piwi3910/SteelSys/internal/engine"
	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type repoFactory func(t *testing.T) Repository

func factories() map[string]repoFactory {
	return map[string]repoFactory{
		"memory": func(t *testing.T) Repository {
			return NewMemoryRepository()
		},
		"sqlite": func(t *testing.T) Repository {
			repo, err := OpenSQLite(filepath.Join(t.TempDir(), "inventory.db"), zaptest.NewLogger(t))
			require.NoError(t, err)
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		},
	}
}

func seed(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.AddStock(ctx,
		model.StockItem{ID: "S2", Profile: "HEA200", Length: 6000, Status: model.StatusAvailable, HeatNumber: "H1"},
		model.StockItem{ID: "S1", Profile: "HEA200", Length: 2000},
		model.StockItem{ID: "S3", Profile: "IPE200", Length: 6000, Status: model.StatusAvailable},
		model.StockItem{ID: "S4", Profile: "UPN100", Length: 6000, Status: model.StatusConsumed},
	))
	require.NoError(t, repo.AddRemnants(ctx,
		model.RemnantItem{ID: "R1", Profile: "HEA200", Length: 300, Status: model.StatusAvailable},
	))
}

func TestRepository_SnapshotFiltersAndSorts(t *testing.T) {
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			seed(t, repo)

			snap, err := repo.Snapshot(context.Background(), "HEA200")
			require.NoError(t, err)
			require.Len(t, snap.Stock, 2)
			assert.Equal(t, "S1", snap.Stock[0].ID)
			assert.Equal(t, model.StatusAvailable, snap.Stock[0].Status, "empty status defaults to available")
			assert.Equal(t, "H1", snap.Stock[1].HeatNumber)
			require.Len(t, snap.Remnants, 1)
			assert.Equal(t, 300.0, snap.Remnants[0].Length)

			empty, err := repo.Snapshot(context.Background(), "UPN100")
			require.NoError(t, err)
			assert.Empty(t, empty.Stock, "consumed stock is not offered")
		})
	}
}

func TestRepository_Profiles(t *testing.T) {
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			seed(t, repo)

			profiles, err := repo.Profiles(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"HEA200", "IPE200"}, profiles)
		})
	}
}

func TestRepository_ApplyPlan(t *testing.T) {
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			seed(t, repo)

			snap, err := repo.Snapshot(ctx, "HEA200")
			require.NoError(t, err)
			demand := []model.RequiredPiece{
				{ID: "P1", Profile: "HEA200", Length: 280, Quantity: 1},
				{ID: "P2", Profile: "HEA200", Length: 1500, Quantity: 1},
			}
			plan, err := engine.ComputeCuttingPlan("HEA200", snap.Stock, snap.Remnants, demand, 2, 50)
			require.NoError(t, err)
			require.Len(t, plan.Sources, 2) // S1 for 1500, R1 for 280

			require.NoError(t, repo.ApplyPlan(ctx, "WO-1", plan))

			after, err := repo.Snapshot(ctx, "HEA200")
			require.NoError(t, err)
			require.Len(t, after.Stock, 1)
			assert.Equal(t, "S2", after.Stock[0].ID)
			require.Len(t, after.Remnants, 1, "R1 consumed, S1 leaves a 498 remnant")
			assert.InDelta(t, 498.0, after.Remnants[0].Length, 1e-9)
			assert.Equal(t, "S1", after.Remnants[0].Origin.SourceID)
			assert.Equal(t, "WO-1", after.Remnants[0].Origin.WorkOrderID)

			cuts, err := repo.Cuts(ctx, "WO-1")
			require.NoError(t, err)
			assert.Equal(t, plan.Assignments, cuts)

			contents, err := repo.Contents(ctx)
			require.NoError(t, err)
			assert.Len(t, contents.Stock, 4)
			assert.Len(t, contents.Remnants, 2)
		})
	}
}

func TestRepository_ApplyStalePlanConflicts(t *testing.T) {
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			seed(t, repo)

			snap, err := repo.Snapshot(ctx, "HEA200")
			require.NoError(t, err)

			first, err := engine.ComputeCuttingPlan("HEA200", snap.Stock, nil,
				[]model.RequiredPiece{{ID: "A", Profile: "HEA200", Length: 1900, Quantity: 1}}, 3, 50)
			require.NoError(t, err)
			// Same snapshot: S1 for 1900 and S2 for 5000.
			second, err := engine.ComputeCuttingPlan("HEA200", snap.Stock, nil,
				[]model.RequiredPiece{
					{ID: "B", Profile: "HEA200", Length: 5000, Quantity: 1},
					{ID: "C", Profile: "HEA200", Length: 1900, Quantity: 1},
				}, 3, 50)
			require.NoError(t, err)

			require.NoError(t, repo.ApplyPlan(ctx, "WO-1", first))
			err = repo.ApplyPlan(ctx, "WO-2", second)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConflict)
			assert.True(t, IsConflict(err))

			after, err := repo.Snapshot(ctx, "HEA200")
			require.NoError(t, err)
			require.Len(t, after.Stock, 1)
			assert.Equal(t, "S2", after.Stock[0].ID, "failed plan must not consume anything")

			cuts, err := repo.Cuts(ctx, "WO-2")
			require.NoError(t, err)
			assert.Empty(t, cuts)
		})
	}
}

func TestRepository_ApplyUnknownSource(t *testing.T) {
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			repo := newRepo(t)
			plan := model.CuttingPlan{
				Profile: "HEA200",
				Sources: []model.SourceUsage{{SourceID: "ghost", SourceKind: model.SourceStock, Length: 6000}},
			}
			err := repo.ApplyPlan(context.Background(), "WO-1", plan)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRepository_DuplicateIDRejected(t *testing.T) {
	tests := []struct {
		name string
		add  func(ctx context.Context, repo Repository) error
	}{
		{"stock reuses stock id", func(ctx context.Context, repo Repository) error {
			return repo.AddStock(ctx, model.StockItem{ID: "S1", Profile: "HEA200", Length: 1000})
		}},
		{"stock reuses remnant id", func(ctx context.Context, repo Repository) error {
			return repo.AddStock(ctx, model.StockItem{ID: "R1", Profile: "HEA200", Length: 1000})
		}},
		{"remnant reuses stock id", func(ctx context.Context, repo Repository) error {
			return repo.AddRemnants(ctx, model.RemnantItem{ID: "S2", Profile: "HEA200", Length: 400})
		}},
		{"remnant reuses remnant id", func(ctx context.Context, repo Repository) error {
			return repo.AddRemnants(ctx, model.RemnantItem{ID: "R1", Profile: "HEA200", Length: 400})
		}},
		{"same id twice in one batch", func(ctx context.Context, repo Repository) error {
			return repo.AddStock(ctx,
				model.StockItem{ID: "S9", Profile: "HEA200", Length: 1000},
				model.StockItem{ID: "S9", Profile: "HEA200", Length: 2000})
		}},
	}

	for name, newRepo := range factories() {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				ctx := context.Background()
				repo := newRepo(t)
				seed(t, repo)

				err := tt.add(ctx, repo)
				assert.ErrorIs(t, err, ErrDuplicateID)
				assert.False(t, IsConflict(err))

				contents, err := repo.Contents(ctx)
				require.NoError(t, err)
				assert.Len(t, contents.Stock, 4, "nothing inserted")
				assert.Len(t, contents.Remnants, 1, "nothing inserted")
			})
		}
	}
}

func TestRepository_ProducedRemnantIDCollision(t *testing.T) {
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			seed(t, repo)

			plan := model.CuttingPlan{
				Profile: "IPE200",
				Sources: []model.SourceUsage{{SourceID: "S3", SourceKind: model.SourceStock, Length: 6000}},
				ProducedRemnants: []model.RemnantItem{
					{ID: "S2", Profile: "IPE200", Length: 900, Origin: model.RemnantOrigin{SourceID: "S3"}},
				},
			}
			err := repo.ApplyPlan(ctx, "WO-5", plan)
			assert.ErrorIs(t, err, ErrDuplicateID)
			assert.False(t, IsConflict(err), "a repeated id must not be retried")

			snap, err := repo.Snapshot(ctx, "IPE200")
			require.NoError(t, err)
			assert.Len(t, snap.Stock, 1, "S3 stays available")
			assert.Empty(t, snap.Remnants)
		})
	}
}

func TestMemoryRepository_ConcurrentApplyOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.AddStock(ctx, model.StockItem{ID: "S1", Profile: "HEA200", Length: 6000}))

	snap, err := repo.Snapshot(ctx, "HEA200")
	require.NoError(t, err)
	plan, err := engine.ComputeCuttingPlan("HEA200", snap.Stock, nil,
		[]model.RequiredPiece{{ID: "P", Profile: "HEA200", Length: 1000, Quantity: 1}}, 3, 50)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.ApplyPlan(ctx, "WO", plan)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, wins)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "", nil)
	assert.Error(t, err)
}

func TestRepository_ApplyPlansAllOrNothing(t *testing.T) {
	for name, newRepo := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := newRepo(t)
			seed(t, repo)

			ipe := model.CuttingPlan{
				Profile: "IPE200",
				Sources: []model.SourceUsage{{SourceID: "S3", SourceKind: model.SourceStock, Length: 6000}},
			}
			stale := model.CuttingPlan{
				Profile: "UPN100",
				Sources: []model.SourceUsage{{SourceID: "S4", SourceKind: model.SourceStock, Length: 6000}},
			}

			err := repo.ApplyPlan(ctx, "WO-9", ipe, stale)
			assert.ErrorIs(t, err, ErrConflict)

			snap, err := repo.Snapshot(ctx, "IPE200")
			require.NoError(t, err)
			assert.Len(t, snap.Stock, 1, "IPE200 plan rolled back with the UPN100 conflict")
		})
	}
}
