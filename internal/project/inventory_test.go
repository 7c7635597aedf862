package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/SteelSys/internal/inventory"
	"github.com/piwi3910/SteelSys/internal/model"
)

func testContents() inventory.Contents {
	return inventory.Contents{
		Stock: []model.StockItem{
			{ID: "S1", Profile: "HEA200", Length: 12000, Status: model.StatusAvailable, HeatNumber: "H-1"},
			{ID: "S2", Profile: "IPE200", Length: 6000, Status: model.StatusConsumed},
		},
		Remnants: []model.RemnantItem{
			{ID: "R1", Profile: "HEA200", Length: 1800, Status: model.StatusAvailable,
				Origin: model.RemnantOrigin{SourceID: "S0", WorkOrderID: "WO-7", Offset: 10200}},
		},
	}
}

func TestSaveAndLoadInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "inventory.json")

	if err := SaveInventory(path, testContents()); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}

	loaded, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}

	if len(loaded.Stock) != 2 || len(loaded.Remnants) != 1 {
		t.Fatalf("expected 2 stock and 1 remnant, got %d and %d", len(loaded.Stock), len(loaded.Remnants))
	}
	if loaded.Stock[1].Status != model.StatusConsumed {
		t.Errorf("expected status to survive, got %s", loaded.Stock[1].Status)
	}
	if loaded.Remnants[0].Origin.WorkOrderID != "WO-7" {
		t.Errorf("expected remnant origin to survive, got %+v", loaded.Remnants[0].Origin)
	}
}

func TestLoadInventoryMissingFile(t *testing.T) {
	inv, err := LoadInventory(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(inv.Stock) != 0 || len(inv.Remnants) != 0 {
		t.Errorf("expected empty inventory, got %+v", inv)
	}
}

func TestLoadInventoryMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := os.WriteFile(path, []byte("[1,2"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := LoadInventory(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestImportInventoryMergesWithoutDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.json")
	imported := inventory.Contents{
		Stock: []model.StockItem{
			{ID: "S1", Profile: "HEA200", Length: 6000},
			{ID: "S9", Profile: "HEA200", Length: 6000},
		},
		Remnants: []model.RemnantItem{
			{ID: "R1", Profile: "HEA200", Length: 500},
			{ID: "S2", Profile: "IPE200", Length: 900},
			{ID: "R2", Profile: "IPE200", Length: 900},
		},
	}
	if err := SaveInventory(path, imported); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}

	merged, err := ImportInventory(path, testContents())
	if err != nil {
		t.Fatalf("ImportInventory failed: %v", err)
	}

	if len(merged.Stock) != 3 {
		t.Errorf("expected 3 stock bars, got %d", len(merged.Stock))
	}
	// R1 exists and S2 clashes with a stock bar; only R2 is new.
	if len(merged.Remnants) != 2 {
		t.Errorf("expected 2 remnants, got %d", len(merged.Remnants))
	}
	if merged.Stock[0].Length != 12000 {
		t.Errorf("existing item must not be replaced, got %v", merged.Stock[0].Length)
	}
}

func TestImportInventoryMissingFile(t *testing.T) {
	existing := testContents()
	merged, err := ImportInventory(filepath.Join(t.TempDir(), "none.json"), existing)
	if err == nil {
		t.Error("expected error for missing file")
	}
	if len(merged.Stock) != len(existing.Stock) {
		t.Error("expected existing inventory back on error")
	}
}

func TestLoadRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := SaveInventory(path, testContents()); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}

	repo, err := LoadRepository(ctx, path)
	if err != nil {
		t.Fatalf("LoadRepository failed: %v", err)
	}

	snap, err := repo.Snapshot(ctx, "HEA200")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Stock) != 1 || len(snap.Remnants) != 1 {
		t.Errorf("expected 1 bar and 1 remnant available, got %d and %d", len(snap.Stock), len(snap.Remnants))
	}

	ipe, err := repo.Snapshot(ctx, "IPE200")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(ipe.Stock) != 0 {
		t.Errorf("consumed bar must not be available, got %d", len(ipe.Stock))
	}
}
