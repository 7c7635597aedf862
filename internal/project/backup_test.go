package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/SteelSys/internal/inventory"
	"github.com/piwi3910/SteelSys/internal/model"
)

func TestExportAndImportAllData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "backup", "steelsys.json")

	repo := inventory.NewMemoryRepository()
	if err := Restore(ctx, repo, testContents()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	cfg := model.DefaultAppConfig()
	cfg.DefaultKerf = 2.2
	catalog := model.DefaultCatalog()

	if err := ExportAllData(ctx, path, cfg, catalog, repo); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}

	if backup.Version != BackupVersion {
		t.Errorf("expected version %s, got %s", BackupVersion, backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if backup.Config.DefaultKerf != 2.2 {
		t.Errorf("expected DefaultKerf=2.2, got %f", backup.Config.DefaultKerf)
	}
	if len(backup.Catalog.Profiles) != len(catalog.Profiles) {
		t.Errorf("expected %d catalog profiles, got %d", len(catalog.Profiles), len(backup.Catalog.Profiles))
	}
	hea := backup.Catalog.Find("HEA200")
	if hea == nil || !hea.WeightPerMetre.Equal(catalog.Find("HEA200").WeightPerMetre) {
		t.Errorf("expected HEA200 weight to survive, got %+v", hea)
	}

	// Consumed items are part of the backup too.
	if len(backup.Inventory.Stock) != 2 || len(backup.Inventory.Remnants) != 1 {
		t.Errorf("expected full inventory, got %d stock and %d remnants",
			len(backup.Inventory.Stock), len(backup.Inventory.Remnants))
	}

	restored := inventory.NewMemoryRepository()
	if err := Restore(ctx, restored, backup.Inventory); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	contents, err := restored.Contents(ctx)
	if err != nil {
		t.Fatalf("Contents failed: %v", err)
	}
	if len(contents.Stock) != 2 {
		t.Errorf("expected 2 restored bars, got %d", len(contents.Stock))
	}
}

func TestImportAllDataInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := ImportAllData(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestImportAllDataMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	if err := os.WriteFile(path, []byte(`{"config":{}}`), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := ImportAllData(path); err == nil {
		t.Error("expected error for missing version")
	}
}

func TestImportAllDataMissingFile(t *testing.T) {
	if _, err := ImportAllData(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
