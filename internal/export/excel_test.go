package export

import (
	"path/filepath"
	"testing"

	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/xuri/excelize/v2"
)

func TestExportExcel_Sheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	result := buildTestResult(t)

	if err := ExportExcel(path, result, model.DefaultCatalog()); err != nil {
		t.Fatalf("ExportExcel returned error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("cannot open workbook: %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetCutList, SheetSources, SheetRemnants, SheetShortfall}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("expected sheets %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	rows, err := f.GetRows(SheetCutList)
	if err != nil {
		t.Fatalf("cannot read cut list: %v", err)
	}
	if len(rows)-1 != countPieces(result) {
		t.Errorf("expected %d cut rows, got %d", countPieces(result), len(rows)-1)
	}
	if rows[0][0] != "Profile" {
		t.Errorf("expected header row, got %v", rows[0])
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatalf("cannot read summary: %v", err)
	}
	if len(summary) != 3 {
		t.Fatalf("expected header and 2 profile rows, got %d", len(summary))
	}
	if summary[1][0] != "HEA200" || summary[2][0] != "IPE200" {
		t.Errorf("unexpected profile order: %v / %v", summary[1], summary[2])
	}
	if len(summary[1]) != 12 {
		t.Errorf("expected weight columns for a catalog profile, got %d cells", len(summary[1]))
	}

	shortfall, err := f.GetRows(SheetShortfall)
	if err != nil {
		t.Fatalf("cannot read shortfall: %v", err)
	}
	if len(shortfall) != 2 || shortfall[1][1] != "mast" || shortfall[1][4] != "1" {
		t.Errorf("expected one mast shortfall line, got %v", shortfall)
	}
}

func TestExportExcel_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := ExportExcel(path, model.OptimizeResult{}, model.DefaultCatalog()); err == nil {
		t.Error("expected error for empty result, got nil")
	}
}

func TestRound1(t *testing.T) {
	if got := round1(12.345); got != 12.3 {
		t.Errorf("round1(12.345) = %v, want 12.3", got)
	}
	if got := round1(0.05); got != 0.1 {
		t.Errorf("round1(0.05) = %v, want 0.1", got)
	}
}
