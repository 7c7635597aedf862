package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/SteelSys/internal/model"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	err := ExportLabels(path, buildTestResult(t), "WO-1001")
	if err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("labels PDF not created: %v", err)
	}
	if info.Size() == 0 {
		t.Error("labels PDF is empty")
	}
}

func TestExportLabels_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, model.OptimizeResult{}, ""); err == nil {
		t.Error("expected error for empty result, got nil")
	}
}

func TestExportLabels_NothingCut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")
	result := model.OptimizeResult{Plans: []model.CuttingPlan{{
		Profile:    "HEA200",
		Unassigned: []model.PieceUnit{{PieceID: "mast", Length: 14000}},
	}}}

	if err := ExportLabels(path, result, ""); err == nil {
		t.Error("expected error when no pieces were cut, got nil")
	}
}

func TestCollectLabelInfos(t *testing.T) {
	result := buildTestResult(t)
	labels := CollectLabelInfos(result, "WO-1001")

	pieces, remnants := 0, 0
	for _, l := range labels {
		switch l.Kind {
		case LabelPiece:
			pieces++
		case LabelRemnant:
			remnants++
		default:
			t.Errorf("unexpected label kind %q", l.Kind)
		}
		if l.WorkOrder != "WO-1001" {
			t.Errorf("expected work order on every label, got %q", l.WorkOrder)
		}
	}
	if pieces != countPieces(result) {
		t.Errorf("expected %d piece labels, got %d", countPieces(result), pieces)
	}
	produced := 0
	for _, p := range result.Plans {
		produced += len(p.ProducedRemnants)
	}
	if remnants != produced {
		t.Errorf("expected %d remnant labels, got %d", produced, remnants)
	}

	// Pieces come first, remnants after
	if labels[0].Kind != LabelPiece || labels[len(labels)-1].Kind != LabelRemnant && produced > 0 {
		t.Errorf("unexpected label order: first %q, last %q", labels[0].Kind, labels[len(labels)-1].Kind)
	}

	for _, l := range labels {
		if l.Kind == LabelPiece && l.SourceID == "S1" && l.HeatNumber != "H-991" {
			t.Errorf("expected heat number of S1 on piece label %s, got %q", l.ID, l.HeatNumber)
		}
	}
}

func TestLabelInfo_QRPayload(t *testing.T) {
	info := LabelInfo{
		Kind:     LabelRemnant,
		ID:       "3f2a9c10",
		Label:    "S1 (rest)",
		Profile:  "HEA200",
		Length:   1847,
		SourceID: "S1",
		Offset:   10153,
	}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	for _, key := range []string{"kind", "id", "profile", "length_mm", "source_id", "offset_mm"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("QR payload misses %q: %s", key, data)
		}
	}
	if _, ok := fields["part_ref"]; ok {
		t.Errorf("empty part_ref should be omitted: %s", data)
	}
}

func TestExportLabels_ManyPieces(t *testing.T) {
	plan := model.CuttingPlan{Profile: "FL100x10"}
	for i := 0; i < 65; i++ {
		plan.Assignments = append(plan.Assignments, model.CutAssignment{
			ID:       fmt.Sprintf("S1/%d", i+1),
			PieceID:  "tab",
			Label:    fmt.Sprintf("Tab %d", i+1),
			SourceID: "S1",
			Offset:   float64(i) * 93,
			Length:   90,
			Kerf:     3,
		})
	}

	path := filepath.Join(t.TempDir(), "labels.pdf")
	if err := ExportLabels(path, model.OptimizeResult{Plans: []model.CuttingPlan{plan}}, ""); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
}
