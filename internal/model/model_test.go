package model

import (
	"errors"
	"math"
	"testing"
)

func samplePlan() CuttingPlan {
	return CuttingPlan{
		Profile: "HEA200",
		Assignments: []CutAssignment{
			{PieceID: "p1", SourceID: "s1", Offset: 0, Length: 1000, Kerf: 5},
			{PieceID: "p2", SourceID: "r1", SourceKind: SourceRemnant, Offset: 0, Length: 280, Kerf: 2},
			{PieceID: "p3", SourceID: "s1", Offset: 1005, Length: 500, Kerf: 5},
		},
		Sources: []SourceUsage{
			{SourceID: "s1", Length: 2000, UsedLength: 1500, KerfLoss: 10, Leftover: 490},
			{SourceID: "r1", SourceKind: SourceRemnant, Length: 300, UsedLength: 280, KerfLoss: 2, Leftover: 18},
		},
		TotalWasteLength: 30,
	}
}

func TestCuttingPlanTotals(t *testing.T) {
	plan := samplePlan()
	if plan.AssignedLength() != 1780 {
		t.Errorf("expected assigned 1780, got %.1f", plan.AssignedLength())
	}
	if plan.ConsumedLength() != 2300 {
		t.Errorf("expected consumed 2300, got %.1f", plan.ConsumedLength())
	}
	want := 30.0 / 2300.0 * 100
	if math.Abs(plan.WastePercent()-want) > 0.0001 {
		t.Errorf("expected waste %.4f%%, got %.4f%%", want, plan.WastePercent())
	}
}

func TestAssignmentsForKeepsCutOrder(t *testing.T) {
	plan := samplePlan()
	cuts := plan.AssignmentsFor("s1")
	if len(cuts) != 2 {
		t.Fatalf("expected 2 cuts on s1, got %d", len(cuts))
	}
	if cuts[0].End() != cuts[1].Offset {
		t.Errorf("expected cut 2 to start at %.1f, got %.1f", cuts[0].End(), cuts[1].Offset)
	}
	ids := plan.ConsumedSourceIDs()
	if len(ids) != 2 || ids[0] != "s1" || ids[1] != "r1" {
		t.Errorf("unexpected consumed ids %v", ids)
	}
}

func TestSourceUsageUtilization(t *testing.T) {
	u := SourceUsage{Length: 2000, UsedLength: 1500}
	if u.Utilization() != 75 {
		t.Errorf("expected 75%%, got %.1f", u.Utilization())
	}
	if (SourceUsage{}).Utilization() != 0 {
		t.Error("expected 0 for empty source")
	}
}

func TestOptimizeResultAggregates(t *testing.T) {
	r := OptimizeResult{Plans: []CuttingPlan{
		{Profile: "A", TotalWasteLength: 10, TotalStockConsumed: 1,
			Sources: []SourceUsage{{Length: 100}}, Unassigned: []PieceUnit{{PieceID: "x"}}},
		{Profile: "B", TotalWasteLength: 30, TotalStockConsumed: 2,
			Sources: []SourceUsage{{Length: 300}}},
	}}
	if r.TotalWasteLength() != 40 {
		t.Errorf("expected waste 40, got %.1f", r.TotalWasteLength())
	}
	if r.TotalStockConsumed() != 3 {
		t.Errorf("expected 3 bars, got %d", r.TotalStockConsumed())
	}
	if r.UnassignedCount() != 1 {
		t.Errorf("expected 1 unassigned, got %d", r.UnassignedCount())
	}
	if r.WastePercent() != 10 {
		t.Errorf("expected 10%%, got %.2f", r.WastePercent())
	}
	if r.Plan("B") == nil || r.Plan("C") != nil {
		t.Error("Plan lookup returned the wrong result")
	}
}

func TestInvalidInputErrorMatchesSentinel(t *testing.T) {
	err := error(Invalid("demand[0].length", "must be positive, got %.1f", -1.0))
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected errors.Is to match ErrInvalidInput")
	}
	var iie *InvalidInputError
	if !errors.As(err, &iie) || iie.Field != "demand[0].length" {
		t.Errorf("expected field demand[0].length, got %v", err)
	}
	if err.Error() != "invalid input: demand[0].length: must be positive, got -1.0" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestSourceKindString(t *testing.T) {
	if SourceStock.String() != "Stock" || SourceRemnant.String() != "Remnant" {
		t.Error("unexpected SourceKind names")
	}
}
