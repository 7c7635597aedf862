package export

import (
	"fmt"
	"math"

	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetSummary   = "Summary"
	SheetCutList   = "Cut List"
	SheetSources   = "Sources"
	SheetRemnants  = "Remnants"
	SheetShortfall = "Shortfall"
)

// ExportExcel writes the cutting plan as a workbook for the saw operator
// and the office: a summary per profile, the cut list in saw order, the
// consumed sources, the produced remnants and the shortfall.
func ExportExcel(path string, result model.OptimizeResult, catalog model.Catalog) error {
	if len(result.Plans) == 0 {
		return fmt.Errorf("no plans to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetCutList, SheetSources, SheetRemnants, SheetShortfall} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	w := sheetWriter{f: f, header: bold}
	w.table(SheetSummary, []any{"Profile", "Bars", "Remnants Used", "New Remnants", "Pieces", "Unassigned", "Waste mm", "Kerf mm", "Waste %", "Cut kg", "Waste kg", "Waste Cost"}, summaryRows(result, catalog))
	w.table(SheetCutList, []any{"Profile", "Source", "Kind", "Heat", "Cut", "Piece", "Label", "Part Ref", "Length mm", "Offset mm", "Kerf mm"}, cutListRows(result))
	w.table(SheetSources, []any{"Profile", "Source", "Kind", "Length mm", "Cuts", "Used mm", "Kerf mm", "Leftover mm", "Disposition", "Remnant", "Utilization %"}, sourceRows(result))
	w.table(SheetRemnants, []any{"Remnant", "Profile", "Label", "Length mm", "From", "Offset mm", "Heat"}, remnantRows(result))
	w.table(SheetShortfall, []any{"Profile", "Piece", "Label", "Length mm", "Quantity"}, shortfallRows(result))
	if w.err != nil {
		return w.err
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

// sheetWriter writes tables and keeps the first error.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) table(sheet string, header []any, rows [][]any) {
	if w.err != nil {
		return
	}
	all := append([][]any{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetSheetRow(sheet, cell, &row); err != nil {
			w.err = fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
			return
		}
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		w.err = err
		return
	}
	lastCol, _, _ := excelize.SplitCellName(last)
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		w.err = err
		return
	}
	if err := w.f.SetColWidth(sheet, "A", lastCol, 14); err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func summaryRows(result model.OptimizeResult, catalog model.Catalog) [][]any {
	var rows [][]any
	for _, plan := range result.Plans {
		row := []any{
			plan.Profile,
			plan.TotalStockConsumed,
			plan.TotalRemnantsConsumed,
			len(plan.ProducedRemnants),
			len(plan.Assignments),
			len(plan.Unassigned),
			round1(plan.TotalWasteLength),
			round1(plan.TotalKerfLoss),
			round1(plan.WastePercent()),
		}
		if p := catalog.Find(plan.Profile); p != nil {
			w := model.CalculatePlanWeight(plan, *p)
			row = append(row, w.CutKg.InexactFloat64(), w.WasteKg.InexactFloat64(), w.WasteCost.InexactFloat64())
		}
		rows = append(rows, row)
	}
	return rows
}

func cutListRows(result model.OptimizeResult) [][]any {
	var rows [][]any
	for _, plan := range result.Plans {
		for _, usage := range plan.Sources {
			for n, a := range plan.AssignmentsFor(usage.SourceID) {
				rows = append(rows, []any{
					plan.Profile, a.SourceID, a.SourceKind.String(), usage.HeatNumber,
					n + 1, a.PieceID, a.Label, a.PartRef,
					a.Length, round1(a.Offset), a.Kerf,
				})
			}
		}
	}
	return rows
}

func sourceRows(result model.OptimizeResult) [][]any {
	var rows [][]any
	for _, plan := range result.Plans {
		for _, s := range plan.Sources {
			rows = append(rows, []any{
				plan.Profile, s.SourceID, s.SourceKind.String(), s.Length, s.Cuts,
				s.UsedLength, s.KerfLoss, round1(s.Leftover), string(s.Disposition), s.RemnantID,
				round1(s.Utilization()),
			})
		}
	}
	return rows
}

func remnantRows(result model.OptimizeResult) [][]any {
	var rows [][]any
	for _, plan := range result.Plans {
		for _, r := range plan.ProducedRemnants {
			rows = append(rows, []any{
				r.ID, r.Profile, r.Label, round1(r.Length), r.Origin.SourceID, round1(r.Origin.Offset), r.HeatNumber,
			})
		}
	}
	return rows
}

func shortfallRows(result model.OptimizeResult) [][]any {
	var rows [][]any
	for _, line := range shortfallLines(result) {
		rows = append(rows, []any{line.Profile, line.PieceID, line.Label, line.Length, line.Quantity})
	}
	return rows
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
