// Package export provides functionality for exporting cutting plans
// to various file formats.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/SteelSys/internal/model"
)

// pieceColor represents an RGB color for a cut piece.
type pieceColor struct {
	R, G, B int
}

var pieceColors = []pieceColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	captionWidth = 55.0 // Bar caption column left of the diagram
	barHeight    = 8.0
	barSpacing   = 7.0 // Room for the annotation line under each bar
	barsPerPage  = 10  // Fits between drawAreaTop and the bottom margin
)

// ExportPDF generates a PDF document with one bar diagram per consumed
// source, grouped by profile, followed by a summary page. The catalog
// supplies weights for the summary; profiles missing from it show no weight.
func ExportPDF(path string, result model.OptimizeResult, catalog model.Catalog) error {
	if len(result.Plans) == 0 {
		return fmt.Errorf("no plans to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for _, plan := range result.Plans {
		pages := (len(plan.Sources) + barsPerPage - 1) / barsPerPage
		for page := 0; page < pages; page++ {
			pdf.AddPage()
			from := page * barsPerPage
			to := min(from+barsPerPage, len(plan.Sources))
			renderPlanPage(pdf, plan, from, to, page+1, pages)
		}
	}

	pdf.AddPage()
	renderSummaryPage(pdf, result, catalog)

	return pdf.OutputFileAndClose(path)
}

// renderPlanPage draws the sources plan.Sources[from:to] as horizontal bars.
func renderPlanPage(pdf *fpdf.Fpdf, plan model.CuttingPlan, from, to, pageNum, pages int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s: Cutting Plan (%d/%d)", plan.Profile, pageNum, pages)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Bars: %d | Remnants: %d | Kerf: %.1f mm | Waste: %.0f mm (%.1f%%) | New remnants: %d",
		plan.TotalStockConsumed, plan.TotalRemnantsConsumed, plan.Kerf,
		plan.TotalWasteLength, plan.WastePercent(), len(plan.ProducedRemnants))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	// All bars of a plan share one scale so lengths compare across pages.
	longest := 0.0
	for _, s := range plan.Sources {
		longest = math.Max(longest, s.Length)
	}
	drawWidth := pageWidth - marginLeft - marginRight - captionWidth
	scale := drawWidth / longest

	y := drawAreaTop
	for _, usage := range plan.Sources[from:to] {
		renderBar(pdf, plan, usage, scale, y)
		y += barHeight + barSpacing
	}
}

// renderBar draws one source bar with its pieces, kerf and leftover.
func renderBar(pdf *fpdf.Fpdf, plan model.CuttingPlan, usage model.SourceUsage, scale, y float64) {
	x0 := marginLeft + captionWidth

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(captionWidth-2, 4, fmt.Sprintf("%s %s", usage.SourceKind, usage.SourceID), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(marginLeft, y+4)
	caption := fmt.Sprintf("%.0f mm", usage.Length)
	if usage.HeatNumber != "" {
		caption += " | heat " + usage.HeatNumber
	}
	pdf.CellFormat(captionWidth-2, 4, caption, "", 0, "L", false, 0, "")

	// Bar background
	pdf.SetFillColor(190, 190, 195)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.3)
	pdf.Rect(x0, y, usage.Length*scale, barHeight, "FD")

	for i, a := range plan.AssignmentsFor(usage.SourceID) {
		col := pieceColors[i%len(pieceColors)]
		px := x0 + a.Offset*scale
		pw := a.Length * scale

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.2)
		pdf.Rect(px, y, pw, barHeight, "FD")

		if a.Kerf > 0 {
			pdf.SetFillColor(20, 20, 20)
			pdf.Rect(px+pw, y, math.Max(a.Kerf*scale, 0.2), barHeight, "F")
		}

		if pw > 12 {
			pdf.SetFont("Helvetica", "", labelFontSize(pw, barHeight))
			pdf.SetTextColor(0, 0, 0)
			text := fmt.Sprintf("%s %.0f", a.Label, a.Length)
			if pdf.GetStringWidth(text) > pw-2 {
				text = fmt.Sprintf("%.0f", a.Length)
			}
			if w := pdf.GetStringWidth(text); w < pw-2 {
				pdf.SetXY(px+(pw-w)/2, y+barHeight/2-2)
				pdf.CellFormat(w, 4, text, "", 0, "C", false, 0, "")
			}
		}
	}

	if usage.Leftover > 0 {
		lx := x0 + (usage.Length-usage.Leftover)*scale
		lw := usage.Leftover * scale
		if usage.Disposition == model.DispositionRemnant {
			pdf.SetFillColor(200, 235, 200)
			pdf.SetDrawColor(0, 130, 0)
		} else {
			pdf.SetFillColor(255, 200, 200)
			pdf.SetDrawColor(200, 0, 0)
		}
		pdf.SetLineWidth(0.3)
		pdf.Rect(lx, y, lw, barHeight, "FD")
		drawHatchPattern(pdf, lx, y, lw, barHeight)
	}

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(80, 80, 80)
	pdf.SetXY(x0, y+barHeight+0.5)
	note := fmt.Sprintf("%d cuts | used %.0f mm | kerf %.1f mm | %.1f%%", usage.Cuts, usage.UsedLength, usage.KerfLoss, usage.Utilization())
	switch usage.Disposition {
	case model.DispositionRemnant:
		note += fmt.Sprintf(" | remnant %s %.0f mm", usage.RemnantID, usage.Leftover)
	case model.DispositionScrap:
		note += fmt.Sprintf(" | scrap %.0f mm", usage.Leftover)
	}
	pdf.CellFormat(pageWidth-x0-marginRight, 3, note, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark leftovers.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetLineWidth(0.15)

	spacing := 2.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, result model.OptimizeResult, catalog model.Catalog) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Cutting Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Profiles", fmt.Sprintf("%d", len(result.Plans))},
		{"Stock Bars Used", fmt.Sprintf("%d", result.TotalStockConsumed())},
		{"Pieces Cut", fmt.Sprintf("%d", countPieces(result))},
		{"Total Waste", fmt.Sprintf("%.0f mm (%.1f%%)", result.TotalWasteLength(), result.WastePercent())},
		{"Unassigned Pieces", fmt.Sprintf("%d", result.UnassignedCount())},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Profile Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{35, 22, 28, 30, 35, 30, 30, 35}
	headers := []string{"Profile", "Bars", "Remnants", "New Remnants", "Waste mm", "Waste %", "Waste kg", "Cut kg"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, plan := range result.Plans {
		wasteKg, cutKg := "-", "-"
		if p := catalog.Find(plan.Profile); p != nil {
			w := model.CalculatePlanWeight(plan, *p)
			wasteKg, cutKg = w.WasteKg.StringFixed(1), w.CutKg.StringFixed(1)
		}
		rowData := []string{
			plan.Profile,
			fmt.Sprintf("%d", plan.TotalStockConsumed),
			fmt.Sprintf("%d", plan.TotalRemnantsConsumed),
			fmt.Sprintf("%d", len(plan.ProducedRemnants)),
			fmt.Sprintf("%.0f", plan.TotalWasteLength),
			fmt.Sprintf("%.1f%%", plan.WastePercent()),
			wasteKg,
			cutKg,
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if result.UnassignedCount() > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Unassigned Pieces", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)

		for _, line := range shortfallLines(result) {
			if y > pageHeight-marginBottom-8 {
				pdf.SetXY(marginLeft+5, y)
				pdf.CellFormat(200, 5, "...", "", 0, "L", false, 0, "")
				break
			}
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s %s: %.0f mm (qty: %d)", line.Profile, line.Label, line.Length, line.Quantity)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by SteelSys - Steel Profile Cutting Optimizer", "", 0, "C", false, 0, "")
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

// countPieces returns the total number of cut pieces across all plans.
func countPieces(result model.OptimizeResult) int {
	total := 0
	for _, p := range result.Plans {
		total += len(p.Assignments)
	}
	return total
}

// shortfallLine is an unassigned piece with its units folded into a quantity.
type shortfallLine struct {
	Profile  string
	PieceID  string
	Label    string
	Length   float64
	Quantity int
}

// shortfallLines folds the unassigned units of all plans by piece.
func shortfallLines(result model.OptimizeResult) []shortfallLine {
	var lines []shortfallLine
	for _, plan := range result.Plans {
		index := make(map[string]int)
		for _, u := range plan.Unassigned {
			if i, ok := index[u.PieceID]; ok {
				lines[i].Quantity++
				continue
			}
			index[u.PieceID] = len(lines)
			lines = append(lines, shortfallLine{
				Profile:  plan.Profile,
				PieceID:  u.PieceID,
				Label:    u.Label,
				Length:   u.Length,
				Quantity: 1,
			})
		}
	}
	return lines
}
