package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/piwi3910/SteelSys/internal/model"
)

var (
	accent  = lipgloss.Color("#8BC34A")
	warning = lipgloss.Color("#FFC107")
	danger  = lipgloss.Color("#e53935")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(warning)
	dangerStyle = lipgloss.NewStyle().Foreground(danger)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = cellStyle.Bold(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#2a3850"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// printResult writes one source table per profile and the overall totals.
func printResult(w io.Writer, result model.OptimizeResult) {
	for _, plan := range result.Plans {
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s  (kerf %s mm, min remnant %s mm)",
			plan.Profile, mm(plan.Kerf), mm(plan.MinUsableRemnant))))

		t := newTable("Source", "Kind", "Length", "Cuts", "Used", "Kerf", "Leftover", "Result", "Util")
		for _, u := range plan.Sources {
			leftover := string(u.Disposition)
			if u.RemnantID != "" {
				leftover = "remnant " + u.RemnantID
			}
			t.Row(u.SourceID, u.SourceKind.String(), mm(u.Length), strconv.Itoa(u.Cuts),
				mm(u.UsedLength), mm(u.KerfLoss), mm(u.Leftover), leftover, pct(u.Utilization()))
		}
		fmt.Fprintln(w, t.Render())

		fmt.Fprintf(w, "bars %d, remnants %d, produced %d, waste %s mm (kerf %s, scrap %s), %s\n",
			plan.TotalStockConsumed, plan.TotalRemnantsConsumed, len(plan.ProducedRemnants),
			mm(plan.TotalWasteLength), mm(plan.TotalKerfLoss), mm(plan.ScrapLength()), pct(plan.WastePercent()))

		if lines := plan.Shortfall(); len(lines) > 0 {
			fmt.Fprintln(w, warnStyle.Render("Not placed"))
			st := newTable("Piece", "Label", "Length", "Qty")
			for _, l := range lines {
				st.Row(l.PieceID, l.Label, mm(l.Length), strconv.Itoa(l.Quantity))
			}
			fmt.Fprintln(w, st.Render())
		}
		fmt.Fprintln(w)
	}

	summary := fmt.Sprintf("Total: %d bars, waste %s mm (%s)",
		result.TotalStockConsumed(), mm(result.TotalWasteLength()), pct(result.WastePercent()))
	if n := result.UnassignedCount(); n > 0 {
		summary += dangerStyle.Render(fmt.Sprintf(", %d pieces not placed", n))
	}
	fmt.Fprintln(w, summary)
}

func printPurchases(w io.Writer, purchases []model.PurchaseSuggestion) {
	if len(purchases) == 0 {
		return
	}
	fmt.Fprintln(w, warnStyle.Render("Purchase suggestion"))
	t := newTable("Profile", "Bar", "Bars", "Demand", "Util", "kg", "Price", "Too long")
	for _, p := range purchases {
		t.Row(p.Profile, mm(p.StockLength), strconv.Itoa(p.BarsNeeded), mm(p.DemandLength),
			pct(p.UtilizationPct), p.EstimatedKg.StringFixed(1), p.EstimatedPrice.StringFixed(2),
			strconv.Itoa(len(p.TooLong)))
	}
	fmt.Fprintln(w, t.Render())
}
