package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/SteelSys/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// Label kinds.
const (
	LabelPiece   = "piece"
	LabelRemnant = "remnant"
)

// LabelInfo holds the data encoded into each label's QR code. Piece labels
// go on cut pieces; remnant labels go on leftovers returned to the rack.
type LabelInfo struct {
	Kind       string  `json:"kind"`
	ID         string  `json:"id"` // Assignment or remnant ID
	Label      string  `json:"label"`
	Profile    string  `json:"profile"`
	Length     float64 `json:"length_mm"`
	PartRef    string  `json:"part_ref,omitempty"`
	SourceID   string  `json:"source_id"`
	Offset     float64 `json:"offset_mm"`
	HeatNumber string  `json:"heat,omitempty"`
	WorkOrder  string  `json:"work_order,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded labels, one per cut piece and
// one per produced remnant. Labels are laid out on a standard label sheet
// format (Avery 5160 / 3 columns x 10 rows on US Letter).
func ExportLabels(path string, result model.OptimizeResult, workOrder string) error {
	if len(result.Plans) == 0 {
		return fmt.Errorf("no plans to generate labels for")
	}

	labels := CollectLabelInfos(result, workOrder)
	if len(labels) == 0 {
		return fmt.Errorf("no pieces cut to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label, i); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.ID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo, n int) error {
	// Light border for cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", n)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, info.Label, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%s  %.0f mm", info.Profile, info.Length), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	from := fmt.Sprintf("From %s @ %.0f", info.SourceID, info.Offset)
	pdf.CellFormat(textW, 3, truncate(pdf, from, textW), "", 1, "L", false, 0, "")

	var extra string
	switch {
	case info.Kind == LabelRemnant:
		extra = "REMNANT " + info.ID
	case info.PartRef != "":
		extra = "Ref " + info.PartRef
	}
	if info.HeatNumber != "" {
		extra += "  Heat " + info.HeatNumber
	}
	if extra != "" {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, truncate(pdf, extra, textW), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)

	return nil
}

// truncate shortens s with an ellipsis until it fits in width w.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts label information from an optimization result:
// every assignment in plan order, then every produced remnant.
func CollectLabelInfos(result model.OptimizeResult, workOrder string) []LabelInfo {
	var labels []LabelInfo
	for _, plan := range result.Plans {
		heat := make(map[string]string, len(plan.Sources))
		for _, s := range plan.Sources {
			heat[s.SourceID] = s.HeatNumber
		}
		for _, a := range plan.Assignments {
			labels = append(labels, LabelInfo{
				Kind:       LabelPiece,
				ID:         a.ID,
				Label:      a.Label,
				Profile:    plan.Profile,
				Length:     a.Length,
				PartRef:    a.PartRef,
				SourceID:   a.SourceID,
				Offset:     a.Offset,
				HeatNumber: heat[a.SourceID],
				WorkOrder:  workOrder,
			})
		}
	}
	for _, plan := range result.Plans {
		for _, r := range plan.ProducedRemnants {
			labels = append(labels, LabelInfo{
				Kind:       LabelRemnant,
				ID:         r.ID,
				Label:      r.Label,
				Profile:    r.Profile,
				Length:     r.Length,
				SourceID:   r.Origin.SourceID,
				Offset:     r.Origin.Offset,
				HeatNumber: r.HeatNumber,
				WorkOrder:  workOrder,
			})
		}
	}
	return labels
}
