// Package importer reads cut lists and stock lists from CSV, Excel and DXF
// files. It supports automatic delimiter detection, flexible column mapping,
// and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/SteelSys/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation. Rows that fail to
// parse are reported in Errors and skipped; the rest are still returned.
type ImportResult struct {
	Pieces   []model.RequiredPiece
	Stock    []model.StockItem
	Remnants []model.RemnantItem
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced no errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0
}

// ListKind selects which kind of list is being imported.
type ListKind int

const (
	DemandList ListKind = iota // label, profile, length, quantity, part ref
	StockList                  // profile, length, quantity, kind, heat, location
)

// Column roles.
const (
	colID       = "id"
	colLabel    = "label"
	colProfile  = "profile"
	colLength   = "length"
	colQuantity = "quantity"
	colPartRef  = "part_ref"
	colKind     = "kind"
	colHeat     = "heat"
	colLocation = "location"
)

// ColumnMapping maps column roles to their indices in the data.
// Roles that are not present are missing from the map.
type ColumnMapping map[string]int

// Index returns the column of a role, or -1.
func (m ColumnMapping) Index(role string) int {
	if i, ok := m[role]; ok {
		return i
	}
	return -1
}

type listLayout struct {
	aliases    map[string][]string // All lowercase
	positional []string            // Role order when there is no header
	required   []string
}

var layouts = map[ListKind]listLayout{
	DemandList: {
		aliases: map[string][]string{
			colLabel:    {"label", "name", "part", "part name", "description", "desc", "piece", "item", "mark"},
			colProfile:  {"profile", "section", "shape", "size", "material"},
			colLength:   {"length", "len", "l", "cut length", "length mm", "length (mm)"},
			colQuantity: {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
			colPartRef:  {"part ref", "part_ref", "ref", "drawing", "position", "pos", "assembly"},
		},
		positional: []string{colLabel, colProfile, colLength, colQuantity, colPartRef},
		required:   []string{colLength, colQuantity},
	},
	StockList: {
		aliases: map[string][]string{
			colID:       {"id", "bar id", "tag"},
			colLabel:    {"label", "name", "description", "desc"},
			colProfile:  {"profile", "section", "shape", "size", "material"},
			colLength:   {"length", "len", "l", "length mm", "length (mm)"},
			colQuantity: {"quantity", "qty", "count", "num", "amount", "pcs", "bars"},
			colKind:     {"kind", "type", "source"},
			colHeat:     {"heat", "heat number", "heat no", "cert", "certificate"},
			colLocation: {"location", "rack", "bay"},
		},
		positional: []string{colProfile, colLength, colQuantity, colKind, colHeat, colLocation},
		required:   []string{colProfile, colLength},
	},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping of the list kind and false if no header was found.
func DetectColumns(row []string, kind ListKind) (ColumnMapping, bool) {
	layout := layouts[kind]
	mapping := ColumnMapping{}

	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range layout.aliases {
			if _, taken := mapping[role]; taken {
				continue
			}
			for _, alias := range aliases {
				if normalized == alias {
					mapping[role] = i
					break
				}
			}
		}
	}

	if len(mapping) == 0 {
		positional := ColumnMapping{}
		for i, role := range layout.positional {
			positional[role] = i
		}
		return positional, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseLength accepts both "1250.5" and "1250,5".
func parseLength(s string) (float64, error) {
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// parseQuantity reads an optional quantity; empty means 1.
func parseQuantity(s, rowLabel string) (int, string) {
	if s == "" {
		return 1, ""
	}
	qty, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, s)
	}
	if qty <= 0 {
		return 0, fmt.Sprintf("%s: Quantity must be positive", rowLabel)
	}
	return qty, ""
}

func parseLengthCell(s, rowLabel string) (float64, string) {
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing length value", rowLabel)
	}
	length, err := parseLength(s)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid length '%s'", rowLabel, s)
	}
	if length <= 0 {
		return 0, fmt.Sprintf("%s: Length must be positive", rowLabel)
	}
	return length, ""
}

// parseDemandRow extracts a RequiredPiece from a row using the given column mapping.
// Returns the piece, any error message, and any warning message.
func parseDemandRow(row []string, mapping ColumnMapping, rowLabel string, pieceCount int, defaultProfile string) (model.RequiredPiece, string, string) {
	label := getCell(row, mapping.Index(colLabel))
	if label == "" {
		label = fmt.Sprintf("Piece %d", pieceCount+1)
	}

	var warning string
	profile := getCell(row, mapping.Index(colProfile))
	if profile == "" {
		if defaultProfile == "" {
			return model.RequiredPiece{}, fmt.Sprintf("%s: Missing profile value", rowLabel), ""
		}
		profile = defaultProfile
		warning = fmt.Sprintf("%s: No profile given, using %s", rowLabel, defaultProfile)
	}

	length, errMsg := parseLengthCell(getCell(row, mapping.Index(colLength)), rowLabel)
	if errMsg != "" {
		return model.RequiredPiece{}, errMsg, ""
	}

	qtyStr := getCell(row, mapping.Index(colQuantity))
	if qtyStr == "" {
		return model.RequiredPiece{}, fmt.Sprintf("%s: Missing quantity value", rowLabel), ""
	}
	qty, errMsg := parseQuantity(qtyStr, rowLabel)
	if errMsg != "" {
		return model.RequiredPiece{}, errMsg, ""
	}

	piece := model.NewRequiredPiece(profile, label, length, qty)
	piece.PartRef = getCell(row, mapping.Index(colPartRef))
	return piece, "", warning
}

// parseStockRow expands a stock row into bars or remnants.
func parseStockRow(row []string, mapping ColumnMapping, rowLabel string) ([]model.StockItem, []model.RemnantItem, string, string) {
	profile := getCell(row, mapping.Index(colProfile))
	if profile == "" {
		return nil, nil, fmt.Sprintf("%s: Missing profile value", rowLabel), ""
	}
	length, errMsg := parseLengthCell(getCell(row, mapping.Index(colLength)), rowLabel)
	if errMsg != "" {
		return nil, nil, errMsg, ""
	}
	qty, errMsg := parseQuantity(getCell(row, mapping.Index(colQuantity)), rowLabel)
	if errMsg != "" {
		return nil, nil, errMsg, ""
	}

	var warning string
	remnant := false
	switch kind := strings.ToLower(getCell(row, mapping.Index(colKind))); kind {
	case "", "stock", "bar", "s":
	case "remnant", "rest", "offcut", "r":
		remnant = true
	default:
		warning = fmt.Sprintf("%s: Unknown kind '%s', treating as stock", rowLabel, kind)
	}

	id := getCell(row, mapping.Index(colID))
	label := getCell(row, mapping.Index(colLabel))
	heat := getCell(row, mapping.Index(colHeat))
	location := getCell(row, mapping.Index(colLocation))

	var stock []model.StockItem
	var remnants []model.RemnantItem
	for i := 0; i < qty; i++ {
		itemID := id
		if itemID != "" && qty > 1 {
			itemID = fmt.Sprintf("%s-%d", id, i+1)
		}
		if remnant {
			r := model.NewRemnantItem(profile, length, model.RemnantOrigin{})
			if itemID != "" {
				r.ID = itemID
			}
			r.Label, r.HeatNumber, r.Location = label, heat, location
			remnants = append(remnants, r)
			continue
		}
		s := model.NewStockItem(profile, length)
		if itemID != "" {
			s.ID = itemID
		}
		s.Label, s.HeatNumber, s.Location = label, heat, location
		stock = append(stock, s)
	}
	return stock, remnants, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportDemandCSV imports required pieces from a CSV file. Rows without a
// profile use defaultProfile; when that is empty such rows are errors.
func ImportDemandCSV(path, defaultProfile string) ImportResult {
	rows, result := readCSVFile(path)
	if len(result.Errors) > 0 {
		return result
	}
	return importFromRows(rows, "Line", result.Warnings, DemandList, defaultProfile)
}

// ImportDemandCSVFromReader imports required pieces from a CSV reader with a
// known delimiter.
func ImportDemandCSVFromReader(reader io.Reader, delimiter rune, defaultProfile string) ImportResult {
	rows, result := readCSV(reader, delimiter)
	if len(result.Errors) > 0 {
		return result
	}
	return importFromRows(rows, "Line", nil, DemandList, defaultProfile)
}

// ImportDemandExcel imports required pieces from the first sheet of an Excel file.
func ImportDemandExcel(path, defaultProfile string) ImportResult {
	rows, result := readExcel(path)
	if len(result.Errors) > 0 {
		return result
	}
	return importFromRows(rows, "Row", nil, DemandList, defaultProfile)
}

// ImportStockCSV imports stock bars and remnants from a CSV file.
func ImportStockCSV(path string) ImportResult {
	rows, result := readCSVFile(path)
	if len(result.Errors) > 0 {
		return result
	}
	return importFromRows(rows, "Line", result.Warnings, StockList, "")
}

// ImportStockCSVFromReader imports stock from a CSV reader with a known delimiter.
func ImportStockCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	rows, result := readCSV(reader, delimiter)
	if len(result.Errors) > 0 {
		return result
	}
	return importFromRows(rows, "Line", nil, StockList, "")
}

// ImportStockExcel imports stock from the first sheet of an Excel file.
func ImportStockExcel(path string) ImportResult {
	rows, result := readExcel(path)
	if len(result.Errors) > 0 {
		return result
	}
	return importFromRows(rows, "Row", nil, StockList, "")
}

// ImportDemandFile picks the demand importer by file extension.
func ImportDemandFile(path, defaultProfile string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return ImportDemandExcel(path, defaultProfile)
	case ".dxf":
		return ImportDXF(path, DXFOptions{DefaultProfile: defaultProfile})
	default:
		return ImportDemandCSV(path, defaultProfile)
	}
}

// ImportStockFile picks the stock importer by file extension.
func ImportStockFile(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return ImportStockExcel(path)
	default:
		return ImportStockCSV(path)
	}
}

func readCSVFile(path string) ([][]string, ImportResult) {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return nil, result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return nil, result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	rows, readResult := readCSV(bytes.NewReader(data), delimiter)
	readResult.Warnings = append(result.Warnings, readResult.Warnings...)
	return rows, readResult
}

func readCSV(reader io.Reader, delimiter rune) ([][]string, ImportResult) {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return nil, result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return nil, result
	}
	return records, result
}

func readExcel(path string) ([][]string, ImportResult) {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return nil, result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return nil, result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return nil, result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return nil, result
	}
	return rows, result
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string, kind ListKind, defaultProfile string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0], kind)
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		required := layouts[kind].required
		if kind == DemandList && defaultProfile == "" {
			required = append([]string{colProfile}, required...)
		}
		var missing []string
		for _, role := range required {
			if mapping.Index(role) == -1 {
				missing = append(missing, role)
			}
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if idx := mapping.Index(colLength); idx >= 0 && idx < len(rows[0]) {
		// An unrecognized header still has a non-numeric length cell.
		if _, err := parseLength(strings.TrimSpace(rows[0][idx])); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)

		if kind == StockList {
			stock, remnants, errMsg, warning := parseStockRow(row, mapping, rowLabel)
			if errMsg != "" {
				result.Errors = append(result.Errors, errMsg)
				continue
			}
			if warning != "" {
				result.Warnings = append(result.Warnings, warning)
			}
			result.Stock = append(result.Stock, stock...)
			result.Remnants = append(result.Remnants, remnants...)
			continue
		}

		piece, errMsg, warning := parseDemandRow(row, mapping, rowLabel, len(result.Pieces), defaultProfile)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Pieces = append(result.Pieces, piece)
	}

	return result
}
