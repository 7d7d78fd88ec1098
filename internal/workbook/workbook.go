package workbook

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/bytedance/sonic"

	"github.com/nconklindev/sheetjson/internal/types"

	"github.com/xuri/excelize/v2"
)

const RowDetectionLimit = 10

// SupportedExts lists the upload extensions the reader understands
var SupportedExts = []string{".xlsx", ".xlsm", ".csv"}

// Supported reports whether filename has a readable extension
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range SupportedExts {
		if e == ext {
			return true
		}
	}
	return false
}

// ReadSheets reads every sheet of a workbook in workbook order. A CSV file is
// a single sheet named after the file.
func ReadSheets(filePath string) ([]types.SheetData, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".csv":
		return readCSVData(filePath)
	case ".xlsx", ".xlsm":
		return readXLSXData(filePath)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func readCSVData(filePath string) ([]types.SheetData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	return []types.SheetData{{Name: name, Rows: records}}, nil
}

func readXLSXData(filePath string) ([]types.SheetData, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sheets []types.SheetData
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
		sheets = append(sheets, types.SheetData{Name: name, Rows: rows})
	}
	return sheets, nil
}

// Preview cuts a sheet down to its first maxRows rows and maxCols columns.
// Counts describe the full sheet.
func Preview(sheet types.SheetData, maxRows, maxCols int) types.SheetPreview {
	n := len(sheet.Rows)
	if n > maxRows {
		n = maxRows
	}

	rows := make([][]any, 0, n)
	for _, row := range sheet.Rows[:n] {
		width := len(row)
		if width > maxCols {
			width = maxCols
		}
		cells := make([]any, width)
		for i := 0; i < width; i++ {
			cells[i] = ParseValue(row[i])
		}
		rows = append(rows, cells)
	}

	return types.SheetPreview{
		SheetName: sheet.Name,
		Rows:      rows,
		RowCount:  len(sheet.Rows),
		ColCount:  sheet.ColCount(),
	}
}

// ParseValue returns a float64 for numeric text and the text itself otherwise
func ParseValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !strings.ContainsAny(trimmed, "xXpP_") {
		switch strings.ToLower(trimmed) {
		case "inf", "+inf", "-inf", "infinity", "+infinity", "-infinity", "nan":
			return s
		}
		return f
	}
	return s
}

// Records turns every row from dataStartRow (1-based) to the end of the sheet
// into an object keyed by columns, in column order. Missing cells become "".
func Records(sheet types.SheetData, columns []string, dataStartRow int) ([]json.RawMessage, error) {
	start := dataStartRow - 1
	if start < 0 {
		start = 0
	}

	keys, slot := dedupe(columns)
	records := make([]json.RawMessage, 0)
	for i := start; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		values := make([]any, len(keys))
		for k := range values {
			values[k] = ""
		}
		for c := range columns {
			if c < len(row) {
				values[slot[c]] = ParseValue(row[c])
			} else {
				values[slot[c]] = ""
			}
		}

		rec, err := encodeRecord(keys, values)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// dedupe keeps the first position of each repeated column name; the later
// column's value wins.
func dedupe(columns []string) (keys []string, slot []int) {
	index := make(map[string]int, len(columns))
	slot = make([]int, len(columns))
	for i, c := range columns {
		if at, ok := index[c]; ok {
			slot[i] = at
			continue
		}
		index[c] = len(keys)
		slot[i] = len(keys)
		keys = append(keys, c)
	}
	return keys, slot
}

func encodeRecord(keys []string, values []any) (json.RawMessage, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := sonic.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := sonic.Marshal(values[i])
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return json.RawMessage(b.String()), nil
}

// FindHeaderRow locates the first row that appears to be a header
// by finding the row with the most non-empty text cells
func FindHeaderRow(rows [][]string) int {
	maxNonEmpty := 0
	headerIdx := -1

	// Look at first 20 rows max
	searchLimit := len(rows)
	if searchLimit > RowDetectionLimit*2 {
		searchLimit = RowDetectionLimit * 2
	}

	for i := 0; i < searchLimit; i++ {
		nonEmptyCount := 0
		hasText := false

		for _, cell := range rows[i] {
			trimmed := strings.TrimSpace(cell)
			if trimmed != "" {
				nonEmptyCount++
				// Check if cell contains actual text (not just numbers or symbols)
				if containsLetters(trimmed) {
					hasText = true
				}
			}
		}

		// Header should have multiple columns AND contain text
		if nonEmptyCount >= 2 && hasText && nonEmptyCount > maxNonEmpty {
			maxNonEmpty = nonEmptyCount
			headerIdx = i
		}
	}

	return headerIdx
}

// containsLetters checks if a string contains any alphabetic characters,
// including CJK and other non-Latin scripts
func containsLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
