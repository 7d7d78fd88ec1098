// Package analyzer infers, from a sheet's first rows, the column names and the
// 1-based row where real data starts.
package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetjson/internal/config"
	"github.com/nconklindev/sheetjson/internal/types"
	"github.com/nconklindev/sheetjson/internal/workbook"
)

type Analyzer interface {
	Analyze(ctx context.Context, sheetName string, rows [][]any) (*types.AnalyzeResult, error)
}

// New builds the analyzer selected by cfg.Kind
func New(cfg config.AnalyzerConfig) (Analyzer, error) {
	switch cfg.Kind {
	case "", "heuristic":
		return Heuristic{}, nil
	case "llm":
		return NewLLM(cfg)
	default:
		return nil, fmt.Errorf("analyzer: unknown kind %q", cfg.Kind)
	}
}

// Heuristic picks the preview row with the most non-empty text cells as the
// header; data starts on the row after it.
type Heuristic struct{}

func (Heuristic) Analyze(_ context.Context, _ string, rows [][]any) (*types.AnalyzeResult, error) {
	text := cellStrings(rows)
	if len(text) == 0 {
		return nil, fmt.Errorf("sheet has no rows to analyze")
	}

	header := workbook.FindHeaderRow(text)
	if header == -1 {
		width := 0
		for _, row := range text {
			if len(row) > width {
				width = len(row)
			}
		}
		start := 1
		return &types.AnalyzeResult{Columns: placeholderColumns(width), DataStartRow: &start}, nil
	}

	cols := make([]string, 0, len(text[header]))
	for i, cell := range text[header] {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		cols = append(cols, name)
	}
	start := header + 2
	return &types.AnalyzeResult{Columns: cols, DataStartRow: &start}, nil
}

func placeholderColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = "column_" + strconv.Itoa(i+1)
	}
	return cols
}

// cellStrings flattens preview cells to text; trailing empty cells are dropped
func cellStrings(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		for len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
			cells = cells[:len(cells)-1]
		}
		out[i] = cells
	}
	return out
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
