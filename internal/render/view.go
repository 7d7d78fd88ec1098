// Package render maps the session store to a view model and the view model to
// terminal text. Nothing here mutates the store or touches the terminal.
package render

import (
	"fmt"
	"strconv"

	"github.com/nconklindev/sheetjson/internal/export"
	"github.com/nconklindev/sheetjson/internal/session"
)

type Status int

const (
	StatusPending Status = iota
	StatusFailed
	StatusDone
)

// View is everything the screen shows for the current session
type View struct {
	FileID         string
	Cards          []Card
	Cursor         int
	AllSelected    bool
	AnalyzeEnabled bool
	ConvertEnabled bool
}

// Card is one sheet
type Card struct {
	Name          string
	Selected      bool
	Focused       bool
	RowCount      int
	ColCount      int
	Table         Table
	Status        Status
	StatusMessage string
	Columns       string
	DataStartRow  int
	JSONPreview   string
	RecordCount   int
	Downloadable  bool
	FileName      string
}

type Table struct {
	Header []string
	Rows   [][]string
}

// Build derives the view from the store. cursor is the focused card index.
func Build(s *session.Store, cursor int) View {
	names := s.Names()
	v := View{
		FileID:         s.FileID(),
		Cards:          make([]Card, 0, len(names)),
		Cursor:         cursor,
		AllSelected:    s.AllSelected(),
		AnalyzeEnabled: s.AnySelected(),
		ConvertEnabled: s.AnySelected(),
	}

	for i, name := range names {
		sh := s.Sheet(name)
		card := Card{
			Name:         name,
			Selected:     sh.Selected,
			Focused:      i == cursor,
			RowCount:     sh.RowCount,
			ColCount:     sh.ColCount,
			Table:        previewTable(sh.Rows),
			Columns:      sh.Columns,
			DataStartRow: sh.DataStartRow,
			FileName:     export.FileName(name),
		}

		switch {
		case sh.Analysis == nil:
			card.Status = StatusPending
		case sh.Analysis.Failed():
			card.Status = StatusFailed
			card.StatusMessage = sh.Analysis.Err
		default:
			card.Status = StatusDone
		}

		if sh.Converted() {
			card.Downloadable = true
			card.RecordCount = len(sh.JSON)
			preview, err := export.Preview(sh.JSON)
			if err != nil {
				preview = fmt.Sprintf("(cannot display records: %v)", err)
			}
			card.JSONPreview = preview
		}

		v.Cards = append(v.Cards, card)
	}
	return v
}

// previewTable has a row-number column plus one column per cell of the first
// preview row. Wider rows get blank headers for the extra cells.
func previewTable(rows [][]any) Table {
	t := Table{Header: []string{"#"}}
	if len(rows) == 0 {
		return t
	}

	width := len(rows[0])
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i := 0; i < width; i++ {
		if i < len(rows[0]) {
			t.Header = append(t.Header, fmt.Sprintf("Col %d", i+1))
		} else {
			t.Header = append(t.Header, "")
		}
	}

	for idx, row := range rows {
		cells := make([]string, width+1)
		cells[0] = strconv.Itoa(idx + 1)
		for i, v := range row {
			cells[i+1] = CellText(v)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// CellText formats a preview cell; null shows as empty
func CellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
