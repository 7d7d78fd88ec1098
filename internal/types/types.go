package types

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// SheetPreview is one sheet as returned by /upload
type SheetPreview struct {
	SheetName string  `json:"sheet_name"`
	Rows      [][]any `json:"rows"`
	RowCount  int     `json:"row_count"`
	ColCount  int     `json:"col_count"`
}

type UploadResponse struct {
	OK     bool           `json:"ok"`
	FileID string         `json:"file_id,omitempty"`
	Sheets []SheetPreview `json:"sheets,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type AnalyzeSheet struct {
	SheetName string  `json:"sheet_name"`
	Rows      [][]any `json:"rows"`
}

type AnalyzeRequest struct {
	FileID string         `json:"file_id"`
	Sheets []AnalyzeSheet `json:"sheets"`
}

// AnalyzeResult is the inferred layout of a single sheet. DataStartRow is
// nil when the server omitted it.
type AnalyzeResult struct {
	Columns      []string `json:"columns"`
	DataStartRow *int     `json:"data_start_row,omitempty"`
}

type AnalyzeResponse struct {
	OK      bool                     `json:"ok"`
	Results map[string]AnalyzeResult `json:"results,omitempty"`
	Errors  map[string]string        `json:"errors,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

type ConvertSheet struct {
	SheetName    string     `json:"sheet_name"`
	Columns      ColumnSpec `json:"columns"`
	DataStartRow int        `json:"data_start_row"`
}

type ConvertRequest struct {
	FileID string         `json:"file_id"`
	Sheets []ConvertSheet `json:"sheets"`
}

// ConvertResponse keeps every record as raw JSON so key order and values
// survive untouched until they are written out.
type ConvertResponse struct {
	OK        bool                         `json:"ok"`
	Converted map[string][]json.RawMessage `json:"converted,omitempty"`
	Errors    map[string]string            `json:"errors,omitempty"`
	Error     string                       `json:"error,omitempty"`
}

// ColumnSpec is either a list of column names or the raw text the user typed.
// On the wire it is a JSON array or a JSON string respectively.
type ColumnSpec struct {
	List   []string
	Raw    string
	IsList bool
}

func ColumnList(cols []string) ColumnSpec {
	return ColumnSpec{List: cols, IsList: true}
}

func ColumnText(raw string) ColumnSpec {
	return ColumnSpec{Raw: raw}
}

func (c ColumnSpec) MarshalJSON() ([]byte, error) {
	if c.IsList {
		if c.List == nil {
			return []byte("[]"), nil
		}
		return sonic.Marshal(c.List)
	}
	return sonic.Marshal(c.Raw)
}

func (c *ColumnSpec) UnmarshalJSON(data []byte) error {
	*c = ColumnSpec{}
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := sonic.Unmarshal(data, &raw); err == nil {
		c.Raw = raw
		return nil
	}
	var items []any
	if err := sonic.Unmarshal(data, &items); err != nil {
		return err
	}
	c.IsList = true
	c.List = make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			c.List = append(c.List, s)
			continue
		}
		b, err := sonic.Marshal(item)
		if err != nil {
			return err
		}
		c.List = append(c.List, string(b))
	}
	return nil
}

// SheetData is the full content of a sheet as read from disk
type SheetData struct {
	Name string
	Rows [][]string
}

// ColCount returns the width of the widest row
func (s *SheetData) ColCount() int {
	width := 0
	for _, row := range s.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}
