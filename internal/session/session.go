// Package session holds the state of the one file currently loaded: its id
// and an editable record per sheet. It performs no I/O.
package session

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetjson/internal/columns"
	"github.com/nconklindev/sheetjson/internal/types"
)

// Analysis marks the outcome of the last analysis. A nil *Analysis means the
// sheet has not been analyzed; an empty Err means it succeeded.
type Analysis struct {
	Err string
}

func (a *Analysis) Failed() bool {
	return a != nil && a.Err != ""
}

type SheetState struct {
	Selected     bool
	Rows         [][]any
	RowCount     int
	ColCount     int
	Analysis     *Analysis
	Columns      string
	DataStartRow int
	JSON         []json.RawMessage
}

// Converted reports whether a convert has produced records for this sheet
func (s *SheetState) Converted() bool {
	return s.JSON != nil
}

// Store is the single file session. The zero value is an empty session.
type Store struct {
	fileID     string
	generation uint64
	names      []string
	sheets     map[string]*SheetState
}

func New() *Store {
	return &Store{sheets: make(map[string]*SheetState)}
}

// InitFromUpload replaces the whole session. Every sheet starts selected with
// no analysis, empty columns, data start row 1 and no JSON.
func (s *Store) InitFromUpload(fileID string, sheets []types.SheetPreview) {
	s.fileID = fileID
	s.generation++
	s.names = make([]string, 0, len(sheets))
	s.sheets = make(map[string]*SheetState, len(sheets))

	for _, sh := range sheets {
		if _, dup := s.sheets[sh.SheetName]; dup {
			continue
		}
		rows := sh.Rows
		if rows == nil {
			rows = [][]any{}
		}
		s.names = append(s.names, sh.SheetName)
		s.sheets[sh.SheetName] = &SheetState{
			Selected:     true,
			Rows:         rows,
			RowCount:     sh.RowCount,
			ColCount:     sh.ColCount,
			DataStartRow: 1,
		}
	}
}

func (s *Store) FileID() string { return s.fileID }

func (s *Store) HasFile() bool { return s.fileID != "" }

// Generation increments on every upload; results issued under an older
// generation belong to a discarded session.
func (s *Store) Generation() uint64 { return s.generation }

func (s *Store) Len() int { return len(s.names) }

// Names returns sheet names in upload order
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Sheet returns the state for name, or nil
func (s *Store) Sheet(name string) *SheetState {
	if s.sheets == nil {
		return nil
	}
	return s.sheets[name]
}

func (s *Store) SetSelected(name string, selected bool) {
	if sh := s.Sheet(name); sh != nil {
		sh.Selected = selected
	}
}

func (s *Store) SetAllSelected(selected bool) {
	for _, name := range s.names {
		s.sheets[name].Selected = selected
	}
}

func (s *Store) SetColumnsText(name, text string) {
	if sh := s.Sheet(name); sh != nil {
		sh.Columns = text
	}
}

// SetDataStartRow stores n, clamping anything below 1 to 1
func (s *Store) SetDataStartRow(name string, n int) {
	if sh := s.Sheet(name); sh != nil {
		if n < 1 {
			n = 1
		}
		sh.DataStartRow = n
	}
}

// ApplyAnalysisResult records one sheet's analysis. A non-empty errMsg marks
// failure and leaves columns and data start row untouched.
func (s *Store) ApplyAnalysisResult(name string, cols []string, dataStartRow *int, errMsg string) {
	sh := s.Sheet(name)
	if sh == nil {
		return
	}
	if errMsg != "" {
		sh.Analysis = &Analysis{Err: errMsg}
		return
	}

	sh.Analysis = &Analysis{}
	if cols != nil {
		sh.Columns = columns.Format(cols)
	} else {
		sh.Columns = ""
	}
	sh.DataStartRow = 1
	if dataStartRow != nil && *dataStartRow >= 1 {
		sh.DataStartRow = *dataStartRow
	}
}

// ApplyConvertResult stores converted records, or on failure overwrites the
// analysis error without touching any JSON already held.
func (s *Store) ApplyConvertResult(name string, records []json.RawMessage, errMsg string) {
	sh := s.Sheet(name)
	if sh == nil {
		return
	}
	if errMsg != "" {
		sh.Analysis = &Analysis{Err: errMsg}
		return
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	sh.JSON = records
}

// SelectedNames returns selected sheets in upload order
func (s *Store) SelectedNames() []string {
	out := make([]string, 0, len(s.names))
	for _, name := range s.names {
		if s.sheets[name].Selected {
			out = append(out, name)
		}
	}
	return out
}

func (s *Store) AnySelected() bool {
	for _, name := range s.names {
		if s.sheets[name].Selected {
			return true
		}
	}
	return false
}

// AllSelected is false for an empty session
func (s *Store) AllSelected() bool {
	if len(s.names) == 0 {
		return false
	}
	for _, name := range s.names {
		if !s.sheets[name].Selected {
			return false
		}
	}
	return true
}

// ParseDataStartRow coerces user input to a row number. Leading digits are
// read ("12abc" is 12); empty or invalid input and anything below 1 become 1.
func ParseDataStartRow(text string) int {
	s := strings.TrimSpace(text)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 1
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
