package remote

import (
	"github.com/nconklindev/sheetjson/internal/applog"
	"github.com/nconklindev/sheetjson/internal/columns"
	"github.com/nconklindev/sheetjson/internal/session"
	"github.com/nconklindev/sheetjson/internal/types"
)

// Ticket identifies the session a request was issued under, so its response
// can be dropped if a new file was uploaded in the meantime.
type Ticket struct {
	Generation uint64
	FileID     string
	Sheets     []string
}

func ticketFor(s *session.Store, names []string) Ticket {
	return Ticket{Generation: s.Generation(), FileID: s.FileID(), Sheets: names}
}

// Current reports whether s is still the session t was issued under
func (t Ticket) Current(s *session.Store) bool {
	return t.Generation == s.Generation() && t.FileID == s.FileID()
}

// Summary lists which sheets a response touched
type Summary struct {
	Succeeded []string
	Failed    []string
	Stale     bool
}

func (s Summary) Total() int { return len(s.Succeeded) + len(s.Failed) }

// BuildAnalyzeRequest collects every selected sheet with its full preview rows.
func BuildAnalyzeRequest(s *session.Store) (*types.AnalyzeRequest, Ticket, error) {
	if !s.HasFile() {
		return nil, Ticket{}, ErrNoSession
	}
	names := s.SelectedNames()
	if len(names) == 0 {
		return nil, Ticket{}, ErrNoSelection
	}

	req := &types.AnalyzeRequest{
		FileID: s.FileID(),
		Sheets: make([]types.AnalyzeSheet, 0, len(names)),
	}
	for _, name := range names {
		req.Sheets = append(req.Sheets, types.AnalyzeSheet{
			SheetName: name,
			Rows:      s.Sheet(name).Rows,
		})
	}
	return req, ticketFor(s, names), nil
}

// BuildConvertRequest targets names, or the selected sheets when names is
// empty. Columns go out as a list when the field parses to one and as the
// raw text otherwise, leaving interpretation to the server.
func BuildConvertRequest(s *session.Store, names []string) (*types.ConvertRequest, Ticket, error) {
	if !s.HasFile() {
		return nil, Ticket{}, ErrNoSession
	}
	if len(names) == 0 {
		names = s.SelectedNames()
	}

	targets := make([]string, 0, len(names))
	for _, name := range names {
		if s.Sheet(name) != nil {
			targets = append(targets, name)
		}
	}
	if len(targets) == 0 {
		return nil, Ticket{}, ErrNoSelection
	}

	req := &types.ConvertRequest{
		FileID: s.FileID(),
		Sheets: make([]types.ConvertSheet, 0, len(targets)),
	}
	for _, name := range targets {
		sh := s.Sheet(name)
		colSpec := types.ColumnText(sh.Columns)
		if cols := columns.Parse(sh.Columns); len(cols) > 0 {
			colSpec = types.ColumnList(cols)
		}
		start := sh.DataStartRow
		if start < 1 {
			start = 1
		}
		req.Sheets = append(req.Sheets, types.ConvertSheet{
			SheetName:    name,
			Columns:      colSpec,
			DataStartRow: start,
		})
	}
	return req, ticketFor(s, targets), nil
}

// ApplyUpload replaces the session with the uploaded file's sheets
func ApplyUpload(s *session.Store, resp *types.UploadResponse) {
	s.InitFromUpload(resp.FileID, resp.Sheets)
	applog.DefaultLogger.Infof("[%s] file %s loaded with %d sheet(s)", OpUpload, resp.FileID, s.Len())
}

// ApplyAnalyze writes per-sheet results and errors. Sheets named in neither
// map are left unchanged.
func ApplyAnalyze(s *session.Store, t Ticket, resp *types.AnalyzeResponse) Summary {
	if !t.Current(s) {
		applog.DefaultLogger.Warnf("[%s] dropping response for replaced file %s", OpAnalyze, t.FileID)
		return Summary{Stale: true}
	}

	var sum Summary
	for _, name := range s.Names() {
		if r, ok := resp.Results[name]; ok {
			s.ApplyAnalysisResult(name, r.Columns, r.DataStartRow, "")
			sum.Succeeded = append(sum.Succeeded, name)
		}
	}
	for _, name := range s.Names() {
		if msg, ok := resp.Errors[name]; ok {
			if msg == "" {
				msg = genericMessages[OpAnalyze]
			}
			s.ApplyAnalysisResult(name, nil, nil, msg)
			sum.Failed = append(sum.Failed, name)
			applog.DefaultLogger.Warnf("[%s] sheet %q: %s", OpAnalyze, name, msg)
		}
	}
	logUnknown(s, OpAnalyze, resp.Results, resp.Errors)
	return sum
}

// ApplyConvert stores converted records and records per-sheet failures
// without clearing earlier records.
func ApplyConvert(s *session.Store, t Ticket, resp *types.ConvertResponse) Summary {
	if !t.Current(s) {
		applog.DefaultLogger.Warnf("[%s] dropping response for replaced file %s", OpConvert, t.FileID)
		return Summary{Stale: true}
	}

	var sum Summary
	for _, name := range s.Names() {
		if records, ok := resp.Converted[name]; ok {
			s.ApplyConvertResult(name, records, "")
			sum.Succeeded = append(sum.Succeeded, name)
			applog.DefaultLogger.Debugf("[%s] sheet %q: %d record(s)", OpConvert, name, len(records))
		}
	}
	for _, name := range s.Names() {
		if msg, ok := resp.Errors[name]; ok {
			if msg == "" {
				msg = genericMessages[OpConvert]
			}
			s.ApplyConvertResult(name, nil, msg)
			sum.Failed = append(sum.Failed, name)
			applog.DefaultLogger.Warnf("[%s] sheet %q: %s", OpConvert, name, msg)
		}
	}
	logUnknown(s, OpConvert, resp.Converted, resp.Errors)
	return sum
}

func logUnknown[V any](s *session.Store, op string, results map[string]V, errs map[string]string) {
	for name := range results {
		if s.Sheet(name) == nil {
			applog.DefaultLogger.Warnf("[%s] response names unknown sheet %q", op, name)
		}
	}
	for name := range errs {
		if s.Sheet(name) == nil {
			applog.DefaultLogger.Warnf("[%s] response names unknown sheet %q", op, name)
		}
	}
}
