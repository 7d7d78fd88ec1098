package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nconklindev/sheetjson/internal/applog"
	"github.com/nconklindev/sheetjson/internal/types"
	"github.com/nconklindev/sheetjson/internal/workbook"
)

const (
	msgNoFileField   = "no file field in the form"
	msgEmptyName     = "file name is empty"
	msgUnsupported   = "only .xlsx, .xlsm and .csv files are supported"
	msgUnknownFileID = "file_id is unknown or expired, upload the file again"
	msgBadBody       = "invalid request body"
	msgNoSheet       = "sheet does not exist in the file"
	msgNoColumns     = "no column names given"
)

func (s *Server) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			fail(c, http.StatusRequestEntityTooLarge, "file is larger than the upload limit")
			return
		}
		fail(c, http.StatusBadRequest, msgNoFileField)
		return
	}
	name := filepath.Base(fh.Filename)
	if fh.Filename == "" || name == "." || name == string(filepath.Separator) {
		fail(c, http.StatusBadRequest, msgEmptyName)
		return
	}
	if !workbook.Supported(name) {
		fail(c, http.StatusBadRequest, msgUnsupported)
		return
	}

	id := uuid.NewString()
	path := filepath.Join(s.cfg.UploadDir, id+"_"+name)
	if err := c.SaveUploadedFile(fh, path); err != nil {
		applog.DefaultLogger.Errorf("[upload] save %s: %v", name, err)
		fail(c, http.StatusInternalServerError, "save upload failed: "+err.Error())
		return
	}

	sheets, err := workbook.ReadSheets(path)
	if err != nil {
		applog.DefaultLogger.Errorf("[upload] read %s: %v", name, err)
		removeUpload(path)
		fail(c, http.StatusInternalServerError, "read workbook failed: "+err.Error())
		return
	}
	s.remember(id, &upload{Path: path, Name: name})

	previews := make([]types.SheetPreview, 0, len(sheets))
	for _, sheet := range sheets {
		previews = append(previews, workbook.Preview(sheet, s.cfg.PreviewRows, s.cfg.PreviewCols))
	}
	applog.DefaultLogger.Infof("[upload] %s saved as %s with %d sheet(s)", name, id, len(previews))

	c.JSON(http.StatusOK, types.UploadResponse{OK: true, FileID: id, Sheets: previews})
}

// handleAnalyze runs the analyzer on the preview rows sent by the client.
// Sheets are analyzed concurrently, at most s.concurrency at a time.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req types.AnalyzeRequest
	if !bindBody(c, &req) {
		return
	}
	if s.lookup(req.FileID) == nil {
		fail(c, http.StatusBadRequest, msgUnknownFileID)
		return
	}

	var (
		mu      sync.Mutex
		results = make(map[string]types.AnalyzeResult)
		errs    = make(map[string]string)
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(s.concurrency)
	for _, sheet := range req.Sheets {
		g.Go(func() error {
			res, err := s.analyzer.Analyze(ctx, sheet.SheetName, sheet.Rows)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				applog.DefaultLogger.Warnf("[analyze] %s: %v", sheet.SheetName, err)
				errs[sheet.SheetName] = err.Error()
				return nil
			}
			results[sheet.SheetName] = *res
			return nil
		})
	}
	g.Wait()

	c.JSON(http.StatusOK, types.AnalyzeResponse{OK: true, Results: results, Errors: errs})
}

func (s *Server) handleConvert(c *gin.Context) {
	var req types.ConvertRequest
	if !bindBody(c, &req) {
		return
	}
	up := s.lookup(req.FileID)
	if up == nil {
		fail(c, http.StatusBadRequest, msgUnknownFileID)
		return
	}

	sheets, err := workbook.ReadSheets(up.Path)
	if err != nil {
		applog.DefaultLogger.Errorf("[convert] read %s: %v", up.Name, err)
		fail(c, http.StatusInternalServerError, "read workbook failed: "+err.Error())
		return
	}
	byName := make(map[string]types.SheetData, len(sheets))
	for _, sheet := range sheets {
		byName[sheet.Name] = sheet
	}

	converted := make(map[string][]json.RawMessage)
	errs := make(map[string]string)
	for _, cs := range req.Sheets {
		sheet, ok := byName[cs.SheetName]
		if !ok {
			errs[cs.SheetName] = msgNoSheet
			continue
		}
		cols := columnNames(cs.Columns)
		if len(cols) == 0 {
			errs[cs.SheetName] = msgNoColumns
			continue
		}
		records, err := workbook.Records(sheet, cols, cs.DataStartRow)
		if err != nil {
			errs[cs.SheetName] = err.Error()
			continue
		}
		converted[cs.SheetName] = records
		applog.DefaultLogger.Infof("[convert] %s/%s: %d record(s)", up.Name, cs.SheetName, len(records))
	}

	c.JSON(http.StatusOK, types.ConvertResponse{OK: true, Converted: converted, Errors: errs})
}

// columnNames accepts a list as is. Text has surrounding brackets stripped
// and is split on commas.
func columnNames(colSpec types.ColumnSpec) []string {
	if colSpec.IsList {
		return colSpec.List
	}
	var cols []string
	for _, part := range strings.Split(strings.Trim(strings.TrimSpace(colSpec.Raw), "[]"), ",") {
		if p := strings.TrimSpace(part); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

func bindBody(c *gin.Context, v any) bool {
	data, err := c.GetRawData()
	if err != nil || sonic.Unmarshal(data, v) != nil {
		fail(c, http.StatusBadRequest, msgBadBody)
		return false
	}
	return true
}
