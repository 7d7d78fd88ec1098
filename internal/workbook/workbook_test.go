package workbook

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nconklindev/sheetjson/internal/types"

	"github.com/xuri/excelize/v2"
)

func TestFindHeaderRow(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		expected int
	}{
		{
			name: "Header on first row",
			rows: [][]string{
				{"Name", "Hours"},
				{"Alice", "8.0"},
			},
			expected: 0,
		},
		{
			name: "Title rows above header",
			rows: [][]string{
				{"Quarterly report"},
				{""},
				{"Region", "Sales", "Units"},
				{"North", "100", "5"},
			},
			expected: 2,
		},
		{
			name: "CJK header",
			rows: [][]string{
				{"销售报表"},
				{"姓名", "年龄", "城市"},
				{"张三", "30", "北京"},
			},
			expected: 1,
		},
		{
			name: "Numbers only",
			rows: [][]string{
				{"1", "2"},
				{"3", "4"},
			},
			expected: -1,
		},
		{
			name:     "Empty",
			rows:     nil,
			expected: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindHeaderRow(tt.rows)
			if got != tt.expected {
				t.Errorf("FindHeaderRow() = %d; want %d", got, tt.expected)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"Integer", "42", 42.0},
		{"Decimal", "1.5", 1.5},
		{"Padded number", " 7 ", 7.0},
		{"Text", "abc", "abc"},
		{"Empty", "", ""},
		{"Hex stays text", "0x1F", "0x1F"},
		{"NaN stays text", "NaN", "NaN"},
		{"Inf stays text", "Inf", "Inf"},
		{"Mixed", "1.5h", "1.5h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseValue(tt.input)
			if got != tt.expected {
				t.Errorf("ParseValue(%q) = %#v; want %#v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	rows := make([][]string, 8)
	for i := range rows {
		rows[i] = make([]string, 60)
		for j := range rows[i] {
			rows[i][j] = "x"
		}
	}
	rows[0][0] = "12"

	p := Preview(types.SheetData{Name: "Big", Rows: rows}, 5, 50)

	if p.SheetName != "Big" || p.RowCount != 8 || p.ColCount != 60 {
		t.Errorf("preview meta = %s %d x %d", p.SheetName, p.RowCount, p.ColCount)
	}
	if len(p.Rows) != 5 {
		t.Errorf("preview has %d rows; want 5", len(p.Rows))
	}
	for i, row := range p.Rows {
		if len(row) != 50 {
			t.Errorf("row %d has %d cells; want 50", i, len(row))
		}
	}
	if p.Rows[0][0] != 12.0 {
		t.Errorf("numeric cell = %#v; want 12.0", p.Rows[0][0])
	}

	empty := Preview(types.SheetData{Name: "Empty"}, 5, 50)
	if empty.Rows == nil || len(empty.Rows) != 0 || empty.RowCount != 0 {
		t.Errorf("empty preview = %+v", empty)
	}
}

func TestRecords(t *testing.T) {
	sheet := types.SheetData{
		Name: "People",
		Rows: [][]string{
			{"Staff list"},
			{"Name", "Age", "City"},
			{"Alice", "30", "Paris"},
			{"Bob", "41"},
		},
	}

	got, err := Records(sheet, []string{"name", "age", "city"}, 3)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	want := []string{
		`{"name":"Alice","age":30,"city":"Paris"}`,
		`{"name":"Bob","age":41,"city":""}`,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records; want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("record %d = %s; want %s", i, got[i], want[i])
		}
	}
}

func TestRecordsEdgeCases(t *testing.T) {
	sheet := types.SheetData{Rows: [][]string{{"a", "b", "c"}, {"1", "2", "3"}}}

	t.Run("Start row below one", func(t *testing.T) {
		got, _ := Records(sheet, []string{"x"}, 0)
		if len(got) != 2 {
			t.Errorf("got %d records; want 2", len(got))
		}
	})

	t.Run("Start row past end", func(t *testing.T) {
		got, err := Records(sheet, []string{"x"}, 10)
		if err != nil || got == nil || len(got) != 0 {
			t.Errorf("got %v, %v; want empty non-nil", got, err)
		}
	})

	t.Run("Duplicate column names", func(t *testing.T) {
		got, _ := Records(sheet, []string{"k", "v", "k"}, 2)
		if string(got[0]) != `{"k":3,"v":2}` {
			t.Errorf("record = %s", got[0])
		}
	})

	t.Run("Extra columns are ignored", func(t *testing.T) {
		got, _ := Records(sheet, []string{"only"}, 2)
		if string(got[0]) != `{"only":1}` {
			t.Errorf("record = %s", got[0])
		}
	})
}

func TestReadSheetsCSV(t *testing.T) {
	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "hours.csv")

	f, err := os.Create(inputFile)
	if err != nil {
		t.Fatal(err)
	}
	w := csv.NewWriter(f)
	w.WriteAll([][]string{
		{"Name", "Hours"},
		{"Alice", "1.5"},
		{"Bob"},
	})
	f.Close()

	sheets, err := ReadSheets(inputFile)
	if err != nil {
		t.Fatalf("ReadSheets: %v", err)
	}
	if len(sheets) != 1 || sheets[0].Name != "hours" {
		t.Fatalf("sheets = %+v", sheets)
	}
	if len(sheets[0].Rows) != 3 || !reflect.DeepEqual(sheets[0].Rows[2], []string{"Bob"}) {
		t.Errorf("rows = %v", sheets[0].Rows)
	}
}

func TestReadSheetsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	f.SetSheetRow("Sheet1", "A1", &[]any{"Name", "Age"})
	f.SetSheetRow("Sheet1", "A2", &[]any{"Alice", 30})
	if _, err := f.NewSheet("Summary"); err != nil {
		t.Fatal(err)
	}
	f.SetCellValue("Summary", "A1", "Total")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	sheets, err := ReadSheets(path)
	if err != nil {
		t.Fatalf("ReadSheets: %v", err)
	}
	if len(sheets) != 2 || sheets[0].Name != "Sheet1" || sheets[1].Name != "Summary" {
		t.Fatalf("sheets = %+v", sheets)
	}
	if !reflect.DeepEqual(sheets[0].Rows[1], []string{"Alice", "30"}) {
		t.Errorf("Sheet1 row 2 = %v", sheets[0].Rows[1])
	}
}

func TestReadSheetsUnsupported(t *testing.T) {
	if _, err := ReadSheets("report.pdf"); err == nil {
		t.Error("expected error for unsupported type")
	}
	if Supported("report.xls") {
		t.Error(".xls is not readable")
	}
	if !Supported("REPORT.XLSX") {
		t.Error("extension check should ignore case")
	}
}
