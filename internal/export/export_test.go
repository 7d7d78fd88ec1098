package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func records(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(fmt.Sprintf(`{"z":%d,"a":"row %d"}`, i, i))
	}
	return out
}

func TestMarshal(t *testing.T) {
	got, err := Marshal(records(2))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[
  {
    "z": 0,
    "a": "row 0"
  },
  {
    "z": 1,
    "a": "row 1"
  }
]`
	if string(got) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", got, want)
	}

	empty, err := Marshal(nil)
	if err != nil || string(empty) != "[]" {
		t.Errorf("Marshal(nil) = %s, %v; want []", empty, err)
	}
}

func TestMarshalWritesLiteralText(t *testing.T) {
	recs := []json.RawMessage{
		json.RawMessage(`{"\u59d3\u540d":"\u5f20\u4e09","dept":"R\u0026D","note":"a<b>c","quote":"say \"hi\"","n":1.50,"tags":["x",null,true],"nested":{"k":[]}}`),
		json.RawMessage(`{"姓名":"R&D"}`),
	}
	got, err := Marshal(recs)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[
  {
    "姓名": "张三",
    "dept": "R&D",
    "note": "a<b>c",
    "quote": "say \"hi\"",
    "n": 1.50,
    "tags": [
      "x",
      null,
      true
    ],
    "nested": {
      "k": []
    }
  },
  {
    "姓名": "R&D"
  }
]`
	if string(got) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", got, want)
	}

	preview, err := Preview(recs)
	if err != nil || preview != want {
		t.Errorf("Preview() = %s, %v", preview, err)
	}

	if _, err := Marshal([]json.RawMessage{json.RawMessage(`{"a":`)}); err == nil {
		t.Error("Marshal of a truncated record should fail")
	}
}

func TestPreviewIsBounded(t *testing.T) {
	out, err := Preview(records(PreviewLimit + 20))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("preview is not JSON: %v", err)
	}
	if len(decoded) != PreviewLimit {
		t.Errorf("preview has %d records; want %d", len(decoded), PreviewLimit)
	}
}

func TestWriteSheetWritesFullArray(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	all := records(PreviewLimit + 7)

	path, err := WriteSheet(dir, "Sales 2024", all)
	if err != nil {
		t.Fatalf("WriteSheet: %v", err)
	}
	if filepath.Base(path) != "Sales 2024.json" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("file is not JSON: %v", err)
	}
	if len(decoded) != len(all) {
		t.Errorf("file has %d records; want all %d", len(decoded), len(all))
	}
	if !strings.Contains(string(data), "\n  {\n    \"z\": 0,") {
		t.Error("file is not pretty-printed")
	}

	// overwrite in place
	if _, err := WriteSheet(dir, "Sales 2024", records(1)); err != nil {
		t.Fatalf("WriteSheet overwrite: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries; temp files left behind", len(entries))
	}
}

func TestWriteSheetRejectsPathNames(t *testing.T) {
	for _, name := range []string{"", "a/b", `a\b`, "..", "."} {
		if _, err := WriteSheet(t.TempDir(), name, records(1)); err == nil {
			t.Errorf("WriteSheet(%q) succeeded; want error", name)
		}
	}
}
