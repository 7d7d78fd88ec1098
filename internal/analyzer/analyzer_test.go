package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/nconklindev/sheetjson/internal/applog"
	"github.com/nconklindev/sheetjson/internal/config"
)

func init() {
	applog.Discard()
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name      string
		rows      [][]any
		wantCols  []string
		wantStart int
	}{
		{
			name:      "Header after title",
			rows:      [][]any{{"Sales report", ""}, {"Region", "Amount", ""}, {"North", 12.0}},
			wantCols:  []string{"Region", "Amount"},
			wantStart: 3,
		},
		{
			name:      "Header with gap",
			rows:      [][]any{{"id", nil, "name"}, {1.0, 2.0, 3.0}},
			wantCols:  []string{"id", "column_2", "name"},
			wantStart: 2,
		},
		{
			name:      "No header",
			rows:      [][]any{{1.0, 2.0}, {3.0, 4.0, 5.0}},
			wantCols:  []string{"column_1", "column_2", "column_3"},
			wantStart: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Heuristic{}.Analyze(context.Background(), "Sheet1", tt.rows)
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if !reflect.DeepEqual(got.Columns, tt.wantCols) {
				t.Errorf("Columns = %q; want %q", got.Columns, tt.wantCols)
			}
			if got.DataStartRow == nil || *got.DataStartRow != tt.wantStart {
				t.Errorf("DataStartRow = %v; want %d", got.DataStartRow, tt.wantStart)
			}
		})
	}

	if _, err := (Heuristic{}).Analyze(context.Background(), "Empty", nil); err == nil {
		t.Error("expected error for empty sheet")
	}
}

func TestParseModelReply(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantCols  []string
		wantStart int
		wantErr   bool
	}{
		{"Plain", `{"columns": ["a", "b"], "data_start_row": 3}`, []string{"a", "b"}, 3, false},
		{"Fenced", "```json\n{\"columns\": [\"a\"], \"data_start_row\": 2}\n```", []string{"a"}, 2, false},
		{"String start row", `{"columns": ["a"], "data_start_row": "4"}`, []string{"a"}, 4, false},
		{"Bad start row", `{"columns": ["a"], "data_start_row": "soon"}`, []string{"a"}, 1, false},
		{"Columns not a list", `{"columns": "a,b"}`, []string{}, 1, false},
		{"Numeric column names", `{"columns": [2024, "x"]}`, []string{"2024", "x"}, 1, false},
		{"Not JSON", "I think the columns are a and b", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModelReply(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseModelReply: %v", err)
			}
			if !reflect.DeepEqual(got.Columns, tt.wantCols) || *got.DataStartRow != tt.wantStart {
				t.Errorf("got %q / %d; want %q / %d", got.Columns, *got.DataStartRow, tt.wantCols, tt.wantStart)
			}
		})
	}
}

func TestLLM(t *testing.T) {
	var gotAuth, gotModel, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		if len(req.Messages) == 2 {
			gotPrompt = req.Messages[1].Content
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "```json\n{\"columns\":[\"姓名\",\"年龄\"],\"data_start_row\":2}\n```"}},
			},
		})
	}))
	defer srv.Close()

	t.Setenv("TEST_LLM_KEY", "secret")
	cfg := config.Default().Analyzer
	cfg.Kind = "llm"
	cfg.BaseURL = srv.URL + "/v1/"
	cfg.APIKeyEnv = "TEST_LLM_KEY"
	cfg.Model = "qwen3-max"
	cfg.RequestsPerSecond = 100

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := a.Analyze(context.Background(), "人员", [][]any{{"姓名", "年龄"}, {"张三", 30.0}})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if gotAuth != "Bearer secret" || gotModel != "qwen3-max" {
		t.Errorf("auth/model = %q / %q", gotAuth, gotModel)
	}
	if !strings.Contains(gotPrompt, `Row 2: ["张三", "30"]`) {
		t.Errorf("prompt does not carry preview rows:\n%s", gotPrompt)
	}
	if !reflect.DeepEqual(got.Columns, []string{"姓名", "年龄"}) || *got.DataStartRow != 2 {
		t.Errorf("result = %+v", got)
	}
}

func TestLLMUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "invalid api key"}})
	}))
	defer srv.Close()

	t.Setenv("TEST_LLM_KEY", "bad")
	cfg := config.Default().Analyzer
	cfg.BaseURL = srv.URL
	cfg.APIKeyEnv = "TEST_LLM_KEY"
	a, err := NewLLM(cfg)
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.Analyze(context.Background(), "Sheet1", [][]any{{"a"}})
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("err = %v; want upstream message", err)
	}
}

func TestNewLLMRequiresKey(t *testing.T) {
	t.Setenv("TEST_LLM_MISSING", "")
	cfg := config.Default().Analyzer
	cfg.APIKeyEnv = "TEST_LLM_MISSING"
	if _, err := NewLLM(cfg); err == nil {
		t.Error("expected error without api key")
	}
	cfg.Kind = "bogus"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown kind")
	}
}
