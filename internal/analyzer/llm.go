package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/time/rate"

	"github.com/nconklindev/sheetjson/internal/applog"
	"github.com/nconklindev/sheetjson/internal/config"
	"github.com/nconklindev/sheetjson/internal/types"
)

const systemPrompt = `You are a data engineer who understands spreadsheet layouts.
Given the first rows of a sheet, infer the real column names of the data and the
row number where the real data starts.
Reply with a single JSON object and nothing else, shaped like:
{"columns": ["name1", "name2"], "data_start_row": 3}
- columns: column names in order, as strings;
- data_start_row: 1-based row number, within the whole sheet, of the first data record.`

// LLM asks an OpenAI-compatible chat completion endpoint (for example
// DashScope's compatible mode) to analyze the preview.
type LLM struct {
	url         string
	apiKey      string
	model       string
	temperature float64
	limiter     *rate.Limiter
	do          func(*http.Request) (*http.Response, error)
}

func NewLLM(cfg config.AnalyzerConfig) (*LLM, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("analyzer: environment variable %s is not set", cfg.APIKeyEnv)
	}
	// zero disables the client timeout
	hc := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &LLM{
		url:         strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:      key,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		limiter:     limiter,
		do:          hc.Do,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (l *LLM) Analyze(ctx context.Context, sheetName string, rows [][]any) (*types.AnalyzeResult, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := sonic.Marshal(chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(sheetName, rows)},
		},
		Temperature: l.temperature,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	start := time.Now()
	resp, err := l.do(req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read model response: %w", err)
	}
	applog.DefaultLogger.Debugf("[analyze] model %s answered %d for %q in %s", l.model, resp.StatusCode, sheetName, time.Since(start).Round(time.Millisecond))

	var cr chatResponse
	if err := sonic.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("model call failed: status %d", resp.StatusCode)
	}
	if resp.StatusCode/100 != 2 {
		msg := http.StatusText(resp.StatusCode)
		if cr.Error != nil && cr.Error.Message != "" {
			msg = cr.Error.Message
		}
		return nil, fmt.Errorf("model call failed: %d %s", resp.StatusCode, msg)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("model returned no content")
	}
	return ParseModelReply(cr.Choices[0].Message.Content)
}

func userPrompt(sheetName string, rows [][]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Below are the first rows (at most 50 columns) of the sheet %q:\n", sheetName)
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = strconv.Quote(cellString(v))
		}
		fmt.Fprintf(&b, "Row %d: [%s]\n", i+1, strings.Join(cells, ", "))
	}
	b.WriteString(`
Decide:
1. the real column names of this sheet, in order, to be used as JSON field names;
2. the 1-based row number where the real data starts.
If the first rows are titles or notes, pick the most reasonable start row.

Reply as JSON: {"columns": ["name1", "name2"], "data_start_row": 3}`)
	return b.String()
}

// ParseModelReply reads the JSON object out of a model reply, tolerating a
// surrounding ``` fence. A missing or non-integer start row becomes 1.
func ParseModelReply(content string) (*types.AnalyzeResult, error) {
	raw := strings.TrimSpace(content)
	if strings.HasPrefix(raw, "```") {
		lines := strings.Split(raw, "\n")
		if len(lines) >= 2 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
			raw = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}

	var parsed struct {
		Columns      any `json:"columns"`
		DataStartRow any `json:"data_start_row"`
	}
	if err := sonic.UnmarshalString(raw, &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse model reply: %w", err)
	}

	cols := []string{}
	if list, ok := parsed.Columns.([]any); ok {
		for _, c := range list {
			cols = append(cols, cellString(c))
		}
	}

	start := 1
	switch v := parsed.DataStartRow.(type) {
	case float64:
		start = int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			start = n
		}
	}
	return &types.AnalyzeResult{Columns: cols, DataStartRow: &start}, nil
}
