package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/nconklindev/sheetjson/internal/applog"
	"github.com/nconklindev/sheetjson/internal/types"
)

const (
	OpUpload  = "upload"
	OpAnalyze = "analyze"
	OpConvert = "convert"
)

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 256 << 20

// Client talks to the /upload, /analyze and /convert endpoints.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a client for baseURL. A zero timeout means no limit.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// WithHTTPClient swaps the underlying client (tests use httptest clients)
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.hc = hc
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Upload sends the file at path as the multipart field "file".
func (c *Client) Upload(ctx context.Context, path string) (*types.UploadResponse, error) {
	if err := CheckUploadPath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &TransportError{Op: OpUpload, Err: err}
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, &TransportError{Op: OpUpload, Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, &TransportError{Op: OpUpload, Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &TransportError{Op: OpUpload, Err: err}
	}

	var resp types.UploadResponse
	status, err := c.post(ctx, OpUpload, "/upload", mw.FormDataContentType(), &body, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, newAPIError(OpUpload, status, resp.Error)
	}
	return &resp, nil
}

func (c *Client) Analyze(ctx context.Context, req *types.AnalyzeRequest) (*types.AnalyzeResponse, error) {
	payload, err := sonic.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: OpAnalyze, Err: err}
	}

	var resp types.AnalyzeResponse
	status, err := c.post(ctx, OpAnalyze, "/analyze", "application/json", bytes.NewReader(payload), &resp)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, newAPIError(OpAnalyze, status, resp.Error)
	}
	return &resp, nil
}

func (c *Client) Convert(ctx context.Context, req *types.ConvertRequest) (*types.ConvertResponse, error) {
	payload, err := sonic.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: OpConvert, Err: err}
	}

	var resp types.ConvertResponse
	status, err := c.post(ctx, OpConvert, "/convert", "application/json", bytes.NewReader(payload), &resp)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, newAPIError(OpConvert, status, resp.Error)
	}
	return &resp, nil
}

// post sends body and decodes the JSON reply into out. A reply that does not
// decode is a transport failure whatever its status; a decoded reply is left
// to the caller to judge by its ok field.
func (c *Client) post(ctx context.Context, op, path, contentType string, body io.Reader, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		applog.DefaultLogger.Errorf("[%s] %s: %v", op, req.URL, err)
		return 0, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		applog.DefaultLogger.Errorf("[%s] read response: %v", op, err)
		return resp.StatusCode, &TransportError{Op: op, Err: err}
	}
	applog.DefaultLogger.Debugf("[%s] %d in %s (%d bytes)", op, resp.StatusCode, time.Since(start).Round(time.Millisecond), len(data))

	if err := sonic.Unmarshal(data, out); err != nil {
		applog.DefaultLogger.Errorf("[%s] decode response (status %d): %v", op, resp.StatusCode, err)
		return resp.StatusCode, &TransportError{Op: op, Err: fmt.Errorf("status %d: decode response: %w", resp.StatusCode, err)}
	}
	return resp.StatusCode, nil
}

// CheckUploadPath reports ErrNoFile when no usable file has been chosen
func CheckUploadPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrNoFile
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNoFile, path)
	}
	return nil
}
