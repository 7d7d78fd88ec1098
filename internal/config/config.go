// Package config provides YAML-based configuration loading for sheetjson.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "sheetjson.yaml"

// Config is the top-level configuration. Every field has a usable default,
// so a missing file is not an error.
type Config struct {
	ServerURL      string         `yaml:"server_url"`
	OutputDir      string         `yaml:"output_dir"`
	TimeoutSeconds int            `yaml:"timeout_seconds"`
	Log            LogConfig      `yaml:"log"`
	Server         ServerConfig   `yaml:"server"`
	Analyzer       AnalyzerConfig `yaml:"analyzer"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ServerConfig holds settings for the bundled backend (sheetjson serve).
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	UploadDir        string `yaml:"upload_dir"`
	UploadTTLMinutes int    `yaml:"upload_ttl_minutes"`
	PreviewRows      int    `yaml:"preview_rows"`
	PreviewCols      int    `yaml:"preview_cols"`
	MaxUploadMB      int    `yaml:"max_upload_mb"`
}

// AnalyzerConfig selects how the backend infers columns.
type AnalyzerConfig struct {
	Kind              string  `yaml:"kind"` // heuristic | llm
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Temperature       float64 `yaml:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Concurrency       int     `yaml:"concurrency"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

func Default() *Config {
	cfg := defaults()
	cfg.normalize()
	return cfg
}

// Load reads a YAML config file from path and returns a validated Config.
// A missing file at the default path yields the defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaults is decoded over, so only keys present in the file replace a
// default and an explicit zero stays zero.
func defaults() *Config {
	return &Config{
		ServerURL:      "http://127.0.0.1:8001",
		OutputDir:      ".",
		TimeoutSeconds: 60,
		Log: LogConfig{
			Level: "info",
			File:  "sheetjson.log",
		},
		Server: ServerConfig{
			Addr:             ":8001",
			UploadDir:        "uploads",
			UploadTTLMinutes: 60,
			PreviewRows:      5,
			PreviewCols:      50,
			MaxUploadMB:      32,
		},
		Analyzer: AnalyzerConfig{
			Kind:              "heuristic",
			BaseURL:           "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Model:             "qwen3-max",
			APIKeyEnv:         "DASHSCOPE_API_KEY",
			Temperature:       0.1,
			RequestsPerSecond: 2,
			Concurrency:       4,
			TimeoutSeconds:    60,
		},
	}
}

// normalize fills values that cannot be empty and trims derived ones.
func (c *Config) normalize() {
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "sheetjson.log"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploads"
	}
	if c.Analyzer.Kind == "" {
		c.Analyzer.Kind = "heuristic"
	}
}

// Validate checks that all fields are present and consistent.
func (c *Config) Validate() error {
	var errs []string
	if u, err := url.Parse(c.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("server_url %q is not an absolute URL", c.ServerURL))
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, "timeout_seconds must not be negative")
	}
	if c.Server.PreviewRows < 1 {
		errs = append(errs, "server.preview_rows must be at least 1")
	}
	if c.Server.PreviewCols < 1 {
		errs = append(errs, "server.preview_cols must be at least 1")
	}
	if c.Server.UploadTTLMinutes < 1 {
		errs = append(errs, "server.upload_ttl_minutes must be at least 1")
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, "server.max_upload_mb must be at least 1")
	}
	switch c.Analyzer.Kind {
	case "heuristic", "llm":
	default:
		errs = append(errs, fmt.Sprintf("analyzer.kind %q must be heuristic or llm", c.Analyzer.Kind))
	}
	if c.Analyzer.RequestsPerSecond < 0 {
		errs = append(errs, "analyzer.requests_per_second must not be negative")
	}
	if c.Analyzer.Temperature < 0 {
		errs = append(errs, "analyzer.temperature must not be negative")
	}
	if c.Analyzer.TimeoutSeconds < 0 {
		errs = append(errs, "analyzer.timeout_seconds must not be negative")
	}
	if c.Analyzer.Concurrency < 1 {
		errs = append(errs, "analyzer.concurrency must be at least 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Timeout is the per-request limit for client calls
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) UploadTTL() time.Duration {
	return time.Duration(c.Server.UploadTTLMinutes) * time.Minute
}
