package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nconklindev/sheetjson/internal/applog"
	"github.com/nconklindev/sheetjson/internal/config"
	"github.com/nconklindev/sheetjson/internal/remote"
	"github.com/nconklindev/sheetjson/internal/ui"
)

type tuiOptions struct {
	serverURL string
	outputDir string
	file      string
	timeout   time.Duration
}

func addTUIFlags(cmd *cobra.Command, t *tuiOptions) {
	cmd.Flags().StringVar(&t.serverURL, "server", "", "server base URL (default http://127.0.0.1:8001)")
	cmd.Flags().StringVarP(&t.outputDir, "out", "o", "", "directory downloads are written to")
	cmd.Flags().StringVarP(&t.file, "file", "f", "", "upload this file on start")
	cmd.Flags().DurationVar(&t.timeout, "timeout", 0, "per-request timeout (default 60s)")
}

func newTUICmd(g *globalOptions) *cobra.Command {
	var t tuiOptions
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive client (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, g, &t)
		},
	}
	addTUIFlags(cmd, &t)
	return cmd
}

func (t *tuiOptions) apply(cfg *config.Config) {
	if t.serverURL != "" {
		cfg.ServerURL = strings.TrimRight(t.serverURL, "/")
	}
	if t.outputDir != "" {
		cfg.OutputDir = t.outputDir
	}
	if t.timeout > 0 {
		cfg.TimeoutSeconds = int(t.timeout.Round(time.Second) / time.Second)
		if cfg.TimeoutSeconds == 0 {
			cfg.TimeoutSeconds = 1
		}
	}
}

func runTUI(cmd *cobra.Command, g *globalOptions, t *tuiOptions) error {
	cfg, err := loadConfig(g, t.apply)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file
	closer, err := applog.InitFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()
	applog.DefaultLogger.Infof("sheetjson %s talking to %s", version, cfg.ServerURL)

	model := ui.New(ui.Options{
		Client:    remote.NewClient(cfg.ServerURL, cfg.Timeout()),
		OutputDir: cfg.OutputDir,
		Timeout:   cfg.Timeout(),
		StartFile: t.file,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
