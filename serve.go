package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/nconklindev/sheetjson/internal/analyzer"
	"github.com/nconklindev/sheetjson/internal/applog"
	"github.com/nconklindev/sheetjson/internal/config"
	"github.com/nconklindev/sheetjson/internal/server"
)

type serveOptions struct {
	addr      string
	uploadDir string
	analyzer  string
}

func newServeCmd(g *globalOptions) *cobra.Command {
	var o serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload/analyze/convert server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, o.apply)
			if err != nil {
				return err
			}
			applog.Init(os.Stderr, cfg.Log.Level)
			if applog.DefaultLogger.GetLevel() == log.DebugLevel {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			an, err := analyzer.New(cfg.Analyzer)
			if err != nil {
				return err
			}
			srv, err := server.New(cfg, an)
			if err != nil {
				return err
			}
			applog.DefaultLogger.Infof("Using %s analyzer, uploads in %s (kept %s)", cfg.Analyzer.Kind, cfg.Server.UploadDir, cfg.UploadTTL())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&o.addr, "addr", "", "listen address (default :8001)")
	cmd.Flags().StringVar(&o.uploadDir, "upload-dir", "", "directory uploads are saved in")
	cmd.Flags().StringVar(&o.analyzer, "analyzer", "", "column analyzer: heuristic or llm")
	return cmd
}

func (o *serveOptions) apply(cfg *config.Config) {
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.uploadDir != "" {
		cfg.Server.UploadDir = o.uploadDir
	}
	if o.analyzer != "" {
		cfg.Analyzer.Kind = o.analyzer
	}
}
