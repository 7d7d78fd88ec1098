package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nconklindev/sheetjson/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions are shared by every command
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var g globalOptions
	var t tuiOptions

	cmd := &cobra.Command{
		Use:   "sheetjson",
		Short: "sheetjson - turn spreadsheet sheets into JSON",
		Long: "sheetjson uploads a workbook to a sheetjson server, lets you pick sheets, " +
			"infer their columns and convert them to JSON records you can save.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, &g, &t)
		},
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default "+config.DefaultPath+" if present)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	addTUIFlags(cmd, &t)

	cmd.AddCommand(newTUICmd(&g))
	cmd.AddCommand(newServeCmd(&g))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sheetjson %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}

// loadConfig reads the config file and applies flag overrides on top
func loadConfig(g *globalOptions, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
