package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hovinh/tableau-report-gen/analyzer"
	"github.com/hovinh/tableau-report-gen/config"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
)

var (
	version = "dev"
	commit  = "none"
)

// app carries the resolved configuration shared by all commands
type app struct {
	fs        afs.Service
	configURL string
	logLevel  string
	output    string
	config    *config.Config
	logger    *slog.Logger
}

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	a := &app{fs: afs.New()}
	rootCmd := &cobra.Command{
		Use:           "twbdag",
		Short:         "Workbook field lineage",
		Long:          "Extracts data sources, fields and worksheets from Tableau workbooks and builds calculated field dependency graphs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configURL, "config", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "yaml", "Output format (yaml, json)")

	rootCmd.AddCommand(newReportCmd(a))
	rootCmd.AddCommand(newGraphCmd(a))
	rootCmd.AddCommand(newWorksheetsCmd(a))
	rootCmd.AddCommand(newScanCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// init applies precedence: flag > env > config file > default
func (a *app) init(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(ctx, a.fs, a.configURL)
	if err != nil {
		return err
	}
	if err = cfg.FromEnv(); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	switch a.output {
	case "yaml", "json":
	default:
		return fmt.Errorf("unsupported output format %q: use 'yaml' or 'json'", a.output)
	}
	a.config = cfg
	a.logger = cfg.Logger(cmd.ErrOrStderr())
	return nil
}

func (a *app) analyzer(options ...analyzer.Option) *analyzer.Analyzer {
	return analyzer.New(append([]analyzer.Option{
		analyzer.WithFs(a.fs),
		analyzer.WithConfig(a.config),
		analyzer.WithLogger(a.logger),
	}, options...)...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "twbdag %s (%s)\n", version, commit)
		},
	}
}
