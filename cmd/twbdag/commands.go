package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hovinh/tableau-report-gen/analyzer"
	"github.com/hovinh/tableau-report-gen/analyzer/graph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report <workbook>",
		Short: "Print the metadata and data source report of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.analyzer().AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return result.Report.Encode(cmd.OutOrStdout(), a.output)
		},
	}
}

func newGraphCmd(a *app) *cobra.Command {
	var (
		worksheet string
		format    string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "graph <workbook>",
		Short: "Print the field dependency graph, optionally restricted to one worksheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				format = a.output
			}
			graphFormat, err := graph.ParseFormat(format)
			if err != nil {
				return err
			}
			result, err := a.analyzer().AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view, err := result.WorksheetGraph(worksheet)
			if err != nil {
				return err
			}
			if out != "" {
				if err = graph.NewFileExporter(out, graphFormat, a.fs).Export(cmd.Context(), view); err != nil {
					return err
				}
				a.logger.Info("wrote dependency graph", "url", out, "nodes", len(view.Nodes), "edges", len(view.Edges))
				return nil
			}
			return view.Encode(cmd.OutOrStdout(), graphFormat)
		},
	}
	cmd.Flags().StringVarP(&worksheet, "worksheet", "w", "", "Restrict the graph to fields used by this worksheet")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Graph format (yaml, json, dot)")
	cmd.Flags().StringVar(&out, "out", "", "Destination URL; prints to stdout when empty")
	return cmd
}

func newWorksheetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worksheets <workbook>",
		Short: "List worksheet names of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.analyzer().AnalyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), a.output, result.Tables.WorksheetNames())
		},
	}
}

// scanSummary is one line of the scan output
type scanSummary struct {
	Location             string `yaml:"location" json:"location"`
	Document             string `yaml:"document" json:"document"`
	DataSources          int    `yaml:"dataSources" json:"dataSources"`
	CalculatedFields     int    `yaml:"calculatedFields" json:"calculatedFields"`
	Worksheets           int    `yaml:"worksheets" json:"worksheets"`
	UnresolvedReferences int    `yaml:"unresolvedReferences" json:"unresolvedReferences"`
	Fingerprint          string `yaml:"fingerprint" json:"fingerprint"`
}

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <dir>",
		Short: "Analyze every workbook under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, scanErr := a.analyzer().AnalyzeDir(cmd.Context(), args[0])
			summaries := make([]scanSummary, 0, len(results))
			for _, result := range results {
				summaries = append(summaries, summarize(result))
			}
			if err := encode(cmd.OutOrStdout(), a.output, summaries); err != nil {
				return err
			}
			return scanErr
		},
	}
}

func summarize(result *analyzer.Result) scanSummary {
	return scanSummary{
		Location:             result.Location,
		Document:             result.DocumentName,
		DataSources:          len(result.Tables.DataSources),
		CalculatedFields:     len(result.Tables.CalculatedFields),
		Worksheets:           len(result.Tables.Worksheets),
		UnresolvedReferences: result.Graph.Diagnostics.UnresolvedReferences,
		Fingerprint:          result.Report.Fingerprint,
	}
}

func encode(w io.Writer, format string, value interface{}) error {
	buf := &bytes.Buffer{}
	switch format {
	case "json":
		encoder := json.NewEncoder(buf)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(value); err != nil {
			return err
		}
	default:
		data, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		buf.Write(data)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
