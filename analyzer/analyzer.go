// Package analyzer runs the workbook lineage pipeline: extract, parse, resolve, build and report.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hovinh/tableau-report-gen/analyzer/graph"
	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/hovinh/tableau-report-gen/analyzer/report"
	"github.com/hovinh/tableau-report-gen/config"
	"github.com/hovinh/tableau-report-gen/inspector"
	"github.com/hovinh/tableau-report-gen/inspector/document"
	"github.com/viant/afs"
)

// Analyzer processes one workbook at a time; each call owns its extraction directory
type Analyzer struct {
	fs            afs.Service
	config        *config.Config
	logger        *slog.Logger
	graphExporter GraphExporter
}

// New creates an analyzer
func New(options ...Option) *Analyzer {
	a := &Analyzer{
		fs:     afs.New(),
		config: config.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// AnalyzeFile analyzes a workbook package (.twbx) or document (.twb).
// Archive and document errors abort the analysis of that workbook.
func (a *Analyzer) AnalyzeFile(ctx context.Context, location string) (*Result, error) {
	factory := inspector.NewFactory(a.config, inspector.WithFs(a.fs), inspector.WithLogger(a.logger))
	inspection, err := factory.InspectFile(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", location, err)
	}
	return a.analyze(ctx, location, inspection.DocumentName, inspection.Tables)
}

// AnalyzeDocument analyzes workbook document content
func (a *Analyzer) AnalyzeDocument(ctx context.Context, name string, content []byte) (*Result, error) {
	tables, err := document.New(document.WithConfig(a.config), document.WithLogger(a.logger)).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", name, err)
	}
	return a.analyze(ctx, name, name, tables)
}

func (a *Analyzer) analyze(ctx context.Context, location, documentName string, tables *linage.Tables) (*Result, error) {
	builder := graph.NewBuilder(tables, graph.WithConfig(a.config), graph.WithLogger(a.logger))
	whole, err := builder.Build("")
	if err != nil {
		return nil, err
	}
	result, err := newResult(location, documentName, tables, builder, whole, a.config.GraphCacheSize)
	if err != nil {
		return nil, err
	}
	result.Report = report.Assemble(tables, builder, whole.Diagnostics)
	if whole.Diagnostics.UnresolvedReferences > 0 {
		a.logger.Warn("unresolved formula references", "location", location, "count", whole.Diagnostics.UnresolvedReferences)
	}
	if len(whole.Diagnostics.Cycles) > 0 {
		a.logger.Info("recursive field definitions", "location", location, "cycles", len(whole.Diagnostics.Cycles))
	}
	if a.graphExporter != nil {
		if err := a.graphExporter.Export(ctx, whole); err != nil {
			return nil, fmt.Errorf("failed to export graph of %s: %w", location, err)
		}
	}
	return result, nil
}
