package analyzer

import (
	"context"

	"github.com/hovinh/tableau-report-gen/analyzer/graph"
)

// GraphExporter defines an interface to export a dependency graph to a storage backend.
type GraphExporter interface {
	Export(ctx context.Context, graph *graph.Graph) error
}

// WithGraphExporter registers a GraphExporter to send the whole-workbook graph after analysis.
func WithGraphExporter(exporter GraphExporter) Option {
	return func(a *Analyzer) {
		a.graphExporter = exporter
	}
}
