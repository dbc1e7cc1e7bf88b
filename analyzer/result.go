package analyzer

import (
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/hovinh/tableau-report-gen/analyzer/graph"
	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/hovinh/tableau-report-gen/analyzer/report"
)

// Result holds the immutable tables of a workbook and the views derived from them
type Result struct {
	Location     string
	DocumentName string
	Tables       *linage.Tables
	Report       *report.Report
	// Graph is the unfiltered dependency graph
	Graph *graph.Graph

	mux     sync.Mutex
	builder *graph.Builder
	views   *lru.Cache[string, *graph.Graph]
}

func newResult(location, documentName string, tables *linage.Tables, builder *graph.Builder, whole *graph.Graph, cacheSize int) (*Result, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	views, err := lru.New[string, *graph.Graph](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph cache: %w", err)
	}
	return &Result{
		Location:     location,
		DocumentName: documentName,
		Tables:       tables,
		Graph:        whole,
		builder:      builder,
		views:        views,
	}, nil
}

// WorksheetGraph returns the dependency graph restricted to a worksheet; an empty name returns the whole graph.
// Views are rebuilt on demand from the tables and cached.
func (r *Result) WorksheetGraph(worksheet string) (*graph.Graph, error) {
	if worksheet == "" {
		return r.Graph, nil
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	if view, ok := r.views.Get(worksheet); ok {
		return view, nil
	}
	view, err := r.builder.Build(worksheet)
	if err != nil {
		return nil, err
	}
	r.views.Add(worksheet, view)
	return view, nil
}
