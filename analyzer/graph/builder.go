package graph

import (
	"fmt"
	"log/slog"

	"github.com/hovinh/tableau-report-gen/analyzer/formula"
	"github.com/hovinh/tableau-report-gen/analyzer/linage"
)

// Builder derives dependency graphs from immutable tables
type Builder struct {
	tables          *linage.Tables
	resolver        *formula.Resolver
	resolverOptions []formula.Option
	unresolvedNodes bool
	logger          *slog.Logger
	resolutions     map[linage.FieldID]*formula.Resolution
}

// NewBuilder creates a builder over tables
func NewBuilder(tables *linage.Tables, options ...Option) *Builder {
	b := &Builder{
		tables: tables,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		opt(b)
	}
	b.resolver = formula.NewResolver(tables.Index(), append([]formula.Option{formula.WithLogger(b.logger)}, b.resolverOptions...)...)
	return b
}

// Resolution returns the memoized formula resolution of a calculated field
func (b *Builder) Resolution(field *linage.CalculatedField) *formula.Resolution {
	if b.resolutions == nil {
		b.resolutions = make(map[linage.FieldID]*formula.Resolution, len(b.tables.CalculatedFields))
	}
	if result, ok := b.resolutions[field.FieldID]; ok {
		return result
	}
	result := b.resolver.Resolve(field)
	b.resolutions[field.FieldID] = result
	return result
}

// Build returns the graph of all fields, or of the fields a worksheet uses directly or transitively.
// An empty worksheet name disables filtering.
func (b *Builder) Build(worksheet string) (*Graph, error) {
	scope, skipped, err := b.scope(worksheet)
	if err != nil {
		return nil, err
	}
	g := New()
	g.Worksheet = worksheet
	g.Diagnostics.SkippedUses = skipped
	included := func(id linage.FieldID) bool { return scope == nil || scope[id] }

	type owned struct {
		id    linage.FieldID
		kind  linage.NodeKind
		label string
	}
	var fields []owned
	for _, field := range b.tables.OriginalFields {
		if included(field.FieldID) {
			fields = append(fields, owned{id: field.FieldID, kind: linage.OriginalFieldNode, label: field.DisplayName()})
		}
	}
	for _, field := range b.tables.CalculatedFields {
		if included(field.FieldID) {
			fields = append(fields, owned{id: field.FieldID, kind: linage.CalculatedFieldNode, label: field.DisplayName()})
		}
	}

	owners := make(map[string]bool)
	for _, field := range fields {
		if b.tables.DataSource(field.id.DataSource) == nil {
			return nil, &linage.GraphBuildError{Node: field.id.Ref(), DataSource: field.id.DataSource, Reason: "owning data source is not defined"}
		}
		owners[field.id.DataSource] = true
	}
	for _, ds := range b.tables.DataSources {
		if scope == nil || owners[ds.ID] {
			g.AddNode(&Node{ID: ds.Ref(), Kind: linage.DataSourceNode, Label: ds.DisplayName()})
		}
	}
	for _, field := range fields {
		g.AddNode(&Node{ID: field.id.Ref(), Kind: field.kind, Label: field.label, DataSource: field.id.DataSource})
	}
	for _, field := range fields {
		if err := b.addEdge(g, &Edge{Source: linage.MakeDataSourceRef(field.id.DataSource), Target: field.id.Ref(), Kind: linage.Owns}, field.id.DataSource); err != nil {
			return nil, err
		}
	}

	for _, field := range b.tables.CalculatedFields {
		if !included(field.FieldID) {
			continue
		}
		resolution := b.Resolution(field)
		for _, ref := range resolution.References {
			if err := b.addEdge(g, &Edge{Source: ref.Field.Ref(), Target: field.Ref(), Label: ref.Label, Kind: linage.References}, ref.Field.DataSource); err != nil {
				return nil, err
			}
		}
		g.Diagnostics.UnresolvedReferences += len(resolution.Unresolved)
		g.Diagnostics.Unresolved = append(g.Diagnostics.Unresolved, resolution.Unresolved...)
		g.Diagnostics.Warnings = append(g.Diagnostics.Warnings, resolution.Warnings...)
		if !b.unresolvedNodes {
			continue
		}
		for _, item := range resolution.Unresolved {
			g.AddNode(&Node{ID: item.Ref(), Kind: linage.UnresolvedNode, Label: item.Token, DataSource: item.DataSource})
			if err := b.addEdge(g, &Edge{Source: item.Ref(), Target: field.Ref(), Label: item.Label, Kind: linage.References}, item.DataSource); err != nil {
				return nil, err
			}
		}
	}

	g.Diagnostics.Cycles = g.Cycles()
	b.logger.Debug("built dependency graph",
		"worksheet", worksheet,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"unresolved", g.Diagnostics.UnresolvedReferences,
		"cycles", len(g.Diagnostics.Cycles))
	return g, nil
}

func (b *Builder) addEdge(g *Graph, edge *Edge, dataSource string) error {
	if err := g.AddEdge(edge); err != nil {
		return &linage.GraphBuildError{Node: edge.Target, DataSource: dataSource, Reason: err.Error()}
	}
	return nil
}

// scope returns the fields reachable from the worksheet uses; nil means unfiltered
func (b *Builder) scope(worksheet string) (map[linage.FieldID]bool, int, error) {
	if worksheet == "" {
		return nil, 0, nil
	}
	ws := b.tables.Worksheet(worksheet)
	if ws == nil {
		return nil, 0, fmt.Errorf("%w: %s", linage.ErrWorksheetNotFound, worksheet)
	}
	index := b.tables.Index()
	scope := make(map[linage.FieldID]bool)
	var queue []linage.FieldID
	skipped := 0
	for _, id := range ws.Fields() {
		if _, ok := index.Kind(id); !ok {
			skipped++
			b.logger.Debug("worksheet uses unknown field", "worksheet", worksheet, "field", id.String())
			continue
		}
		if !scope[id] {
			scope[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		field := b.tables.CalculatedField(id)
		if field == nil {
			continue
		}
		for _, ref := range b.Resolution(field).References {
			if !scope[ref.Field] {
				scope[ref.Field] = true
				queue = append(queue, ref.Field)
			}
		}
	}
	return scope, skipped, nil
}
