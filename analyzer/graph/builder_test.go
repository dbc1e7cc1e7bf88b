package graph

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func field(ds, name string) linage.FieldID {
	return linage.FieldID{DataSource: ds, Name: name}
}

func testTables() *linage.Tables {
	return &linage.Tables{
		DataSources: []*linage.DataSource{
			{ID: "ds1", Caption: "Orders"},
			{ID: "ds2", Caption: "Targets"},
		},
		OriginalFields: []*linage.OriginalField{
			{FieldID: field("ds1", "Sales")},
			{FieldID: field("ds1", "Profit")},
			{FieldID: field("ds1", "Region")},
			{FieldID: field("ds2", "Goal")},
		},
		CalculatedFields: []*linage.CalculatedField{
			{FieldID: field("ds1", "Profit Ratio"), Formula: "SUM([Profit])/SUM([Sales])"},
			{FieldID: field("ds1", "Running Total"), Formula: "IF [Running Total] > 0 THEN [Running Total] ELSE 0 END"},
			{FieldID: field("ds1", "Margin Flag"), Caption: "Flag", Formula: "[Profit Ratio] > [ds2].[Goal] OR [Nonexistent Field]"},
			{FieldID: field("ds2", "Gap"), Formula: "[Goal] - 1"},
		},
		Worksheets: []*linage.Worksheet{
			{Name: "Ratio", Uses: []*linage.FieldUse{
				{FieldID: field("ds1", "Margin Flag")},
				{FieldID: field("ds1", ":Measure Names")},
			}},
			{Name: "Regions", Uses: []*linage.FieldUse{{FieldID: field("ds1", "Region")}}},
		},
	}
}

func refs(nodes []*Node) []string {
	var result []string
	for _, node := range nodes {
		result = append(result, string(node.ID))
	}
	return result
}

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		description string
		worksheet   string
		expectNodes []string
		expectEdges []string
		unresolved  int
		skipped     int
	}{
		{
			description: "whole workbook",
			expectNodes: []string{
				"[ds1]", "[ds2]",
				"[ds1].[Sales]", "[ds1].[Profit]", "[ds1].[Region]", "[ds2].[Goal]",
				"[ds1].[Profit Ratio]", "[ds1].[Running Total]", "[ds1].[Margin Flag]", "[ds2].[Gap]",
			},
			expectEdges: []string{
				"[ds1] -> [ds1].[Sales] ()",
				"[ds1] -> [ds1].[Profit] ()",
				"[ds1] -> [ds1].[Region] ()",
				"[ds2] -> [ds2].[Goal] ()",
				"[ds1] -> [ds1].[Profit Ratio] ()",
				"[ds1] -> [ds1].[Running Total] ()",
				"[ds1] -> [ds1].[Margin Flag] ()",
				"[ds2] -> [ds2].[Gap] ()",
				"[ds1].[Profit] -> [ds1].[Profit Ratio] ()",
				"[ds1].[Sales] -> [ds1].[Profit Ratio] ()",
				"[ds1].[Running Total] -> [ds1].[Running Total] ()",
				"[ds1].[Profit Ratio] -> [ds1].[Margin Flag] ()",
				"[ds2].[Goal] -> [ds1].[Margin Flag] (ds2)",
				"[ds2].[Goal] -> [ds2].[Gap] ()",
			},
			unresolved: 1,
		},
		{
			description: "worksheet with transitive dependencies across sources",
			worksheet:   "Ratio",
			expectNodes: []string{
				"[ds1]", "[ds2]",
				"[ds1].[Sales]", "[ds1].[Profit]", "[ds2].[Goal]",
				"[ds1].[Profit Ratio]", "[ds1].[Margin Flag]",
			},
			expectEdges: []string{
				"[ds1] -> [ds1].[Sales] ()",
				"[ds1] -> [ds1].[Profit] ()",
				"[ds2] -> [ds2].[Goal] ()",
				"[ds1] -> [ds1].[Profit Ratio] ()",
				"[ds1] -> [ds1].[Margin Flag] ()",
				"[ds1].[Profit] -> [ds1].[Profit Ratio] ()",
				"[ds1].[Sales] -> [ds1].[Profit Ratio] ()",
				"[ds1].[Profit Ratio] -> [ds1].[Margin Flag] ()",
				"[ds2].[Goal] -> [ds1].[Margin Flag] (ds2)",
			},
			unresolved: 1,
			skipped:    1,
		},
		{
			description: "worksheet with one original field",
			worksheet:   "Regions",
			expectNodes: []string{"[ds1]", "[ds1].[Region]"},
			expectEdges: []string{"[ds1] -> [ds1].[Region] ()"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			g, err := NewBuilder(testTables()).Build(tc.worksheet)
			if !assert.Nil(t, err) {
				return
			}
			assert.Equal(t, tc.expectNodes, refs(g.Nodes))
			var edges []string
			for _, edge := range g.Edges {
				edges = append(edges, string(edge.Source)+" -> "+string(edge.Target)+" ("+edge.Label+")")
			}
			assert.Equal(t, tc.expectEdges, edges)
			assert.Equal(t, tc.unresolved, g.Diagnostics.UnresolvedReferences)
			assert.Len(t, g.Diagnostics.Warnings, tc.unresolved)
			assert.Equal(t, tc.skipped, g.Diagnostics.SkippedUses)
		})
	}
}

func TestBuilder_Build_WorksheetUsesAppearAsNodes(t *testing.T) {
	tables := testTables()
	builder := NewBuilder(tables)
	for _, ws := range tables.Worksheets {
		g, err := builder.Build(ws.Name)
		if !assert.Nil(t, err) {
			continue
		}
		for _, id := range ws.Fields() {
			if _, known := tables.Index().Kind(id); known {
				assert.NotNil(t, g.Node(id.Ref()), "%s in %s", id, ws.Name)
			}
		}
	}
	g, err := builder.Build("Regions")
	assert.Nil(t, err)
	assert.Nil(t, g.Node(field("ds1", "Sales").Ref()), "unused field must not appear")
}

func TestBuilder_Build_SelfLoopAndCycles(t *testing.T) {
	tables := testTables()
	tables.CalculatedFields = append(tables.CalculatedFields,
		&linage.CalculatedField{FieldID: field("ds1", "A"), Formula: "[B] + 1"},
		&linage.CalculatedField{FieldID: field("ds1", "B"), Formula: "[A] - 1"},
	)
	g, err := NewBuilder(tables).Build("")
	if !assert.Nil(t, err) {
		return
	}
	self := field("ds1", "Running Total").Ref()
	assert.True(t, g.HasEdge(self, self))
	assert.Equal(t, [][]linage.Ref{
		{self},
		{field("ds1", "A").Ref(), field("ds1", "B").Ref()},
	}, g.Diagnostics.Cycles)
}

func TestBuilder_Build_UnresolvedNodes(t *testing.T) {
	g, err := NewBuilder(testTables(), WithUnresolvedNodes(true)).Build("")
	if !assert.Nil(t, err) {
		return
	}
	unresolved := g.NodesOf(linage.UnresolvedNode)
	if assert.Len(t, unresolved, 1) {
		assert.Equal(t, linage.Ref("?[ds1].[Nonexistent Field]"), unresolved[0].ID)
		assert.True(t, g.HasEdge(unresolved[0].ID, field("ds1", "Margin Flag").Ref()))
	}
	assert.Equal(t, 1, g.Diagnostics.UnresolvedReferences)
}

func TestBuilder_Build_CommentedReferences(t *testing.T) {
	tables := testTables()
	tables.CalculatedFields = append(tables.CalculatedFields,
		&linage.CalculatedField{FieldID: field("ds1", "C"), Formula: "/* was [Profit] */ [Sales] /* [Legacy Field] */"},
	)
	g, err := NewBuilder(tables).Build("")
	if !assert.Nil(t, err) {
		return
	}
	target := field("ds1", "C").Ref()
	assert.True(t, g.HasEdge(field("ds1", "Sales").Ref(), target))
	assert.False(t, g.HasEdge(field("ds1", "Profit").Ref(), target))
	assert.Equal(t, 1, g.Diagnostics.UnresolvedReferences)
}

func TestBuilder_Build_Errors(t *testing.T) {
	_, err := NewBuilder(testTables()).Build("Missing")
	assert.True(t, errors.Is(err, linage.ErrWorksheetNotFound), err)

	tables := testTables()
	tables.OriginalFields = append(tables.OriginalFields, &linage.OriginalField{FieldID: field("ghost", "X")})
	_, err = NewBuilder(tables).Build("")
	var buildErr *linage.GraphBuildError
	if assert.True(t, errors.As(err, &buildErr), err) {
		assert.Equal(t, "ghost", buildErr.DataSource)
	}
}

func TestGraph_AddEdge(t *testing.T) {
	g := New()
	g.AddNode(&Node{ID: "[a]", Kind: linage.DataSourceNode})
	g.AddNode(&Node{ID: "[a].[x]", Kind: linage.OriginalFieldNode})
	assert.False(t, g.AddNode(&Node{ID: "[a]", Kind: linage.DataSourceNode}))

	assert.Nil(t, g.AddEdge(&Edge{Source: "[a]", Target: "[a].[x]", Kind: linage.Owns}))
	assert.Nil(t, g.AddEdge(&Edge{Source: "[a]", Target: "[a].[x]", Kind: linage.Owns}))
	assert.Nil(t, g.AddEdge(&Edge{Source: "[a]", Target: "[a].[x]", Label: "other", Kind: linage.References}))
	assert.Len(t, g.Edges, 2)
	assert.NotNil(t, g.AddEdge(&Edge{Source: "[a]", Target: "[a].[missing]"}))
	assert.Len(t, g.Edges, 2)
}

func TestGraph_Encode(t *testing.T) {
	g, err := NewBuilder(testTables()).Build("Regions")
	if !assert.Nil(t, err) {
		return
	}

	buf := &bytes.Buffer{}
	assert.Nil(t, g.Encode(buf, FormatYAML))
	expect := `worksheet: Regions
nodes:
  - id: '[ds1]'
    type: Data Source
    label: Orders
  - id: '[ds1].[Region]'
    type: Original Field
    label: Region
    dataSource: ds1
edges:
  - source: '[ds1]'
    target: '[ds1].[Region]'
    kind: OWNS
diagnostics:
  unresolvedReferences: 0
`
	assert.Equal(t, expect, buf.String())

	var decoded Graph
	assert.Nil(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Nodes, 2)

	buf.Reset()
	assert.Nil(t, g.Encode(buf, FormatJSON))
	assert.Contains(t, buf.String(), `"type": "Data Source"`)

	buf.Reset()
	assert.Nil(t, g.Encode(buf, FormatDOT))
	dot := buf.String()
	assert.True(t, strings.HasPrefix(dot, "digraph \"Regions\" {\n  rankdir=LR;\n"))
	assert.Contains(t, dot, `"[ds1]" [label="Orders", shape=rectangle, style=filled, fillcolor=orange];`)
	assert.Contains(t, dot, `"[ds1].[Region]" [label="Region", shape=ellipse, style=filled, fillcolor="#89CFF0"];`)
	assert.Contains(t, dot, `"[ds1]" -> "[ds1].[Region]";`)

	assert.NotNil(t, g.Encode(buf, Format("png")))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		description string
		name        string
		expect      Format
		expectErr   bool
	}{
		{description: "yaml", name: "YAML", expect: FormatYAML},
		{description: "yml alias", name: "yml", expect: FormatYAML},
		{description: "dot", name: "dot", expect: FormatDOT},
		{description: "unknown", name: "svg", expectErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			format, err := ParseFormat(tc.name)
			if tc.expectErr {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.expect, format)
		})
	}
}

func TestFileExporter_Export(t *testing.T) {
	g, err := NewBuilder(testTables()).Build("")
	if !assert.Nil(t, err) {
		return
	}
	location := filepath.Join(t.TempDir(), "graph.dot")
	assert.Nil(t, NewFileExporter(location, FormatDOT, nil).Export(context.Background(), g))
	data, err := os.ReadFile(location)
	assert.Nil(t, err)
	assert.Contains(t, string(data), `"[ds1].[Running Total]" -> "[ds1].[Running Total]";`)
	assert.Contains(t, string(data), `"[ds2].[Goal]" -> "[ds1].[Margin Flag]" [label="ds2", fontsize=8, fontcolor=gray];`)
}
