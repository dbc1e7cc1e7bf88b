package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Format is a graph export format
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
)

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch format := Format(strings.ToLower(name)); format {
	case FormatYAML, FormatJSON, FormatDOT:
		return format, nil
	case "yml":
		return FormatYAML, nil
	case "gv":
		return FormatDOT, nil
	}
	return "", fmt.Errorf("unsupported graph format: %q", name)
}

// Encode writes the graph to w in format
func (g *Graph) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML, "":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(g); err != nil {
			return fmt.Errorf("failed to encode graph: %w", err)
		}
		return encoder.Close()
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(g)
	case FormatDOT:
		return g.writeDOT(w)
	}
	return fmt.Errorf("unsupported graph format: %q", format)
}

var nodeStyles = map[linage.NodeKind]string{
	linage.DataSourceNode:      `shape=rectangle, style=filled, fillcolor=orange`,
	linage.CalculatedFieldNode: `shape=box, style=filled, fillcolor=lightblue`,
	linage.OriginalFieldNode:   `shape=ellipse, style=filled, fillcolor="#89CFF0"`,
	linage.UnresolvedNode:      `shape=ellipse, style=dashed, color=gray`,
}

// writeDOT renders the graph left to right with data sources as upstream roots
func (g *Graph) writeDOT(w io.Writer) error {
	buf := &bytes.Buffer{}
	name := "dependencies"
	if g.Worksheet != "" {
		name = g.Worksheet
	}
	fmt.Fprintf(buf, "digraph %s {\n", quoteDOT(name))
	buf.WriteString("  rankdir=LR;\n")
	for _, node := range g.Nodes {
		fmt.Fprintf(buf, "  %s [label=%s, %s];\n", quoteDOT(string(node.ID)), quoteDOT(node.Label), nodeStyles[node.Kind])
	}
	for _, edge := range g.Edges {
		attrs := ""
		if edge.Label != "" {
			attrs = fmt.Sprintf(" [label=%s, fontsize=8, fontcolor=gray]", quoteDOT(edge.Label))
		}
		fmt.Fprintf(buf, "  %s -> %s%s;\n", quoteDOT(string(edge.Source)), quoteDOT(string(edge.Target)), attrs)
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func quoteDOT(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, `"`, `\"`)
	text = strings.ReplaceAll(text, "\n", `\n`)
	return `"` + text + `"`
}

// FileExporter writes graphs to a storage URL
type FileExporter struct {
	fs     afs.Service
	URL    string
	Format Format
}

// NewFileExporter creates an exporter writing to URL; a nil fs uses the default afs service
func NewFileExporter(URL string, format Format, fs afs.Service) *FileExporter {
	if fs == nil {
		fs = afs.New()
	}
	return &FileExporter{fs: fs, URL: URL, Format: format}
}

// Export encodes graph and uploads it to the exporter URL
func (e *FileExporter) Export(ctx context.Context, graph *Graph) error {
	buf := &bytes.Buffer{}
	if err := graph.Encode(buf, e.Format); err != nil {
		return err
	}
	if err := e.fs.Upload(ctx, e.URL, 0o644, buf); err != nil {
		return fmt.Errorf("failed to write graph %s: %w", e.URL, err)
	}
	return nil
}
