// Package document parses workbook documents into normalized metadata tables.
package document

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/hovinh/tableau-report-gen/config"
	"github.com/jacoelho/xsd/pkg/xmlstream"
)

// Parser converts workbook document text into linage.Tables
type Parser struct {
	duplicates config.DuplicatePolicy
	auxiliary  map[string]bool
	logger     *slog.Logger
}

// New creates a parser
func New(options ...Option) *Parser {
	p := &Parser{
		duplicates: config.LastWins,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Parse walks the document tree once and builds all tables.
// Either every table is returned or a *linage.DocumentParseError.
func (p *Parser) Parse(content []byte) (*linage.Tables, error) {
	reader, err := xmlstream.NewStringReader(bytes.NewReader(content))
	if err != nil {
		return nil, &linage.DocumentParseError{Reason: "cannot create reader", Err: err}
	}
	state := newState(p)
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, column := reader.CurrentPos()
			return nil, &linage.DocumentParseError{Line: line, Column: column, Reason: "malformed markup", Err: err}
		}
		switch ev.Kind {
		case xmlstream.EventStartElement:
			if state.rootClosed {
				return nil, &linage.DocumentParseError{Line: ev.Line, Column: ev.Column, Reason: "element after document end: " + ev.Name.Local}
			}
			state.start(ev.Name.Local, newAttributes(ev.Attrs))
		case xmlstream.EventEndElement:
			if len(state.stack) == 0 {
				return nil, &linage.DocumentParseError{Line: ev.Line, Column: ev.Column, Reason: "unbalanced end element: " + ev.Name.Local}
			}
			state.end()
		case xmlstream.EventCharData:
			state.text(ev.Text)
		}
	}
	if !state.rootSeen {
		return nil, &linage.DocumentParseError{Reason: "empty document"}
	}
	if len(state.stack) > 0 {
		line, column := reader.CurrentPos()
		return nil, &linage.DocumentParseError{Line: line, Column: column, Reason: "unexpected end of document: unclosed " + state.stack[len(state.stack)-1].name}
	}
	tables := state.tables()
	p.logger.Info("parsed workbook document",
		"dataSources", len(tables.DataSources),
		"originalFields", len(tables.OriginalFields),
		"calculatedFields", len(tables.CalculatedFields),
		"worksheets", len(tables.Worksheets),
		"dashboards", len(tables.Dashboards),
		"overwrittenDuplicates", tables.Diagnostics.OverwrittenDuplicates)
	return tables, nil
}

// attributes is a read-only view of element attributes keyed by local name
type attributes []xmlstream.StringAttr

func newAttributes(attrs []xmlstream.StringAttr) attributes {
	return attributes(attrs)
}

func (a attributes) get(name string) string {
	for _, attr := range a {
		if attr.LocalName() == name {
			return attr.Value()
		}
	}
	return ""
}

func (a attributes) has(name string) bool {
	for _, attr := range a {
		if attr.LocalName() == name {
			return true
		}
	}
	return false
}

// elementName strips feature-flag prefixes such as "_.fcp.ObjectModelEncapsulateLegacy.false...relation"
func elementName(local string) string {
	if strings.HasPrefix(local, "_.fcp.") {
		if idx := strings.LastIndex(local, "..."); idx >= 0 {
			return local[idx+3:]
		}
	}
	return local
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return linage.Unknown
	}
	return value
}

// hasEntry reports whether name, or its base name, is a known package entry
func (p *Parser) hasEntry(name string) bool {
	if p.auxiliary == nil {
		return false
	}
	key := normalizeEntry(name)
	return p.auxiliary[key] || p.auxiliary[path.Base(key)]
}
