package document

import (
	"strings"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/hovinh/tableau-report-gen/config"
)

// scope classifies an element for the columns and records nested in it
type scope int

const (
	scopeNone scope = iota
	scopeDataSource
	scopeDependencies
	scopeOpaque // physical columns of connections and relations
	scopeWorksheet
	scopeDashboard
)

type frame struct {
	name  string
	scope scope
	onEnd func()
	text  *strings.Builder
}

// elementHandler is invoked on a start element; it may configure the pushed frame
type elementHandler func(s *state, f *frame, attrs attributes)

var handlers = map[string]elementHandler{
	"workbook":                (*state).openWorkbook,
	"datasource":              (*state).openDataSource,
	"connection":              (*state).openConnection,
	"relation":                (*state).openOpaque,
	"extract":                 (*state).openOpaque,
	"metadata-record":         (*state).openMetadataRecord,
	"column":                  (*state).openColumn,
	"calculation":             (*state).openCalculation,
	"alias":                   (*state).openAlias,
	"column-instance":         (*state).openColumnInstance,
	"worksheet":               (*state).openWorksheet,
	"datasource-dependencies": (*state).openDependencies,
	"dashboard":               (*state).openDashboard,
	"zone":                    (*state).openZone,
}

type state struct {
	parser      *Parser
	stack       []*frame
	rootSeen    bool
	rootClosed  bool
	version     linage.VersionInfo
	dataSources []*dataSourceBuilder
	byID        map[string]*dataSourceBuilder
	worksheets  []*linage.Worksheet
	dashboards  []*linage.Dashboard
	diagnostics linage.ParseDiagnostics

	dataSource *dataSourceBuilder
	column     *columnBuilder
	record     *recordBuilder
	worksheet  *linage.Worksheet
	dependency string
	dashboard  *linage.Dashboard
	zones      map[string]bool
}

func newState(p *Parser) *state {
	return &state{
		parser: p,
		byID:   make(map[string]*dataSourceBuilder),
	}
}

func (s *state) start(local string, attrs attributes) {
	name := elementName(local)
	f := &frame{name: name}
	if len(s.stack) == 0 {
		s.rootSeen = true
	}
	if handler, ok := handlers[name]; ok {
		handler(s, f, attrs)
	} else if s.record != nil && s.parent() == "metadata-record" {
		f.text = &strings.Builder{}
		record := s.record
		f.onEnd = func() { record.values[name] = strings.TrimSpace(f.text.String()) }
	}
	s.stack = append(s.stack, f)
}

func (s *state) end() {
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	if f.onEnd != nil {
		f.onEnd()
	}
	if len(s.stack) == 0 {
		s.rootClosed = true
	}
}

func (s *state) text(data []byte) {
	if len(s.stack) == 0 {
		return
	}
	if f := s.stack[len(s.stack)-1]; f.text != nil {
		f.text.Write(data)
	}
}

// parent returns the name of the enclosing element
func (s *state) parent() string {
	if len(s.stack) == 0 {
		return ""
	}
	return s.stack[len(s.stack)-1].name
}

// nearest returns the closest enclosing non-none scope
func (s *state) nearest() scope {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].scope != scopeNone {
			return s.stack[i].scope
		}
	}
	return scopeNone
}

func (s *state) openWorkbook(_ *frame, attrs attributes) {
	if len(s.stack) != 0 {
		return
	}
	s.version = linage.VersionInfo{
		Version:        orUnknown(attrs.get("version")),
		SourcePlatform: orUnknown(attrs.get("source-platform")),
		SourceBuild:    orUnknown(attrs.get("source-build")),
	}
}

// openDataSource starts a definition for <workbook><datasources><datasource>; other datasource elements are references
func (s *state) openDataSource(f *frame, attrs attributes) {
	if len(s.stack) != 2 || s.parent() != "datasources" {
		return
	}
	id := attrs.get("name")
	if id == "" {
		id = attrs.get("caption")
	}
	builder, ok := s.byID[id]
	if !ok {
		builder = newDataSourceBuilder(&linage.DataSource{
			ID:          id,
			Caption:     attrs.get("caption"),
			Version:     attrs.get("version"),
			Inline:      attrs.get("inline") == "true",
			ExtractFile: attrs.get("file"),
		})
		s.byID[id] = builder
		s.dataSources = append(s.dataSources, builder)
	}
	s.dataSource = builder
	f.scope = scopeDataSource
	f.onEnd = func() { s.dataSource = nil }
}

func (s *state) openConnection(f *frame, attrs attributes) {
	f.scope = scopeOpaque
	if s.dataSource == nil {
		return
	}
	conn := &s.dataSource.record.Connection
	class := attrs.get("class")
	switch s.parent() {
	case "datasource":
		conn.Class = class
		if isExtractClass(class) && s.dataSource.record.ExtractFile == "" {
			s.dataSource.record.ExtractFile = attrs.get("dbname")
		}
	case "extract":
		if db := attrs.get("dbname"); db != "" && s.dataSource.record.ExtractFile == "" {
			s.dataSource.record.ExtractFile = db
		}
		return
	default:
		if class != "" {
			conn.Named = append(conn.Named, class)
		}
	}
	if conn.Server == "" {
		conn.Server = attrs.get("server")
	}
	if conn.Database == "" {
		conn.Database = attrs.get("dbname")
	}
	if conn.Filename == "" {
		conn.Filename = attrs.get("filename")
	}
	if conn.Username == "" {
		conn.Username = attrs.get("username")
	}
}

func (s *state) openOpaque(f *frame, _ attributes) {
	f.scope = scopeOpaque
}

func (s *state) openMetadataRecord(f *frame, attrs attributes) {
	if s.dataSource == nil || attrs.get("class") != "column" {
		return
	}
	s.record = &recordBuilder{values: make(map[string]string)}
	f.onEnd = func() {
		if s.dataSource != nil {
			s.dataSource.addRecord(s.record)
		}
		s.record = nil
	}
}

func (s *state) openColumn(f *frame, attrs attributes) {
	switch s.nearest() {
	case scopeDataSource:
		if s.dataSource == nil || s.parent() != "datasource" {
			return
		}
		s.column = &columnBuilder{
			name:     linage.Unbracket(attrs.get("name")),
			caption:  attrs.get("caption"),
			dataType: attrs.get("datatype"),
			role:     attrs.get("role"),
			kind:     attrs.get("type"),
		}
		f.onEnd = func() {
			if s.dataSource != nil && s.column != nil && s.column.name != "" {
				s.addColumn(s.column)
			}
			s.column = nil
		}
	case scopeDependencies:
		if s.worksheet == nil {
			return
		}
		s.addUse(attrs.get("name"), attrs)
	}
}

func (s *state) openCalculation(_ *frame, attrs attributes) {
	if s.column == nil || s.parent() != "column" {
		return
	}
	if attrs.has("formula") {
		s.column.hasFormula = true
		s.column.formula = attrs.get("formula")
	}
	s.column.class = attrs.get("class")
}

func (s *state) openAlias(_ *frame, attrs attributes) {
	if s.column == nil || s.column.alias != "" {
		return
	}
	s.column.alias = attrs.get("value")
}

func (s *state) openColumnInstance(_ *frame, attrs attributes) {
	if s.nearest() != scopeDependencies || s.worksheet == nil {
		return
	}
	s.addUse(attrs.get("column"), nil)
}

func (s *state) openWorksheet(f *frame, attrs attributes) {
	if s.parent() != "worksheets" {
		return
	}
	s.worksheet = &linage.Worksheet{Name: attrs.get("name")}
	f.scope = scopeWorksheet
	f.onEnd = func() {
		s.worksheets = append(s.worksheets, s.worksheet)
		s.worksheet = nil
	}
}

func (s *state) openDependencies(f *frame, attrs attributes) {
	if s.nearest() != scopeWorksheet {
		f.scope = scopeOpaque
		return
	}
	s.dependency = attrs.get("datasource")
	f.scope = scopeDependencies
	f.onEnd = func() { s.dependency = "" }
}

func (s *state) openDashboard(f *frame, attrs attributes) {
	if s.parent() != "dashboards" {
		return
	}
	s.dashboard = &linage.Dashboard{Name: attrs.get("name")}
	s.zones = make(map[string]bool)
	f.scope = scopeDashboard
	f.onEnd = func() {
		s.dashboards = append(s.dashboards, s.dashboard)
		s.dashboard = nil
		s.zones = nil
	}
}

func (s *state) openZone(_ *frame, attrs attributes) {
	if s.dashboard == nil {
		return
	}
	name := attrs.get("name")
	if name == "" || s.zones[name] {
		return
	}
	s.zones[name] = true
	s.dashboard.Worksheets = append(s.dashboard.Worksheets, name)
}

// addUse records a worksheet field dependency; attrs is nil for column instances
func (s *state) addUse(bracketed string, attrs attributes) {
	name := linage.Unbracket(bracketed)
	if name == "" {
		return
	}
	use := &linage.FieldUse{FieldID: linage.FieldID{DataSource: s.dependency, Name: name}}
	if attrs != nil {
		use.Caption = attrs.get("caption")
		use.DataType = attrs.get("datatype")
		use.Role = attrs.get("role")
	}
	s.worksheet.Uses = append(s.worksheet.Uses, use)
}

// addColumn applies the duplicate policy to a <column> definition
func (s *state) addColumn(column *columnBuilder) {
	ds := s.dataSource
	entry, exists := ds.entries[column.name]
	if exists && entry.defined {
		id := linage.FieldID{DataSource: ds.record.ID, Name: column.name}
		s.diagnostics.OverwrittenDuplicates++
		s.diagnostics.Duplicates = append(s.diagnostics.Duplicates, id)
		s.parser.logger.Warn("duplicate field definition", "field", id.String(), "policy", string(s.parser.duplicates))
		if s.parser.duplicates == config.FirstWins {
			return
		}
	}
	if !exists {
		entry = &fieldEntry{}
		ds.entries[column.name] = entry
		ds.order = append(ds.order, column.name)
	}
	entry.defined = true
	entry.apply(ds.record.ID, column)
}

func (s *state) tables() *linage.Tables {
	result := &linage.Tables{
		Version:          s.version,
		DataSources:      []*linage.DataSource{},
		OriginalFields:   []*linage.OriginalField{},
		CalculatedFields: []*linage.CalculatedField{},
		Worksheets:       []*linage.Worksheet{},
		Diagnostics:      s.diagnostics,
	}
	for _, ds := range s.dataSources {
		if ds.record.ExtractFile != "" {
			ds.record.ExtractPresent = s.parser.hasEntry(ds.record.ExtractFile)
		}
		result.DataSources = append(result.DataSources, ds.record)
		for _, name := range ds.order {
			entry := ds.entries[name]
			if entry.calculated != nil {
				result.CalculatedFields = append(result.CalculatedFields, entry.calculated)
				continue
			}
			result.OriginalFields = append(result.OriginalFields, entry.original)
		}
	}
	result.Worksheets = append(result.Worksheets, s.worksheets...)
	known := make(map[string]bool, len(s.worksheets))
	for _, ws := range s.worksheets {
		known[ws.Name] = true
	}
	for _, dashboard := range s.dashboards {
		var sheets []string
		for _, name := range dashboard.Worksheets {
			if known[name] {
				sheets = append(sheets, name)
			}
		}
		dashboard.Worksheets = sheets
		result.Dashboards = append(result.Dashboards, dashboard)
	}
	return result
}
