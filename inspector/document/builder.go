package document

import (
	"path"
	"strings"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
)

type dataSourceBuilder struct {
	record  *linage.DataSource
	entries map[string]*fieldEntry
	order   []string // field names by first appearance
}

func newDataSourceBuilder(record *linage.DataSource) *dataSourceBuilder {
	return &dataSourceBuilder{record: record, entries: make(map[string]*fieldEntry)}
}

// addRecord registers a physical column described by a metadata record.
// Records never count as duplicates; a later <column> definition enriches them.
func (b *dataSourceBuilder) addRecord(record *recordBuilder) {
	name := linage.Unbracket(record.values["local-name"])
	if name == "" {
		return
	}
	entry, ok := b.entries[name]
	if !ok {
		entry = &fieldEntry{}
		b.entries[name] = entry
		b.order = append(b.order, name)
	}
	if entry.remoteName == "" {
		entry.remoteName = record.values["remote-name"]
	}
	if entry.aggregation == "" {
		entry.aggregation = record.values["aggregation"]
	}
	if entry.localType == "" {
		entry.localType = record.values["local-type"]
	}
	if entry.original != nil && entry.original.RemoteName == "" {
		entry.original.RemoteName = entry.remoteName
	}
	if entry.original == nil && entry.calculated == nil {
		entry.original = &linage.OriginalField{
			FieldID:     linage.FieldID{DataSource: b.record.ID, Name: name},
			DataType:    entry.localType,
			RemoteName:  entry.remoteName,
			Aggregation: entry.aggregation,
		}
	}
}

type recordBuilder struct {
	values map[string]string
}

type columnBuilder struct {
	name       string
	caption    string
	dataType   string
	role       string
	kind       string
	hasFormula bool
	formula    string
	class      string
	alias      string
}

// fieldEntry is the single record kept per field name within a data source
type fieldEntry struct {
	defined     bool
	remoteName  string
	aggregation string
	localType   string
	original    *linage.OriginalField
	calculated  *linage.CalculatedField
}

// apply replaces the entry with column; a blank formula leaves the field original
func (e *fieldEntry) apply(dataSource string, column *columnBuilder) {
	id := linage.FieldID{DataSource: dataSource, Name: column.name}
	if column.hasFormula && strings.TrimSpace(column.formula) != "" {
		e.original = nil
		e.calculated = &linage.CalculatedField{
			FieldID:  id,
			Caption:  column.caption,
			Formula:  column.formula,
			Class:    column.class,
			DataType: column.dataType,
			Role:     column.role,
			Type:     column.kind,
			Alias:    column.alias,
		}
		return
	}
	dataType := column.dataType
	if dataType == "" {
		dataType = e.localType
	}
	e.calculated = nil
	e.original = &linage.OriginalField{
		FieldID:     id,
		Caption:     column.caption,
		DataType:    dataType,
		Role:        column.role,
		Type:        column.kind,
		RemoteName:  e.remoteName,
		Aggregation: e.aggregation,
	}
}

// normalizeEntry maps a package entry or extract reference onto a comparable key
func normalizeEntry(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.ToLower(strings.TrimPrefix(path.Clean("/"+name), "/"))
}

// isExtractClass reports connection classes backed by an extract file
func isExtractClass(class string) bool {
	return class == "hyper" || class == "dataengine"
}
