package linage

import "sync"

// Tables holds the normalized metadata extracted from a workbook document.
// Tables are created in one parse pass and are read-only afterwards.
type Tables struct {
	Version          VersionInfo        `yaml:"version"`
	DataSources      []*DataSource      `yaml:"dataSources"`
	OriginalFields   []*OriginalField   `yaml:"originalFields"`
	CalculatedFields []*CalculatedField `yaml:"calculatedFields"`
	Worksheets       []*Worksheet       `yaml:"worksheets"`
	Dashboards       []*Dashboard       `yaml:"dashboards,omitempty"`
	Diagnostics      ParseDiagnostics   `yaml:"diagnostics"`

	once  sync.Once
	index *Index
}

// ParseDiagnostics collects non-fatal findings of the document parser
type ParseDiagnostics struct {
	// OverwrittenDuplicates counts field definitions replaced by a later (or ignored in favour of an earlier) definition
	OverwrittenDuplicates int       `yaml:"overwrittenDuplicates"`
	Duplicates            []FieldID `yaml:"duplicates,omitempty"`
}

// Index returns the lookup index over the tables
func (t *Tables) Index() *Index {
	t.once.Do(func() {
		t.index = NewIndex(t)
	})
	return t.index
}

// DataSource returns a data source by ID
func (t *Tables) DataSource(id string) *DataSource {
	return t.Index().DataSource(id)
}

// CalculatedField returns a calculated field by identity
func (t *Tables) CalculatedField(id FieldID) *CalculatedField {
	return t.Index().calculated[id]
}

// OriginalField returns an original field by identity
func (t *Tables) OriginalField(id FieldID) *OriginalField {
	return t.Index().original[id]
}

// Worksheet returns a worksheet by name
func (t *Tables) Worksheet(name string) *Worksheet {
	for _, ws := range t.Worksheets {
		if ws.Name == name {
			return ws
		}
	}
	return nil
}

// WorksheetNames returns worksheet names in document order
func (t *Tables) WorksheetNames() []string {
	result := make([]string, 0, len(t.Worksheets))
	for _, ws := range t.Worksheets {
		result = append(result, ws.Name)
	}
	return result
}
