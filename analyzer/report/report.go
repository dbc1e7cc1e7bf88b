// Package report assembles the presentation tables of an analyzed workbook.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Section is a row-oriented table; Empty explains why Rows is empty
type Section[T any] struct {
	Rows  []T    `yaml:"rows" json:"rows"`
	Empty string `yaml:"empty,omitempty" json:"empty,omitempty"`
}

func newSection[T any](rows []T, empty string) Section[T] {
	if len(rows) == 0 {
		return Section[T]{Rows: []T{}, Empty: empty}
	}
	return Section[T]{Rows: rows}
}

// Report is the aggregate consumed by presentation layers
type Report struct {
	Metadata    Metadata    `yaml:"metadata" json:"metadata"`
	Data        Data        `yaml:"data" json:"data"`
	Diagnostics Diagnostics `yaml:"diagnostics" json:"diagnostics"`
	Fingerprint string      `yaml:"fingerprint,omitempty" json:"fingerprint,omitempty"`
}

type Metadata struct {
	Version          Version                     `yaml:"version" json:"version"`
	CalculatedFields Section[CalculatedFieldRow] `yaml:"calculated_fields" json:"calculated_fields"`
	OriginalFields   Section[OriginalFieldRow]   `yaml:"original_fields" json:"original_fields"`
	Worksheets       Section[WorksheetRow]       `yaml:"worksheets" json:"worksheets"`
	Dashboards       Section[DashboardRow]       `yaml:"dashboards" json:"dashboards"`
}

type Data struct {
	DataSources Section[DataSourceRow] `yaml:"data_sources" json:"data_sources"`
}

type Version struct {
	Version        string `yaml:"Version" json:"Version"`
	SourcePlatform string `yaml:"Source Platform" json:"Source Platform"`
	SourceBuild    string `yaml:"Source Build" json:"Source Build"`
}

type CalculatedFieldRow struct {
	DataSourceID      string   `yaml:"Data Source ID" json:"Data Source ID"`
	DataSourceCaption string   `yaml:"Data Source Caption" json:"Data Source Caption"`
	FieldName         string   `yaml:"Field Name" json:"Field Name"`
	Caption           string   `yaml:"Caption" json:"Caption"`
	Formula           string   `yaml:"Formula" json:"Formula"`
	Datatype          string   `yaml:"Datatype" json:"Datatype"`
	Role              string   `yaml:"Role" json:"Role"`
	Dependencies      []string `yaml:"Dependencies" json:"Dependencies"`
	Unresolved        []string `yaml:"Unresolved,omitempty" json:"Unresolved,omitempty"`
}

type OriginalFieldRow struct {
	DataSourceID      string `yaml:"Data Source ID" json:"Data Source ID"`
	DataSourceCaption string `yaml:"Data Source Caption" json:"Data Source Caption"`
	FieldName         string `yaml:"Field Name" json:"Field Name"`
	Caption           string `yaml:"Caption" json:"Caption"`
	Datatype          string `yaml:"Datatype" json:"Datatype"`
	Role              string `yaml:"Role" json:"Role"`
	RemoteName        string `yaml:"Remote Name,omitempty" json:"Remote Name,omitempty"`
	Aggregation       string `yaml:"Aggregation,omitempty" json:"Aggregation,omitempty"`
}

type WorksheetRow struct {
	WorksheetName string `yaml:"Worksheet Name" json:"Worksheet Name"`
	ColumnName    string `yaml:"Column Name" json:"Column Name"`
	DataSource    string `yaml:"Data Source" json:"Data Source"`
	Datatype      string `yaml:"Datatype" json:"Datatype"`
	Role          string `yaml:"Role" json:"Role"`
}

type DashboardRow struct {
	DashboardName string `yaml:"Dashboard Name" json:"Dashboard Name"`
	WorksheetUsed string `yaml:"Worksheet Used" json:"Worksheet Used"`
}

type DataSourceRow struct {
	DataSourceID   string `yaml:"Data Source ID" json:"Data Source ID"`
	Caption        string `yaml:"Caption" json:"Caption"`
	Connection     string `yaml:"Connection" json:"Connection"`
	Server         string `yaml:"Server,omitempty" json:"Server,omitempty"`
	Database       string `yaml:"Database,omitempty" json:"Database,omitempty"`
	Filename       string `yaml:"Filename,omitempty" json:"Filename,omitempty"`
	ExtractFile    string `yaml:"Extract File,omitempty" json:"Extract File,omitempty"`
	ExtractPresent bool   `yaml:"Extract Present" json:"Extract Present"`
}

// Diagnostics surfaces non-fatal findings of parsing and resolution
type Diagnostics struct {
	OverwrittenDuplicates int        `yaml:"overwrittenDuplicates" json:"overwrittenDuplicates"`
	Duplicates            []string   `yaml:"duplicates,omitempty" json:"duplicates,omitempty"`
	UnresolvedReferences  int        `yaml:"unresolvedReferences" json:"unresolvedReferences"`
	Warnings              []string   `yaml:"warnings,omitempty" json:"warnings,omitempty"`
	SkippedUses           int        `yaml:"skippedUses,omitempty" json:"skippedUses,omitempty"`
	Cycles                [][]string `yaml:"cycles,omitempty" json:"cycles,omitempty"`
}

// Encode writes the report as yaml or json
func (r *Report) Encode(w io.Writer, format string) error {
	switch format {
	case "", "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return encoder.Close()
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	}
	return fmt.Errorf("unsupported report format: %q", format)
}
