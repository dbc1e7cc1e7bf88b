package report

import (
	"fmt"

	"github.com/hovinh/tableau-report-gen/analyzer/graph"
	"github.com/hovinh/tableau-report-gen/analyzer/linage"
)

const (
	noDataSource = "No Data Source"
	none         = "None"
	notAvailable = "N/A"
)

var fingerprint = (*linage.Tables).Fingerprint

// Assemble joins the tables with data source captions and formula resolutions.
// builder supplies resolutions; diagnostics come from a whole-workbook graph build.
func Assemble(tables *linage.Tables, builder *graph.Builder, diagnostics graph.Diagnostics) *Report {
	r := &Report{}
	r.Metadata.Version = Version{
		Version:        tables.Version.Version,
		SourcePlatform: tables.Version.SourcePlatform,
		SourceBuild:    tables.Version.SourceBuild,
	}

	var calculated []CalculatedFieldRow
	for _, field := range tables.CalculatedFields {
		row := CalculatedFieldRow{
			DataSourceID:      field.DataSource,
			DataSourceCaption: dataSourceCaption(tables, field.DataSource),
			FieldName:         field.Name,
			Caption:           field.DisplayName(),
			Formula:           field.Formula,
			Datatype:          field.DataType,
			Role:              field.Role,
			Dependencies:      []string{},
		}
		resolution := builder.Resolution(field)
		for _, ref := range resolution.References {
			row.Dependencies = append(row.Dependencies, ref.Field.String())
		}
		for _, item := range resolution.Unresolved {
			row.Unresolved = append(row.Unresolved, item.Token)
		}
		calculated = append(calculated, row)
	}
	r.Metadata.CalculatedFields = newSection(calculated, "No calculated fields found.")

	var original []OriginalFieldRow
	for _, field := range tables.OriginalFields {
		original = append(original, OriginalFieldRow{
			DataSourceID:      field.DataSource,
			DataSourceCaption: dataSourceCaption(tables, field.DataSource),
			FieldName:         field.Name,
			Caption:           field.DisplayName(),
			Datatype:          field.DataType,
			Role:              field.Role,
			RemoteName:        field.RemoteName,
			Aggregation:       field.Aggregation,
		})
	}
	r.Metadata.OriginalFields = newSection(original, "No original fields found.")

	var worksheets []WorksheetRow
	for _, ws := range tables.Worksheets {
		worksheets = append(worksheets, worksheetRows(tables, ws)...)
	}
	r.Metadata.Worksheets = newSection(worksheets, "No worksheets found.")

	var dashboards []DashboardRow
	for _, dashboard := range tables.Dashboards {
		for _, name := range dashboard.Worksheets {
			dashboards = append(dashboards, DashboardRow{DashboardName: dashboard.Name, WorksheetUsed: name})
		}
	}
	r.Metadata.Dashboards = newSection(dashboards, "No dashboards found.")

	var dataSources []DataSourceRow
	for _, ds := range tables.DataSources {
		dataSources = append(dataSources, DataSourceRow{
			DataSourceID:   ds.ID,
			Caption:        ds.DisplayName(),
			Connection:     ds.Connection.Class,
			Server:         ds.Connection.Server,
			Database:       ds.Connection.Database,
			Filename:       ds.Connection.Filename,
			ExtractFile:    ds.ExtractFile,
			ExtractPresent: ds.ExtractPresent,
		})
	}
	r.Data.DataSources = newSection(dataSources, "No data sources found.")

	r.Diagnostics = Diagnostics{
		OverwrittenDuplicates: tables.Diagnostics.OverwrittenDuplicates,
		UnresolvedReferences:  diagnostics.UnresolvedReferences,
		SkippedUses:           diagnostics.SkippedUses,
	}
	for _, id := range tables.Diagnostics.Duplicates {
		r.Diagnostics.Duplicates = append(r.Diagnostics.Duplicates, id.String())
	}
	for _, warning := range diagnostics.Warnings {
		r.Diagnostics.Warnings = append(r.Diagnostics.Warnings, warning.String())
	}
	for _, cycle := range diagnostics.Cycles {
		members := make([]string, 0, len(cycle))
		for _, ref := range cycle {
			members = append(members, string(ref))
		}
		r.Diagnostics.Cycles = append(r.Diagnostics.Cycles, members)
	}
	sum, err := fingerprint(tables)
	if err != nil {
		r.Diagnostics.Warnings = append(r.Diagnostics.Warnings, fmt.Sprintf("fingerprint unavailable: %v", err))
	}
	r.Fingerprint = sum
	return r
}

// worksheetRows lists field uses; a worksheet without any yields one explicit placeholder row
func worksheetRows(tables *linage.Tables, ws *linage.Worksheet) []WorksheetRow {
	if len(ws.Uses) == 0 {
		return []WorksheetRow{{WorksheetName: ws.Name, ColumnName: noDataSource, DataSource: none, Datatype: notAvailable, Role: notAvailable}}
	}
	var rows []WorksheetRow
	seen := make(map[linage.FieldID]bool, len(ws.Uses))
	for _, use := range ws.Uses {
		if seen[use.FieldID] {
			continue
		}
		seen[use.FieldID] = true
		row := WorksheetRow{
			WorksheetName: ws.Name,
			ColumnName:    use.Caption,
			DataSource:    dataSourceCaption(tables, use.DataSource),
			Datatype:      use.DataType,
			Role:          use.Role,
		}
		if row.ColumnName == "" {
			row.ColumnName = use.Name
		}
		if field := tables.CalculatedField(use.FieldID); field != nil {
			row.ColumnName = field.DisplayName()
			row.Datatype = orDefault(row.Datatype, field.DataType)
			row.Role = orDefault(row.Role, field.Role)
		} else if field := tables.OriginalField(use.FieldID); field != nil {
			row.ColumnName = field.DisplayName()
			row.Datatype = orDefault(row.Datatype, field.DataType)
			row.Role = orDefault(row.Role, field.Role)
		}
		rows = append(rows, row)
	}
	return rows
}

func dataSourceCaption(tables *linage.Tables, id string) string {
	if ds := tables.DataSource(id); ds != nil {
		return ds.DisplayName()
	}
	return linage.UnknownSource
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
