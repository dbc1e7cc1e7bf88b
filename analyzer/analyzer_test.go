package analyzer

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hovinh/tableau-report-gen/analyzer/graph"
	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/hovinh/tableau-report-gen/config"
	"github.com/stretchr/testify/assert"
)

const workbook = `<?xml version='1.0' encoding='utf-8' ?>
<workbook version='18.1' source-platform='win' source-build='2023.1.0'>
  <datasources>
    <datasource name='federated.a' caption='Superstore'>
      <connection class='federated'/>
      <column name='[Sales]' datatype='real' role='measure'/>
      <column name='[Profit]' datatype='real' role='measure'/>
      <column name='[Region]' datatype='string' role='dimension'/>
      <column name='[Calculation_1]' caption='Profit Ratio' datatype='real' role='measure'>
        <calculation class='tableau' formula='SUM([Profit])/SUM([Sales])'/>
      </column>
      <column name='[Running Total]' datatype='real' role='measure'>
        <calculation class='tableau' formula='IF [Running Total] &gt; 0 THEN [Running Total] ELSE 0 END'/>
      </column>
      <column name='[Broken]' datatype='real' role='measure'>
        <calculation class='tableau' formula='[Nonexistent Field] + [DSx].[Sales]'/>
      </column>
    </datasource>
  </datasources>
  <worksheets>
    <worksheet name='Ratio'>
      <table><view>
        <datasource-dependencies datasource='federated.a'>
          <column-instance column='[Calculation_1]' name='[usr:Calculation_1:qk]'/>
        </datasource-dependencies>
      </view></table>
    </worksheet>
    <worksheet name='Regions'>
      <table><view>
        <datasource-dependencies datasource='federated.a'>
          <column name='[Region]' datatype='string' role='dimension'/>
        </datasource-dependencies>
      </view></table>
    </worksheet>
  </worksheets>
</workbook>`

func writeWorkbook(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	location := filepath.Join(dir, name)
	assert.Nil(t, os.MkdirAll(filepath.Dir(location), 0o755))
	file, err := os.Create(location)
	if err != nil {
		t.Fatal(err)
	}
	writer := zip.NewWriter(file)
	for entry, content := range entries {
		w, err := writer.Create(entry)
		if err != nil {
			t.Fatal(err)
		}
		if _, err = w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err = writer.Close(); err != nil {
		t.Fatal(err)
	}
	if err = file.Close(); err != nil {
		t.Fatal(err)
	}
	return location
}

type recordingExporter struct {
	graphs []*graph.Graph
}

func (r *recordingExporter) Export(ctx context.Context, g *graph.Graph) error {
	r.graphs = append(r.graphs, g)
	return nil
}

func TestAnalyzer_AnalyzeFile(t *testing.T) {
	location := writeWorkbook(t, t.TempDir(), "Superstore.twbx", map[string]string{"Superstore.twb": workbook})
	exporter := &recordingExporter{}
	result, err := New(WithGraphExporter(exporter)).AnalyzeFile(context.Background(), location)
	if !assert.Nil(t, err) {
		return
	}
	assert.Equal(t, "Superstore.twb", result.DocumentName)
	assert.Equal(t, "18.1", result.Report.Metadata.Version.Version)
	assert.Len(t, result.Report.Metadata.CalculatedFields.Rows, 3)
	assert.Len(t, result.Report.Metadata.OriginalFields.Rows, 3)
	assert.Equal(t, 2, result.Report.Diagnostics.UnresolvedReferences)
	assert.Equal(t, [][]string{{"[federated.a].[Running Total]"}}, result.Report.Diagnostics.Cycles)
	assert.Len(t, exporter.graphs, 1)
	assert.Same(t, result.Graph, exporter.graphs[0])

	self := linage.MakeFieldRef("federated.a", "Running Total")
	assert.True(t, result.Graph.HasEdge(self, self))
}

func TestResult_WorksheetGraph(t *testing.T) {
	result, err := New().AnalyzeDocument(context.Background(), "Superstore.twb", []byte(workbook))
	if !assert.Nil(t, err) {
		return
	}
	tests := []struct {
		description string
		worksheet   string
		expectNodes []string
	}{
		{
			description: "transitive fields of a calculated field",
			worksheet:   "Ratio",
			expectNodes: []string{"[federated.a]", "[federated.a].[Sales]", "[federated.a].[Profit]", "[federated.a].[Calculation_1]"},
		},
		{
			description: "single original field",
			worksheet:   "Regions",
			expectNodes: []string{"[federated.a]", "[federated.a].[Region]"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			view, err := result.WorksheetGraph(tc.worksheet)
			if !assert.Nil(t, err) {
				return
			}
			var nodes []string
			for _, node := range view.Nodes {
				nodes = append(nodes, string(node.ID))
			}
			assert.Equal(t, tc.expectNodes, nodes)

			again, err := result.WorksheetGraph(tc.worksheet)
			assert.Nil(t, err)
			assert.Same(t, view, again)
		})
	}

	whole, err := result.WorksheetGraph("")
	assert.Nil(t, err)
	assert.Same(t, result.Graph, whole)

	_, err = result.WorksheetGraph("Missing")
	assert.True(t, errors.Is(err, linage.ErrWorksheetNotFound))
}

func TestAnalyzer_AnalyzeFile_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		description string
		location    string
		expectAs    func(err error) bool
	}{
		{
			description: "no document in package",
			location:    writeWorkbook(t, dir, "Empty.twbx", map[string]string{"Data/x.hyper": "x"}),
			expectAs: func(err error) bool {
				var target *linage.ArchiveError
				return errors.As(err, &target) && errors.Is(err, linage.ErrNoDocument)
			},
		},
		{
			description: "malformed document",
			location:    writeWorkbook(t, dir, "Broken.twbx", map[string]string{"Broken.twb": "<workbook><datasources></workbook>"}),
			expectAs: func(err error) bool {
				var target *linage.DocumentParseError
				return errors.As(err, &target)
			},
		},
		{
			description: "unsupported extension",
			location:    filepath.Join(dir, "notes.txt"),
			expectAs:    func(err error) bool { return err != nil },
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			result, err := New().AnalyzeFile(context.Background(), tc.location)
			assert.Nil(t, result)
			assert.True(t, tc.expectAs(err), err)
		})
	}
}

func TestAnalyzer_AnalyzeDir(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "a/Superstore.twbx", map[string]string{"Superstore.twb": workbook})
	writeWorkbook(t, dir, "b/Broken.twbx", map[string]string{"Broken.twb": "<workbook>"})
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "b", "Plain.twb"), []byte(workbook), 0o644))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# workbooks"), 0o644))

	cfg := config.DefaultConfig()
	results, err := New(WithConfig(cfg)).AnalyzeDir(context.Background(), dir)
	var parseErr *linage.DocumentParseError
	assert.True(t, errors.As(err, &parseErr), err)
	var names []string
	for _, result := range results {
		names = append(names, result.DocumentName)
	}
	assert.Equal(t, []string{"Superstore.twb", "Plain.twb"}, names)
}
