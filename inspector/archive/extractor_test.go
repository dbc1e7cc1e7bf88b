package archive

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/hovinh/tableau-report-gen/config"
	"github.com/stretchr/testify/assert"
)

type zipEntry struct {
	name    string
	content string
}

func writeZip(t *testing.T, entries ...zipEntry) string {
	t.Helper()
	location := filepath.Join(t.TempDir(), "workbook.twbx")
	file, err := os.Create(location)
	if err != nil {
		t.Fatal(err)
	}
	writer := zip.NewWriter(file)
	for _, entry := range entries {
		w, err := writer.Create(entry.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err = w.Write([]byte(entry.content)); err != nil {
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

func TestExtractor_Open(t *testing.T) {
	tests := []struct {
		description  string
		entries      []zipEntry
		options      []Option
		expectDoc    string
		expectAux    []string
		expectTarget error
	}{
		{
			description: "single document with extract",
			entries: []zipEntry{
				{name: "Sales.twb", content: "<workbook/>"},
				{name: "Data/Extracts/sales.hyper", content: "binary"},
			},
			expectDoc: "Sales.twb",
			expectAux: []string{"Data/Extracts/sales.hyper"},
		},
		{
			description: "top-level document preferred over nested one",
			entries: []zipEntry{
				{name: "Data/old/Copy.twb", content: "<workbook/>"},
				{name: "Main.twb", content: "<workbook version='18.1'/>"},
			},
			expectDoc: "Main.twb",
			expectAux: []string{"Data/old/Copy.twb"},
		},
		{
			description: "nested document used when no top-level one exists",
			entries: []zipEntry{
				{name: "folder/Only.TWB", content: "<workbook/>"},
			},
			expectDoc: "folder/Only.TWB",
		},
		{
			description:  "no document",
			entries:      []zipEntry{{name: "Data/x.hyper", content: "x"}},
			expectTarget: linage.ErrNoDocument,
		},
		{
			description: "multiple documents fail by default",
			entries: []zipEntry{
				{name: "A.twb", content: "<workbook/>"},
				{name: "B.twb", content: "<workbook/>"},
			},
			expectTarget: linage.ErrMultipleDocuments,
		},
		{
			description: "multiple documents with first policy",
			entries: []zipEntry{
				{name: "A.twb", content: "<workbook name='a'/>"},
				{name: "B.twb", content: "<workbook/>"},
			},
			options:   []Option{WithDocumentPolicy(config.DocumentFirst)},
			expectDoc: "A.twb",
			expectAux: []string{"B.twb"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			location := writeZip(t, tc.entries...)
			pkg, err := New(tc.options...).Open(context.Background(), location)
			if tc.expectTarget != nil {
				assert.True(t, errors.Is(err, tc.expectTarget), err)
				var archiveErr *linage.ArchiveError
				assert.True(t, errors.As(err, &archiveErr))
				return
			}
			if !assert.Nil(t, err) {
				return
			}
			assert.Equal(t, tc.expectDoc, pkg.DocumentName)
			assert.NotEmpty(t, pkg.Document)
			var aux []string
			for _, entry := range pkg.Auxiliary {
				aux = append(aux, entry.Name)
			}
			assert.Equal(t, tc.expectAux, aux)
		})
	}
}

func TestExtractor_Open_NotArchive(t *testing.T) {
	location := filepath.Join(t.TempDir(), "broken.twbx")
	assert.Nil(t, os.WriteFile(location, []byte("definitely not a zip"), 0o644))

	_, err := New().Open(context.Background(), location)
	assert.True(t, errors.Is(err, linage.ErrNotArchive), err)
}

func TestExtractor_Open_EmptyDocument(t *testing.T) {
	location := writeZip(t, zipEntry{name: "Empty.twb", content: "  \n"})
	_, err := New().Open(context.Background(), location)
	var archiveErr *linage.ArchiveError
	assert.True(t, errors.As(err, &archiveErr), err)
}

func TestExtractor_With_CleansUpOnFailure(t *testing.T) {
	location := writeZip(t,
		zipEntry{name: "Sales.twb", content: "<workbook/>"},
		zipEntry{name: "Data/Extracts/sales.hyper", content: "binary"},
	)
	tempDir := t.TempDir()
	extractor := New(WithMaterialize(tempDir))

	var materialized string
	parseErr := errors.New("parse failed")
	err := extractor.With(context.Background(), location, func(ctx context.Context, pkg *Package) error {
		entry := pkg.Entry("./Data/Extracts/sales.hyper")
		if !assert.NotNil(t, entry) {
			return parseErr
		}
		materialized = entry.Path
		content, readErr := os.ReadFile(materialized)
		assert.Nil(t, readErr)
		assert.Equal(t, "binary", string(content))
		return parseErr
	})
	assert.Equal(t, parseErr, err)
	assert.NotEmpty(t, materialized)
	_, statErr := os.Stat(materialized)
	assert.True(t, os.IsNotExist(statErr), "workspace must be removed")

	entries, readErr := os.ReadDir(tempDir)
	assert.Nil(t, readErr)
	assert.Empty(t, entries)
}

func TestExtractor_Materialize_UniqueWorkspaces(t *testing.T) {
	location := writeZip(t, zipEntry{name: "Sales.twb", content: "<workbook/>"})
	extractor := New(WithMaterialize(t.TempDir()))
	pkg, err := extractor.Open(context.Background(), location)
	assert.Nil(t, err)

	first, err := extractor.Materialize(context.Background(), pkg)
	assert.Nil(t, err)
	second, err := extractor.Materialize(context.Background(), pkg)
	assert.Nil(t, err)
	assert.NotEqual(t, first.Dir, second.Dir)
	assert.Nil(t, first.Close())
	assert.Nil(t, second.Close())
}
