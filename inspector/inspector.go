// Package inspector selects how a workbook file is read: as a package or as a bare document.
package inspector

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/hovinh/tableau-report-gen/config"
	"github.com/hovinh/tableau-report-gen/inspector/archive"
	"github.com/hovinh/tableau-report-gen/inspector/document"
	"github.com/viant/afs"
)

const (
	PackageExt  = ".twbx"
	DocumentExt = archive.DocumentExt
)

// Inspection is the parsed content of one workbook file
type Inspection struct {
	Location     string
	DocumentName string
	Tables       *linage.Tables
	Auxiliary    []*archive.Entry
}

// Inspector reads a workbook file into tables
type Inspector interface {
	// InspectFile reads and parses the workbook at location
	InspectFile(ctx context.Context, location string) (*Inspection, error)
}

// Factory creates inspectors based on file extension
type Factory struct {
	config *config.Config
	fs     afs.Service
	logger *slog.Logger
}

// NewFactory creates an inspector factory; a nil config uses the defaults
func NewFactory(cfg *config.Config, options ...Option) *Factory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	f := &Factory{
		config: cfg,
		fs:     afs.New(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Supported returns true for workbook packages and documents
func Supported(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case PackageExt, DocumentExt:
		return true
	}
	return false
}

// GetInspector returns an appropriate inspector based on file extension
func (f *Factory) GetInspector(filename string) (Inspector, error) {
	switch ext := strings.ToLower(path.Ext(filename)); ext {
	case PackageExt:
		return &packageInspector{factory: f}, nil
	case DocumentExt:
		return &documentInspector{factory: f}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %q", ext)
	}
}

// InspectFile is a convenience method that gets the appropriate inspector and inspects the file
func (f *Factory) InspectFile(ctx context.Context, filename string) (*Inspection, error) {
	inspector, err := f.GetInspector(filename)
	if err != nil {
		return nil, err
	}
	return inspector.InspectFile(ctx, filename)
}

func (f *Factory) parser(options ...document.Option) *document.Parser {
	return document.New(append([]document.Option{document.WithConfig(f.config), document.WithLogger(f.logger)}, options...)...)
}

// packageInspector extracts the document of a zip package; the workspace is released before returning
type packageInspector struct {
	factory *Factory
}

func (i *packageInspector) InspectFile(ctx context.Context, location string) (*Inspection, error) {
	extractor := archive.New(
		archive.WithFs(i.factory.fs),
		archive.WithConfig(i.factory.config),
		archive.WithLogger(i.factory.logger),
	)
	var result *Inspection
	err := extractor.With(ctx, location, func(ctx context.Context, pkg *archive.Package) error {
		names := make([]string, 0, len(pkg.Auxiliary))
		for _, entry := range pkg.Auxiliary {
			names = append(names, entry.Name)
		}
		tables, err := i.factory.parser(document.WithAuxiliary(names...)).Parse(pkg.Document)
		if err != nil {
			return err
		}
		result = &Inspection{Location: location, DocumentName: pkg.DocumentName, Tables: tables, Auxiliary: pkg.Auxiliary}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type documentInspector struct {
	factory *Factory
}

func (i *documentInspector) InspectFile(ctx context.Context, location string) (*Inspection, error) {
	content, err := i.factory.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", location, err)
	}
	tables, err := i.factory.parser().Parse(content)
	if err != nil {
		return nil, err
	}
	return &Inspection{Location: location, DocumentName: path.Base(location), Tables: tables}, nil
}
