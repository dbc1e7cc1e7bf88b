// Package archive opens workbook packages (zip containers) and locates the embedded workbook document.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
	"github.com/hovinh/tableau-report-gen/config"
	"github.com/viant/afs"
)

// DocumentExt is the extension of the structured document inside a package
const DocumentExt = ".twb"

// Entry describes an auxiliary package entry (extracts, images, data files)
type Entry struct {
	Name           string    `yaml:"name"`
	Size           uint64    `yaml:"size"`
	CompressedSize uint64    `yaml:"compressedSize"`
	Modified       time.Time `yaml:"modified,omitempty"`
	// Path is set once the entry has been materialized to a workspace
	Path string `yaml:"path,omitempty"`
}

// Package represents an opened workbook package
type Package struct {
	Location     string
	DocumentName string
	Document     []byte
	Auxiliary    []*Entry
	files        map[string]*zip.File
}

// Entry returns an auxiliary entry by name; matching ignores a leading "./" and path case
func (p *Package) Entry(name string) *Entry {
	name = normalizeName(name)
	for _, entry := range p.Auxiliary {
		if strings.EqualFold(entry.Name, name) {
			return entry
		}
	}
	return nil
}

// Extractor opens workbook packages
type Extractor struct {
	fs                afs.Service
	policy            config.DocumentPolicy
	largeArchiveBytes int64
	tempDir           string
	materialize       bool
	logger            *slog.Logger
}

// New creates an extractor
func New(options ...Option) *Extractor {
	e := &Extractor{
		fs:     afs.New(),
		policy: config.DocumentFail,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Open reads the package at location and returns its document and auxiliary entries.
// Auxiliary entries are listed but not decoded.
func (e *Extractor) Open(ctx context.Context, location string) (*Package, error) {
	data, err := e.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, &linage.ArchiveError{Location: location, Reason: "cannot read package", Err: err}
	}
	if e.largeArchiveBytes > 0 && int64(len(data)) > e.largeArchiveBytes {
		e.logger.Warn("large workbook package", "location", location, "bytes", len(data), "threshold", e.largeArchiveBytes)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &linage.ArchiveError{Location: location, Reason: "invalid zip structure", Err: fmt.Errorf("%w: %v", linage.ErrNotArchive, err)}
	}

	pkg := &Package{Location: location, files: make(map[string]*zip.File, len(reader.File))}
	var topLevel, nested []*zip.File
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		name := normalizeName(file.Name)
		pkg.files[name] = file
		if strings.EqualFold(path.Ext(name), DocumentExt) {
			if strings.Contains(name, "/") {
				nested = append(nested, file)
			} else {
				topLevel = append(topLevel, file)
			}
			continue
		}
		pkg.Auxiliary = append(pkg.Auxiliary, newEntry(name, file))
	}

	document, err := e.selectDocument(location, topLevel, nested)
	if err != nil {
		return nil, err
	}
	for _, candidate := range append(topLevel, nested...) {
		if candidate != document {
			pkg.Auxiliary = append(pkg.Auxiliary, newEntry(normalizeName(candidate.Name), candidate))
		}
	}
	sort.Slice(pkg.Auxiliary, func(i, j int) bool { return pkg.Auxiliary[i].Name < pkg.Auxiliary[j].Name })

	pkg.DocumentName = normalizeName(document.Name)
	if pkg.Document, err = readFile(document); err != nil {
		return nil, &linage.ArchiveError{Location: location, Reason: "cannot read document entry " + pkg.DocumentName, Err: err}
	}
	if len(bytes.TrimSpace(pkg.Document)) == 0 {
		return nil, &linage.ArchiveError{Location: location, Reason: "document entry " + pkg.DocumentName + " is empty"}
	}
	e.logger.Info("extracted workbook document", "location", location, "document", pkg.DocumentName, "auxiliary", len(pkg.Auxiliary))
	return pkg, nil
}

// selectDocument prefers top-level documents; nested ones are used only when no top-level document exists
func (e *Extractor) selectDocument(location string, topLevel, nested []*zip.File) (*zip.File, error) {
	candidates := topLevel
	if len(candidates) == 0 {
		candidates = nested
	} else if len(nested) > 0 {
		e.logger.Warn("ignoring nested workbook documents", "location", location, "count", len(nested))
	}
	switch len(candidates) {
	case 0:
		return nil, &linage.ArchiveError{Location: location, Reason: "no " + DocumentExt + " entry", Err: linage.ErrNoDocument}
	case 1:
		return candidates[0], nil
	}
	names := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		names = append(names, candidate.Name)
	}
	if e.policy != config.DocumentFirst {
		return nil, &linage.ArchiveError{Location: location, Reason: "candidates " + strings.Join(names, ", "), Err: linage.ErrMultipleDocuments}
	}
	e.logger.Warn("multiple workbook documents, using the first", "location", location, "candidates", names)
	return candidates[0], nil
}

// With opens the package, materializes auxiliary entries when configured and calls fn.
// The workspace is removed on every exit path, including errors returned by fn.
func (e *Extractor) With(ctx context.Context, location string, fn func(ctx context.Context, pkg *Package) error) (err error) {
	pkg, err := e.Open(ctx, location)
	if err != nil {
		return err
	}
	if e.materialize {
		var workspace *Workspace
		if workspace, err = e.Materialize(ctx, pkg); err != nil {
			return err
		}
		defer func() {
			if cErr := workspace.Close(); cErr != nil && err == nil {
				err = cErr
			}
		}()
	}
	return fn(ctx, pkg)
}

func newEntry(name string, file *zip.File) *Entry {
	return &Entry{
		Name:           name,
		Size:           file.UncompressedSize64,
		CompressedSize: file.CompressedSize64,
		Modified:       file.Modified,
	}
}

func readFile(file *zip.File) ([]byte, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
