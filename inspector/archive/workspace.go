package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hovinh/tableau-report-gen/analyzer/linage"
)

// Workspace is a per-invocation extraction directory.
// It is never shared between invocations; Close removes it.
type Workspace struct {
	Dir    string
	logger *slog.Logger
}

// Materialize copies every auxiliary entry of pkg into a new workspace.
// On failure the partially written workspace is removed before returning.
func (e *Extractor) Materialize(ctx context.Context, pkg *Package) (*Workspace, error) {
	base := e.tempDir
	if base == "" {
		base = os.TempDir()
	}
	workspace := &Workspace{
		Dir:    filepath.Join(base, "twbdag-"+uuid.NewString()),
		logger: e.logger,
	}
	if err := os.MkdirAll(workspace.Dir, 0o700); err != nil {
		return nil, &linage.ArchiveError{Location: pkg.Location, Reason: "cannot create workspace", Err: err}
	}
	e.logger.Debug("created workspace", "dir", workspace.Dir)
	for _, entry := range pkg.Auxiliary {
		if err := e.materializeEntry(ctx, pkg, workspace, entry); err != nil {
			_ = workspace.Close()
			return nil, &linage.ArchiveError{Location: pkg.Location, Reason: "cannot materialize " + entry.Name, Err: err}
		}
	}
	return workspace, nil
}

func (e *Extractor) materializeEntry(ctx context.Context, pkg *Package, workspace *Workspace, entry *Entry) error {
	file, ok := pkg.files[entry.Name]
	if !ok {
		return fmt.Errorf("entry %s not found", entry.Name)
	}
	target := filepath.Join(workspace.Dir, filepath.FromSlash(entry.Name))
	if rel, err := filepath.Rel(workspace.Dir, target); err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return fmt.Errorf("entry %s escapes workspace", entry.Name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return err
	}
	reader, err := file.Open()
	if err != nil {
		return err
	}
	defer reader.Close()
	if err = e.fs.Upload(ctx, target, 0o600, reader); err != nil {
		return err
	}
	entry.Path = target
	return nil
}

// Close removes the workspace directory and everything in it
func (w *Workspace) Close() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("failed to remove workspace %s: %w", w.Dir, err)
	}
	w.logger.Debug("removed workspace", "dir", w.Dir)
	return nil
}
