package archive

import (
	"log/slog"

	"github.com/hovinh/tableau-report-gen/config"
	"github.com/viant/afs"
)

type Option func(*Extractor)

// WithFs sets the storage service used to read packages and write workspaces
func WithFs(fs afs.Service) Option {
	return func(e *Extractor) {
		e.fs = fs
	}
}

// WithDocumentPolicy sets how packages with several candidate documents are treated
func WithDocumentPolicy(policy config.DocumentPolicy) Option {
	return func(e *Extractor) {
		e.policy = policy
	}
}

// WithLargeArchiveBytes sets the size above which a warning is logged
func WithLargeArchiveBytes(n int64) Option {
	return func(e *Extractor) {
		e.largeArchiveBytes = n
	}
}

// WithMaterialize copies auxiliary entries into a per-invocation workspace under tempDir
func WithMaterialize(tempDir string) Option {
	return func(e *Extractor) {
		e.materialize = true
		e.tempDir = tempDir
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithConfig applies the archive related settings of cfg
func WithConfig(cfg *config.Config) Option {
	return func(e *Extractor) {
		e.policy = cfg.MultipleDocuments
		e.largeArchiveBytes = cfg.LargeArchiveBytes
		if cfg.MaterializeExtracts {
			e.materialize = true
			e.tempDir = cfg.TempDir
		}
	}
}
