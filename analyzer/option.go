package analyzer

import (
	"log/slog"
	"os"
	"strings"

	"github.com/hovinh/tableau-report-gen/config"
	"github.com/hovinh/tableau-report-gen/inspector"
	"github.com/viant/afs"
)

type Option func(*Analyzer)

func WithFs(fs afs.Service) Option {
	return func(a *Analyzer) {
		a.fs = fs
	}
}

// WithConfig sets analysis settings; nil keeps the defaults
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		if cfg != nil {
			a.config = cfg
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WorkbookFiles matches visible workbook packages and documents
func WorkbookFiles(info os.FileInfo) bool {
	if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
		return false
	}
	return inspector.Supported(info.Name())
}
