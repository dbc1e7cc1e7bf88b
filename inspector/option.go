package inspector

import (
	"log/slog"

	"github.com/viant/afs"
)

type Option func(*Factory)

// WithFs sets the storage service used to read workbook files
func WithFs(fs afs.Service) Option {
	return func(f *Factory) {
		f.fs = fs
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}
