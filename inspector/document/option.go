package document

import (
	"log/slog"
	"path"

	"github.com/hovinh/tableau-report-gen/config"
)

type Option func(*Parser)

// WithDuplicatePolicy sets which definition wins for duplicate field names
func WithDuplicatePolicy(policy config.DuplicatePolicy) Option {
	return func(p *Parser) {
		p.duplicates = policy
	}
}

// WithAuxiliary sets package entry names used to check data source extract presence
func WithAuxiliary(names ...string) Option {
	return func(p *Parser) {
		if p.auxiliary == nil {
			p.auxiliary = make(map[string]bool)
		}
		for _, name := range names {
			key := normalizeEntry(name)
			p.auxiliary[key] = true
			p.auxiliary[path.Base(key)] = true
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConfig applies the parser related settings of cfg
func WithConfig(cfg *config.Config) Option {
	return func(p *Parser) {
		p.duplicates = cfg.DuplicateFields
	}
}
