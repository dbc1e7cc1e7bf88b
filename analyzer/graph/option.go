package graph

import (
	"log/slog"

	"github.com/hovinh/tableau-report-gen/analyzer/formula"
	"github.com/hovinh/tableau-report-gen/config"
)

type Option func(*Builder)

// WithUnresolvedNodes attaches unresolved references to synthetic nodes instead of only counting them
func WithUnresolvedNodes(enabled bool) Option {
	return func(b *Builder) {
		b.unresolvedNodes = enabled
	}
}

// WithResolverOptions passes options to the formula resolver
func WithResolverOptions(options ...formula.Option) Option {
	return func(b *Builder) {
		b.resolverOptions = append(b.resolverOptions, options...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithConfig applies the graph and resolver settings of cfg
func WithConfig(cfg *config.Config) Option {
	return func(b *Builder) {
		b.unresolvedNodes = cfg.UnresolvedNodes
		b.resolverOptions = append(b.resolverOptions, formula.WithConfig(cfg))
	}
}
