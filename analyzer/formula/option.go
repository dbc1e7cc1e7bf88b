package formula

import (
	"log/slog"

	"github.com/hovinh/tableau-report-gen/config"
)

type Option func(*Resolver)

// WithQualifierPolicy sets how a qualifier naming no known data source is treated
func WithQualifierPolicy(policy config.QualifierPolicy) Option {
	return func(r *Resolver) {
		r.qualifiers = policy
	}
}

// WithMatchCaptions enables matching tokens against unique field captions
func WithMatchCaptions(enabled bool) Option {
	return func(r *Resolver) {
		r.matchCaptions = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConfig applies the resolver related settings of cfg
func WithConfig(cfg *config.Config) Option {
	return func(r *Resolver) {
		r.qualifiers = cfg.AmbiguousQualifier
		r.matchCaptions = cfg.MatchCaptions
	}
}
