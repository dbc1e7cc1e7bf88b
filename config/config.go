// Package config holds workbook analysis settings and their loading from YAML and environment.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// DuplicatePolicy decides which definition wins when a data source defines a field twice
type DuplicatePolicy string

const (
	LastWins  DuplicatePolicy = "last"
	FirstWins DuplicatePolicy = "first"
)

// QualifierPolicy decides how a formula qualifier naming no known data source is treated
type QualifierPolicy string

const (
	QualifierUnresolved QualifierPolicy = "unresolved"
	QualifierOwner      QualifierPolicy = "owner"
)

// DocumentPolicy decides how a package with several candidate documents is treated
type DocumentPolicy string

const (
	DocumentFail  DocumentPolicy = "fail"
	DocumentFirst DocumentPolicy = "first"
)

const envPrefix = "TWBDAG_"

// Config represents analysis configuration
type Config struct {
	DuplicateFields     DuplicatePolicy `yaml:"duplicateFields"`
	AmbiguousQualifier  QualifierPolicy `yaml:"ambiguousQualifier"`
	MultipleDocuments   DocumentPolicy  `yaml:"multipleDocuments"`
	MatchCaptions       bool            `yaml:"matchCaptions"`
	UnresolvedNodes     bool            `yaml:"unresolvedNodes"`
	MaterializeExtracts bool            `yaml:"materializeExtracts"`
	TempDir             string          `yaml:"tempDir,omitempty"`
	LargeArchiveBytes   int64           `yaml:"largeArchiveBytes"`
	GraphCacheSize      int             `yaml:"graphCacheSize"`
	LogLevel            string          `yaml:"logLevel"`
	LogFormat           string          `yaml:"logFormat"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DuplicateFields:    LastWins,
		AmbiguousQualifier: QualifierUnresolved,
		MultipleDocuments:  DocumentFail,
		MatchCaptions:      true,
		LargeArchiveBytes:  256 << 20,
		GraphCacheSize:     64,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load reads a YAML configuration over the defaults; an empty location returns the defaults
func Load(ctx context.Context, fs afs.Service, location string) (*Config, error) {
	cfg := DefaultConfig()
	if location == "" {
		return cfg, nil
	}
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", location, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", location, err)
	}
	return cfg, nil
}

// FromEnv overlays TWBDAG_* environment variables, loading a .env file first when present
func (c *Config) FromEnv() error {
	_ = godotenv.Load()
	if v := env("DUPLICATE_FIELDS"); v != "" {
		c.DuplicateFields = DuplicatePolicy(strings.ToLower(v))
	}
	if v := env("AMBIGUOUS_QUALIFIER"); v != "" {
		c.AmbiguousQualifier = QualifierPolicy(strings.ToLower(v))
	}
	if v := env("MULTIPLE_DOCUMENTS"); v != "" {
		c.MultipleDocuments = DocumentPolicy(strings.ToLower(v))
	}
	if v := env("TEMP_DIR"); v != "" {
		c.TempDir = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	for name, target := range map[string]*bool{
		"MATCH_CAPTIONS":       &c.MatchCaptions,
		"UNRESOLVED_NODES":     &c.UnresolvedNodes,
		"MATERIALIZE_EXTRACTS": &c.MaterializeExtracts,
	} {
		if v := env(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
			}
			*target = b
		}
	}
	if v := env("LARGE_ARCHIVE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sLARGE_ARCHIVE_BYTES: %w", envPrefix, err)
		}
		c.LargeArchiveBytes = n
	}
	if v := env("GRAPH_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sGRAPH_CACHE_SIZE: %w", envPrefix, err)
		}
		c.GraphCacheSize = n
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + name))
}

// Validate checks that policies hold known values
func (c *Config) Validate() error {
	switch c.DuplicateFields {
	case LastWins, FirstWins:
	default:
		return fmt.Errorf("unsupported duplicateFields policy: %q", c.DuplicateFields)
	}
	switch c.AmbiguousQualifier {
	case QualifierUnresolved, QualifierOwner:
	default:
		return fmt.Errorf("unsupported ambiguousQualifier policy: %q", c.AmbiguousQualifier)
	}
	switch c.MultipleDocuments {
	case DocumentFail, DocumentFirst:
	default:
		return fmt.Errorf("unsupported multipleDocuments policy: %q", c.MultipleDocuments)
	}
	if c.GraphCacheSize <= 0 {
		return fmt.Errorf("graphCacheSize must be positive, got %d", c.GraphCacheSize)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported logLevel: %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported logFormat: %q", c.LogFormat)
	}
	return nil
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger creates a logger writing to w with the configured level and format
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
