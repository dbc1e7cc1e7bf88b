package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "twbdag.yaml")
	err := os.WriteFile(location, []byte("duplicateFields: first\nambiguousQualifier: owner\ngraphCacheSize: 8\nlogLevel: debug\n"), 0o644)
	assert.Nil(t, err)

	cfg, err := Load(context.Background(), afs.New(), location)
	assert.Nil(t, err)
	assert.Equal(t, FirstWins, cfg.DuplicateFields)
	assert.Equal(t, QualifierOwner, cfg.AmbiguousQualifier)
	assert.Equal(t, DocumentFail, cfg.MultipleDocuments, "unset keys keep defaults")
	assert.True(t, cfg.MatchCaptions)
	assert.Equal(t, 8, cfg.GraphCacheSize)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Nil(t, cfg.Validate())
}

func TestLoad_Default(t *testing.T) {
	cfg, err := Load(context.Background(), afs.New(), "")
	assert.Nil(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_FromEnv(t *testing.T) {
	t.Setenv("TWBDAG_DUPLICATE_FIELDS", "FIRST")
	t.Setenv("TWBDAG_UNRESOLVED_NODES", "true")
	t.Setenv("TWBDAG_GRAPH_CACHE_SIZE", "3")

	cfg := DefaultConfig()
	assert.Nil(t, cfg.FromEnv())
	assert.Equal(t, FirstWins, cfg.DuplicateFields)
	assert.True(t, cfg.UnresolvedNodes)
	assert.Equal(t, 3, cfg.GraphCacheSize)

	t.Setenv("TWBDAG_MATCH_CAPTIONS", "maybe")
	assert.NotNil(t, cfg.FromEnv())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		description string
		mutate      func(c *Config)
		wantErr     bool
	}{
		{description: "defaults", mutate: func(c *Config) {}},
		{description: "bad duplicate policy", mutate: func(c *Config) { c.DuplicateFields = "middle" }, wantErr: true},
		{description: "bad qualifier policy", mutate: func(c *Config) { c.AmbiguousQualifier = "guess" }, wantErr: true},
		{description: "bad document policy", mutate: func(c *Config) { c.MultipleDocuments = "merge" }, wantErr: true},
		{description: "zero cache", mutate: func(c *Config) { c.GraphCacheSize = 0 }, wantErr: true},
		{description: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
		{description: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.Equal(t, tc.wantErr, err != nil, err)
		})
	}
}
