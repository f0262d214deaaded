package config

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/docsnap/internal/foundation/normalization"
)

// ContentSourceType selects the content store backend.
type ContentSourceType string

const (
	ContentSourceFS     ContentSourceType = "fs"
	ContentSourceSQLite ContentSourceType = "sqlite"
	ContentSourceNATS   ContentSourceType = "nats"
	ContentSourceGit    ContentSourceType = "git"
)

var contentSources = normalization.New("content source", map[string]ContentSourceType{
	"fs":         ContentSourceFS,
	"filesystem": ContentSourceFS,
	"sqlite":     ContentSourceSQLite,
	"sqlite3":    ContentSourceSQLite,
	"nats":       ContentSourceNATS,
	"jetstream":  ContentSourceNATS,
	"git":        ContentSourceGit,
}, ContentSourceFS)

// NormalizeContentSource resolves aliases. Unknown values are returned lowercased so validation reports them.
func NormalizeContentSource(raw string) ContentSourceType {
	source, err := contentSources.Strict(raw)
	if err != nil {
		return ContentSourceType(strings.ToLower(strings.TrimSpace(raw)))
	}
	return source
}

// ContentConfig describes where content entries come from.
type ContentConfig struct {
	Type ContentSourceType `yaml:"type" validate:"oneof=fs sqlite nats git"`
	// Dir is the content directory for the fs source, or the subdirectory of the
	// cloned repository for the git source.
	Dir    string              `yaml:"dir,omitempty"`
	SQLite SQLiteContentConfig `yaml:"sqlite,omitempty"`
	NATS   NATSContentConfig   `yaml:"nats,omitempty"`
	Git    GitContentConfig    `yaml:"git,omitempty"`
	// Retry applies to connecting remote sources (nats, git).
	Retry RetryConfig `yaml:"retry,omitempty"`
}

// RetryBackoffMode selects how delays grow between attempts.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// RetryConfig holds raw retry settings. Zero values fall back to retry.DefaultPolicy.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty" validate:"omitempty,oneof=fixed linear exponential"`
	Initial    time.Duration    `yaml:"initial,omitempty" validate:"gte=0"`
	Max        time.Duration    `yaml:"max,omitempty" validate:"gte=0"`
	MaxRetries *int             `yaml:"max_retries,omitempty" validate:"omitempty,gte=0"`
}

// SQLiteContentConfig points at a database with a content table.
type SQLiteContentConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table,omitempty" validate:"omitempty,sqlident"`
}

// NATSContentConfig points at a JetStream key-value bucket.
type NATSContentConfig struct {
	URL    string `yaml:"url" validate:"omitempty,url"`
	Bucket string `yaml:"bucket"`
}

// GitContentConfig describes a repository that is shallow-cloned for each run.
type GitContentConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	// Workspace is the clone target. Empty means a temporary directory.
	Workspace string `yaml:"workspace,omitempty"`
}
