package config

import (
	"strings"
	"time"
)

const (
	DefaultPublicPath    = "/_nuxt/"
	DefaultRouterBase    = "/"
	DefaultAPIBase       = "_docsnap"
	DefaultSQLiteTable   = "content"
	DefaultNATSBucket    = "docsnap-content"
	DefaultWatchDebounce = 500 * time.Millisecond
)

// Normalize case-folds enumerations and trims values that are compared as strings.
func Normalize(cfg *Config) {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	cfg.Content.Type = NormalizeContentSource(string(cfg.Content.Type))
	cfg.Content.Retry.Mode = RetryBackoffMode(strings.ToLower(strings.TrimSpace(string(cfg.Content.Retry.Mode))))
	cfg.APIBase = strings.Trim(strings.TrimSpace(cfg.APIBase), "/")
}

// ApplyDefaults fills zero values. It runs after Normalize.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Build.PublicPath == "" {
		cfg.Build.PublicPath = DefaultPublicPath
	}
	if cfg.Router.Base == "" {
		cfg.Router.Base = DefaultRouterBase
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Content.Type == "" {
		cfg.Content.Type = ContentSourceFS
	}
	if cfg.Content.Type == ContentSourceFS && cfg.Content.Dir == "" {
		cfg.Content.Dir = "content"
	}
	if cfg.Content.SQLite.Table == "" {
		cfg.Content.SQLite.Table = DefaultSQLiteTable
	}
	if cfg.Content.NATS.Bucket == "" {
		cfg.Content.NATS.Bucket = DefaultNATSBucket
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
}
