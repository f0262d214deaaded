// Package config loads the docsnap configuration file.
//
// Loading order: .env/.env.local (never overriding the process environment),
// ${VAR} expansion of the YAML text, YAML decode, DOCSNAP_* environment overrides,
// normalization, defaults, validation.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// CurrentVersion is the only configuration schema version accepted by Load.
const CurrentVersion = "1"

// Config is the root of a docsnap configuration file.
type Config struct {
	Version  string         `yaml:"version"`
	Build    BuildConfig    `yaml:"build"`
	Router   RouterConfig   `yaml:"router"`
	APIBase  string         `yaml:"api_base" validate:"required"`
	Content  ContentConfig  `yaml:"content"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Events   EventsConfig   `yaml:"events"`
	Watch    WatchConfig    `yaml:"watch"`
}

// BuildConfig describes the host build whose output receives the snapshot.
type BuildConfig struct {
	// Dir is the host build directory; the client bundle lives in Dir/dist/client.
	Dir string `yaml:"dir" validate:"required"`
	// PublicPath is where client assets are served from. May be an absolute URL.
	PublicPath string `yaml:"public_path"`
	// PublicRuntimeConfig controls whether the host exposes a public runtime config.
	// When false the fingerprint is injected through the render-context hook.
	PublicRuntimeConfig *bool `yaml:"public_runtime_config,omitempty"`
}

// RouterConfig mirrors the client router settings.
type RouterConfig struct {
	Base string `yaml:"base"`
}

// SnapshotConfig tunes the snapshot writer.
type SnapshotConfig struct {
	// Concurrency bounds parallel fetches and writes. 0 means unbounded.
	Concurrency int `yaml:"concurrency" validate:"gte=0"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format LogFormat `yaml:"format" validate:"omitempty,oneof=json text"`
}

// MetricsConfig controls Prometheus export.
type MetricsConfig struct {
	// Textfile, when set, receives a Prometheus text exposition after each run.
	Textfile string `yaml:"textfile,omitempty"`
}

// EventsConfig controls the generation run log.
type EventsConfig struct {
	// DB is a SQLite path. Empty disables the run log.
	DB string `yaml:"db,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
	// Interval schedules periodic regeneration for stores that cannot be watched. 0 disables it.
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
	// Listen is the preview server address. Empty disables the server.
	Listen string `yaml:"listen,omitempty" validate:"omitempty,hostname_port"`
}

// UsesPublicRuntimeConfig reports whether the fingerprint goes into the public runtime config.
func (b BuildConfig) UsesPublicRuntimeConfig() bool {
	return b.PublicRuntimeConfig == nil || *b.PublicRuntimeConfig
}

// DistDir is the directory the host removes and recreates at the start of a run.
func (c *Config) DistDir() string {
	return filepath.Join(c.Build.Dir, "dist")
}

// ClientDir is the build output directory served to clients.
func (c *Config) ClientDir() string {
	return filepath.Join(c.Build.Dir, "dist", "client")
}

// Load reads, normalizes, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path) // #nosec G304 - path is operator supplied
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration file").
			WithContext("path", path).
			Build()
	}
	return Parse(data)
}

// Parse decodes raw YAML and runs the same pipeline as Load, without touching .env files.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "decode configuration").Fatal().Build()
	}
	if cfg.Version != "" && cfg.Version != CurrentVersion {
		return nil, ferrors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}

	applyEnvOverrides(&cfg)
	Normalize(&cfg)
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads .env and .env.local when present. Existing variables win.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		_ = godotenv.Load(name)
	}
}
