package config

import "os"

// Environment variables that override file values when set and non-empty.
const (
	EnvBuildDir   = "DOCSNAP_BUILD_DIR"
	EnvPublicPath = "DOCSNAP_PUBLIC_PATH"
	EnvRouterBase = "DOCSNAP_ROUTER_BASE"
	EnvAPIBase    = "DOCSNAP_API_BASE"
	EnvContentDir = "DOCSNAP_CONTENT_DIR"
	EnvNATSURL    = "DOCSNAP_NATS_URL"
	EnvLogLevel   = "DOCSNAP_LOG_LEVEL"
)

func applyEnvOverrides(cfg *Config) {
	override := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	override(EnvBuildDir, &cfg.Build.Dir)
	override(EnvPublicPath, &cfg.Build.PublicPath)
	override(EnvRouterBase, &cfg.Router.Base)
	override(EnvAPIBase, &cfg.APIBase)
	override(EnvContentDir, &cfg.Content.Dir)
	override(EnvNATSURL, &cfg.Content.NATS.URL)

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
}
