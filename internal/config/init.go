package config

import (
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() Config {
	return Config{
		Version: CurrentVersion,
		Build: BuildConfig{
			Dir:        ".build",
			PublicPath: DefaultPublicPath,
		},
		Router:  RouterConfig{Base: DefaultRouterBase},
		APIBase: DefaultAPIBase,
		Content: ContentConfig{
			Type: ContentSourceFS,
			Dir:  "content",
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
			Listen:   "127.0.0.1:3000",
		},
	}
}

// Init writes an example configuration to path. An existing file is kept unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Example()
	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.InternalError("marshal example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write configuration file").
			WithContext("path", path).
			Build()
	}
	return nil
}
