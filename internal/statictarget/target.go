// Package statictarget attaches the static snapshot target to a generation host.
//
// Setup resolves the client-facing database path, refreshes navigation before each
// generation and writes a fingerprinted snapshot of the content store once the host
// has recreated its output directory. The fingerprint reaches clients through the
// public runtime config, or through the render-context hook when the host has none.
package statictarget

import (
	"context"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/docsnap/internal/config"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/hooks"
	"git.home.luguber.info/inful/docsnap/internal/navigation"
	"git.home.luguber.info/inful/docsnap/internal/pathresolve"
	"git.home.luguber.info/inful/docsnap/internal/plugin"
	"git.home.luguber.info/inful/docsnap/internal/snapshot"
	"git.home.luguber.info/inful/docsnap/internal/version"
)

const (
	// Name is the plugin name the target registers under.
	Name = "static"

	// RuntimeKey is the runtime config field carrying the fingerprint.
	RuntimeKey = plugin.FingerprintKey
)

// Options receives values computed during Setup.
type Options struct {
	// DBPath is the URL path clients fetch snapshot files below.
	DBPath string
}

// Target is the static snapshot plugin.
type Target struct {
	plugin.BasePlugin

	opts *Options

	mu          sync.RWMutex
	last        *snapshot.Result
	unregisters []func()
}

// New returns a Target that records its computed values in opts. A nil opts is allowed.
func New(opts *Options) *Target {
	if opts == nil {
		opts = &Options{}
	}
	return &Target{opts: opts}
}

func (t *Target) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     version.Version,
		Type:        plugin.PluginTypeTarget,
		Description: "Writes a fingerprinted JSON snapshot of the content store into the build output",
		Capabilities: []plugin.PluginCapability{
			plugin.CapabilitySnapshot,
			plugin.CapabilityNavigation,
			plugin.CapabilityRuntimeConfig,
		},
	}
}

func (t *Target) Validate(cfg *config.Config) error {
	if cfg == nil {
		return ferrors.ConfigError("static target requires a configuration").Build()
	}
	if cfg.Build.Dir == "" {
		return ferrors.ValidationError("static target requires build.dir").WithContext("field", "build.dir").Build()
	}
	if cfg.APIBase == "" {
		return ferrors.ValidationError("static target requires api_base").WithContext("field", "api_base").Build()
	}
	return nil
}

// Setup registers the target's hooks on host and records the database path.
func (t *Target) Setup(host plugin.Host) error {
	cfg := host.Config()
	logger := host.Logger().With("plugin", Name)

	dbPath := DBPath(cfg)

	writer := snapshot.NewWriter(host.Store(), host.Accessor(),
		filepath.Join(cfg.ClientDir(), filepath.FromSlash(cfg.APIBase)),
		snapshot.WithConcurrency(cfg.Snapshot.Concurrency),
		snapshot.WithLogger(logger))
	nav := navigation.NewUpdater(host.Store(), host.Accessor(), logger)
	runtime := host.PublicRuntimeConfig()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.unregisters = append(t.unregisters,
		host.Hook(hooks.GenerateBefore, func(ctx context.Context, _ ...any) error {
			return nav.Update(ctx)
		}),
		host.Hook(hooks.GenerateDistRemoved, func(ctx context.Context, _ ...any) error {
			res, err := writer.Run(ctx)
			if err != nil {
				return err
			}
			t.mu.Lock()
			t.last = res
			t.mu.Unlock()
			if runtime != nil {
				runtime[RuntimeKey] = res.Fingerprint
			}
			return nil
		}),
	)
	if runtime == nil {
		t.unregisters = append(t.unregisters, host.Hook(hooks.RenderContext, t.injectFingerprint))
	}

	t.opts.DBPath = dbPath
	logger.Info("Static target ready", "db_path", dbPath)
	return nil
}

// injectFingerprint adds the latest fingerprint to a *hooks.RenderContextData.
func (t *Target) injectFingerprint(_ context.Context, args ...any) error {
	res := t.Last()
	if res == nil {
		return nil
	}
	for _, arg := range args {
		data, ok := arg.(*hooks.RenderContextData)
		if !ok {
			continue
		}
		if data.Values == nil {
			data.Values = map[string]any{}
		}
		data.Values[RuntimeKey] = res.Fingerprint
	}
	return nil
}

// Last returns the result of the most recent successful snapshot, or nil.
func (t *Target) Last() *snapshot.Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Cleanup removes the target's hooks.
func (t *Target) Cleanup() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, unregister := range t.unregisters {
		unregister()
	}
	t.unregisters = nil
	return nil
}

// DBPath is the client-facing path snapshot files are served below.
func DBPath(cfg *config.Config) string {
	return pathresolve.Resolve(cfg.Build.PublicPath, cfg.Router.Base, cfg.APIBase)
}
