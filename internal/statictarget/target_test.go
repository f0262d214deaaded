package statictarget

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsnap/internal/config"
	"git.home.luguber.info/inful/docsnap/internal/content"
	"git.home.luguber.info/inful/docsnap/internal/fingerprint"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/generator"
	"git.home.luguber.info/inful/docsnap/internal/navigation"
	"git.home.luguber.info/inful/docsnap/internal/plugin"
)

func testConfig(t *testing.T, publicRuntime bool) *config.Config {
	t.Helper()
	return &config.Config{
		Build:    config.BuildConfig{Dir: t.TempDir(), PublicPath: "/_nuxt/", PublicRuntimeConfig: &publicRuntime},
		Router:   config.RouterConfig{Base: "/"},
		APIBase:  "_docsnap",
		Snapshot: config.SnapshotConfig{Concurrency: 2},
	}
}

func sampleStore() *content.MemoryStore {
	return content.NewMemoryStore(
		&content.Entry{Key: "index", Kind: content.KindMarkdown, Data: []byte("---\ntitle: Home\n---\n# Welcome\n\nHello.\n")},
		&content.Entry{Key: "guide/setup", Kind: content.KindMarkdown, Data: []byte("# Setup\n\n## Install\n")},
		&content.Entry{Key: "settings", Kind: content.KindJSON, Data: []byte(`{"theme":"dark"}`)},
	)
}

func newHost(t *testing.T, cfg *config.Config, store content.Store) (*generator.Generator, *Options, *Target) {
	t.Helper()
	opts := &Options{}
	target := New(opts)
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(target))
	g := generator.New(cfg, store, generator.WithPlugins(reg))
	t.Cleanup(func() { _ = g.Close() })
	return g, opts, target
}

func runtimeConfig(t *testing.T, cfg *config.Config) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.ClientDir(), generator.RuntimeConfigFile))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestDBPath(t *testing.T) {
	tests := []struct {
		name, public, router, api, want string
	}{
		{"defaults", "/_nuxt/", "/", "_docsnap", "/_nuxt/_docsnap"},
		{"router base", "/_nuxt", "/docs/", "api", "/docs/_nuxt/api"},
		{"absolute public path", "https://cdn.example.com/assets", "/docs/", "api", "https://cdn.example.com/assets/api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Build:   config.BuildConfig{PublicPath: tt.public},
				Router:  config.RouterConfig{Base: tt.router},
				APIBase: tt.api,
			}
			require.Equal(t, tt.want, DBPath(cfg))
		})
	}
}

func TestGenerate_WritesSnapshotAndPublishesFingerprint(t *testing.T) {
	cfg := testConfig(t, true)
	g, opts, target := newHost(t, cfg, sampleStore())

	report, err := g.Generate(context.Background(), generator.TriggerCLI)
	require.NoError(t, err)
	require.Equal(t, "/_nuxt/_docsnap", opts.DBPath)

	last := target.Last()
	require.NotNil(t, last)
	require.Len(t, last.Fingerprint, fingerprint.Length)
	require.Equal(t, last.Fingerprint, report.Fingerprint)
	require.Equal(t, last.Fingerprint, runtimeConfig(t, cfg)[RuntimeKey])

	dir := filepath.Join(cfg.ClientDir(), "_docsnap", last.Fingerprint)
	require.Equal(t, dir, last.Dir)
	for _, rel := range []string{"index.json", "settings.json", "navigation.json", filepath.Join("guide", "setup.json")} {
		_, err := os.Stat(filepath.Join(dir, rel))
		require.NoError(t, err, rel)
	}
	require.Equal(t, 4, last.Keys)

	settings, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"theme":"dark"}`, string(settings))

	var doc map[string]any
	data, err := os.ReadFile(filepath.Join(dir, "guide", "setup.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "Setup", doc["title"])
	require.Equal(t, "/guide/setup", doc["path"])

	var nav []*navigation.Link
	data, err = os.ReadFile(filepath.Join(dir, "navigation.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &nav))
	require.Len(t, nav, 3)
}

func TestGenerate_FingerprintIsStableAcrossRuns(t *testing.T) {
	cfg := testConfig(t, true)
	g, _, target := newHost(t, cfg, sampleStore())

	_, err := g.Generate(context.Background(), generator.TriggerCLI)
	require.NoError(t, err)
	first := target.Last().Fingerprint

	_, err = g.Generate(context.Background(), generator.TriggerWatch)
	require.NoError(t, err)
	require.Equal(t, first, target.Last().Fingerprint)
}

func TestGenerate_FingerprintChangesWithContent(t *testing.T) {
	cfg := testConfig(t, true)
	store := sampleStore()
	g, _, target := newHost(t, cfg, store)

	_, err := g.Generate(context.Background(), generator.TriggerCLI)
	require.NoError(t, err)
	first := target.Last().Fingerprint

	require.NoError(t, store.Set(context.Background(), &content.Entry{Key: "settings", Kind: content.KindJSON, Data: []byte(`{"theme":"light"}`)}))
	_, err = g.Generate(context.Background(), generator.TriggerWatch)
	require.NoError(t, err)
	require.NotEqual(t, first, target.Last().Fingerprint)
}

func TestGenerate_WithoutPublicRuntimeConfigUsesRenderContext(t *testing.T) {
	cfg := testConfig(t, false)
	g, _, target := newHost(t, cfg, sampleStore())
	require.Nil(t, g.PublicRuntimeConfig())

	_, err := g.Generate(context.Background(), generator.TriggerCLI)
	require.NoError(t, err)
	require.Equal(t, target.Last().Fingerprint, runtimeConfig(t, cfg)[RuntimeKey])
}

func TestGenerate_ContentFailureFailsRun(t *testing.T) {
	cfg := testConfig(t, true)
	store := sampleStore()
	require.NoError(t, store.Set(context.Background(), &content.Entry{Key: "broken", Kind: content.KindJSON, Data: []byte("{nope")}))
	g, _, target := newHost(t, cfg, store)

	_, err := g.Generate(context.Background(), generator.TriggerCLI)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
	require.Nil(t, target.Last())
}

func TestCleanup_RemovesHooks(t *testing.T) {
	cfg := testConfig(t, true)
	g, _, target := newHost(t, cfg, sampleStore())
	require.NoError(t, g.Setup())
	require.NoError(t, target.Cleanup())

	_, err := g.Generate(context.Background(), generator.TriggerCLI)
	require.NoError(t, err)
	require.Nil(t, target.Last())

	_, err = os.Stat(filepath.Join(cfg.ClientDir(), "_docsnap"))
	require.True(t, os.IsNotExist(err))
}

func TestValidate(t *testing.T) {
	target := New(nil)
	require.Error(t, target.Validate(nil))
	require.Error(t, target.Validate(&config.Config{APIBase: "x"}))
	require.Error(t, target.Validate(&config.Config{Build: config.BuildConfig{Dir: "b"}}))
	require.NoError(t, target.Validate(&config.Config{Build: config.BuildConfig{Dir: "b"}, APIBase: "x"}))
	require.NoError(t, target.Metadata().Validate())
}
