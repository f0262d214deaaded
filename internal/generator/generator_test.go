package generator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsnap/internal/config"
	"git.home.luguber.info/inful/docsnap/internal/content"
	"git.home.luguber.info/inful/docsnap/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/hooks"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
	"git.home.luguber.info/inful/docsnap/internal/plugin"
)

var _ plugin.Host = (*Generator)(nil)

func testConfig(t *testing.T, publicRuntime bool) *config.Config {
	t.Helper()
	return &config.Config{
		Build:   config.BuildConfig{Dir: t.TempDir(), PublicPath: "/_nuxt/", PublicRuntimeConfig: &publicRuntime},
		Router:  config.RouterConfig{Base: "/"},
		APIBase: "_docsnap",
	}
}

type recordingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcomes []metrics.ResultLabel
	entries  int
	fp       string
}

func (r *recordingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stages == nil {
		r.stages = map[string]metrics.ResultLabel{}
	}
	r.stages[stage] = result
}

func (r *recordingRecorder) IncGenerateOutcome(result metrics.ResultLabel) {
	r.outcomes = append(r.outcomes, result)
}
func (r *recordingRecorder) SetSnapshotEntries(n int)          { r.entries = n }
func (r *recordingRecorder) SetSnapshotFingerprint(fp string) { r.fp = fp }

func readRuntimeConfig(t *testing.T, cfg *config.Config) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.ClientDir(), RuntimeConfigFile))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestGenerate_HookOrderAndOutput(t *testing.T) {
	cfg := testConfig(t, true)
	stale := filepath.Join(cfg.DistDir(), "client", "stale.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))

	rec := &recordingRecorder{}
	g := New(cfg, content.NewMemoryStore(&content.Entry{Key: "a", Kind: content.KindJSON, Data: []byte("1")}),
		WithRecorder(rec))

	var order []hooks.Name
	for _, name := range []hooks.Name{hooks.GenerateBefore, hooks.GenerateDistRemoved, hooks.RenderContext, hooks.GenerateDone} {
		g.Hook(name, func(context.Context, ...any) error {
			order = append(order, name)
			return nil
		})
	}
	g.Hook(hooks.GenerateBefore, func(context.Context, ...any) error {
		_, err := os.Stat(stale)
		require.NoError(t, err, "dist is removed after generate:before")
		return nil
	})
	g.Hook(hooks.GenerateDistRemoved, func(context.Context, ...any) error {
		_, err := os.Stat(stale)
		require.True(t, os.IsNotExist(err))
		g.PublicRuntimeConfig()[plugin.FingerprintKey] = "cafebabe"
		return nil
	})

	report, err := g.Generate(context.Background(), TriggerCLI)
	require.NoError(t, err)
	require.Equal(t, []hooks.Name{hooks.GenerateBefore, hooks.GenerateDistRemoved, hooks.RenderContext, hooks.GenerateDone}, order)
	require.NotEmpty(t, report.BuildID)
	require.Equal(t, "cafebabe", report.Fingerprint)
	require.Equal(t, 1, report.Entries)

	require.Equal(t, map[string]any{"dbHash": "cafebabe"}, readRuntimeConfig(t, cfg))
	require.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess}, rec.outcomes)
	require.Equal(t, "cafebabe", rec.fp)
	require.Equal(t, 1, rec.entries)
	require.Equal(t, metrics.ResultSuccess, rec.stages[string(StageRuntimeConfig)])
}

func TestGenerate_RenderContextValuesReachRuntimeConfig(t *testing.T) {
	cfg := testConfig(t, false)
	g := New(cfg, content.NewMemoryStore())
	require.Nil(t, g.PublicRuntimeConfig())

	g.Hook(hooks.RenderContext, func(_ context.Context, args ...any) error {
		args[0].(*hooks.RenderContextData).Values["dbHash"] = "0badf00d"
		return nil
	})

	report, err := g.Generate(context.Background(), TriggerCLI)
	require.NoError(t, err)
	require.Equal(t, "0badf00d", report.Fingerprint)
	require.Equal(t, "0badf00d", readRuntimeConfig(t, cfg)["dbHash"])
}

func TestGenerate_HookErrorAbortsRun(t *testing.T) {
	cfg := testConfig(t, true)
	rec := &recordingRecorder{}
	events, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })

	g := New(cfg, content.NewMemoryStore(), WithRecorder(rec), WithEventLog(events))
	boom := ferrors.SnapshotError("write failed").Build()
	g.Hook(hooks.GenerateDistRemoved, func(context.Context, ...any) error { return boom })
	doneCalled := false
	g.Hook(hooks.GenerateDone, func(context.Context, ...any) error {
		doneCalled = true
		return nil
	})

	report, err := g.Generate(context.Background(), TriggerWatch)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.True(t, ferrors.HasCategory(err, ferrors.CategorySnapshot))
	require.False(t, doneCalled)

	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, StageDistRemoved, se.Stage)
	require.Equal(t, []metrics.ResultLabel{metrics.ResultFailed}, rec.outcomes)

	_, statErr := os.Stat(filepath.Join(cfg.ClientDir(), RuntimeConfigFile))
	require.True(t, os.IsNotExist(statErr))

	history, err := eventstore.History(context.Background(), events, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, report.BuildID, history[0].BuildID)
	require.Equal(t, eventstore.StatusFailed, history[0].Status)
	require.Equal(t, string(StageDistRemoved), history[0].ErrorStage)
	require.Equal(t, "watch", history[0].Trigger)
}

func TestGenerate_CanceledContext(t *testing.T) {
	rec := &recordingRecorder{}
	g := New(testConfig(t, true), content.NewMemoryStore(), WithRecorder(rec))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, TriggerCLI)
	var se *StageError
	require.True(t, errors.As(err, &se))
	require.True(t, se.Canceled)
	require.Equal(t, StageBefore, se.Stage)
	require.Equal(t, []metrics.ResultLabel{metrics.ResultCanceled}, rec.outcomes)
}

func TestGenerate_SerializesRuns(t *testing.T) {
	g := New(testConfig(t, true), content.NewMemoryStore())
	var mu sync.Mutex
	active, peak := 0, 0
	g.Hook(hooks.GenerateBefore, func(context.Context, ...any) error {
		mu.Lock()
		active++
		peak = max(peak, active)
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.Generate(context.Background(), TriggerWatch)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, peak)
}

type setupPlugin struct {
	plugin.BasePlugin
	calls int
}

func (p *setupPlugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{Name: "setup-counter", Version: "v1", Type: plugin.PluginTypeTarget}
}

func (p *setupPlugin) Setup(plugin.Host) error {
	p.calls++
	return nil
}

func TestGenerate_SetsUpPluginsOnce(t *testing.T) {
	reg := plugin.NewRegistry()
	counter := &setupPlugin{}
	require.NoError(t, reg.Register(counter))

	g := New(testConfig(t, true), content.NewMemoryStore(), WithPlugins(reg))
	for range 2 {
		_, err := g.Generate(context.Background(), TriggerCLI)
		require.NoError(t, err)
	}
	require.Equal(t, 1, counter.calls)
	require.NoError(t, g.Close())
}
