// Package generator is the host build driver. It owns the lifecycle hooks, the
// output directory and the runtime config, and runs plugins against them.
//
// A run calls generate:before, removes and recreates <build.dir>/dist, calls
// generate:distRemoved, collects render-context values, writes
// <build.dir>/dist/client/runtime-config.json and finally calls generate:done.
// The first failing stage aborts the run.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsnap/internal/config"
	"git.home.luguber.info/inful/docsnap/internal/content"
	"git.home.luguber.info/inful/docsnap/internal/contentapi"
	"git.home.luguber.info/inful/docsnap/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/hooks"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
	"git.home.luguber.info/inful/docsnap/internal/plugin"
)

// RuntimeConfigFile is written into the client directory after each run.
const RuntimeConfigFile = "runtime-config.json"

// Trigger says what started a run.
type Trigger string

const (
	TriggerCLI      Trigger = "cli"
	TriggerWatch    Trigger = "watch"
	TriggerSchedule Trigger = "schedule"
)

// EventLog receives run events. *eventstore.SQLiteStore implements it.
type EventLog interface {
	AppendEvent(ctx context.Context, e eventstore.Event) error
}

// Report summarizes a run.
type Report struct {
	BuildID       string
	Trigger       Trigger
	StartedAt     time.Time
	Duration      time.Duration
	Fingerprint   string
	Entries       int
	RuntimeConfig map[string]any
}

type runState struct {
	report *Report
	values map[string]any
}

// Generator drives generation runs. Runs are serialized.
type Generator struct {
	cfg      *config.Config
	logger   *slog.Logger
	hooks    *hooks.Registry
	store    *content.Overlay
	accessor *contentapi.Accessor
	runtime  map[string]any
	plugins  *plugin.Registry
	recorder metrics.Recorder
	events   EventLog

	mu      sync.Mutex
	setUp   bool
	setUpMu sync.Mutex
}

// Option customizes a Generator.
type Option func(*Generator)

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

func WithEventLog(e EventLog) Option {
	return func(g *Generator) { g.events = e }
}

// WithPlugins sets the plugins attached on the first run.
func WithPlugins(r *plugin.Registry) Option {
	return func(g *Generator) {
		if r != nil {
			g.plugins = r
		}
	}
}

// New returns a Generator over base. Writes from plugins land in an overlay and
// never reach base.
func New(cfg *config.Config, base content.Store, opts ...Option) *Generator {
	g := &Generator{
		cfg:      cfg,
		logger:   slog.Default(),
		store:    content.NewOverlay(base),
		plugins:  plugin.NewRegistry(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.hooks = hooks.NewRegistry(g.logger)
	g.accessor = contentapi.New(g.store)
	if cfg.Build.UsesPublicRuntimeConfig() {
		g.runtime = map[string]any{}
	}
	return g
}

func (g *Generator) Hook(name hooks.Name, fn hooks.Func) func() { return g.hooks.Hook(name, fn) }
func (g *Generator) Config() *config.Config                       { return g.cfg }
func (g *Generator) Logger() *slog.Logger                         { return g.logger }
func (g *Generator) Store() content.WritableStore                 { return g.store }
func (g *Generator) Accessor() contentapi.Getter                  { return g.accessor }

// PublicRuntimeConfig returns nil when build.public_runtime_config is false.
func (g *Generator) PublicRuntimeConfig() map[string]any { return g.runtime }

// Setup attaches all registered plugins. It runs at most once; Generate calls it.
func (g *Generator) Setup() error {
	g.setUpMu.Lock()
	defer g.setUpMu.Unlock()
	if g.setUp {
		return nil
	}
	if err := g.plugins.SetupAll(g); err != nil {
		return err
	}
	g.setUp = true
	return nil
}

// Close detaches plugins.
func (g *Generator) Close() error {
	return g.plugins.CleanupAll()
}

// Generate performs one run.
func (g *Generator) Generate(ctx context.Context, trigger Trigger) (*Report, error) {
	if err := g.Setup(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	run := &runState{
		report: &Report{BuildID: uuid.NewString(), Trigger: trigger, StartedAt: time.Now()},
		values: map[string]any{},
	}
	logger := g.logger.With(logfields.BuildID(run.report.BuildID))
	logger.Info("Generation started", slog.String("trigger", string(trigger)))
	g.logEvent(ctx, logger, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewGenerateStarted(run.report.BuildID, string(trigger), g.cfg.Build.Dir)
	})

	err := runStages(ctx, run, g.stages(), g.recorder, logger)
	run.report.Duration = time.Since(run.report.StartedAt)
	g.recorder.ObserveGenerateDuration(run.report.Duration)

	if err != nil {
		result := metrics.ResultFailed
		stage := ""
		var se *StageError
		if errors.As(err, &se) {
			stage = string(se.Stage)
			if se.Canceled {
				result = metrics.ResultCanceled
			}
		}
		g.recorder.IncGenerateOutcome(result)
		g.logEvent(ctx, logger, func() (*eventstore.BaseEvent, error) {
			return eventstore.NewGenerateFailed(run.report.BuildID, stage, err, run.report.Duration)
		})
		logger.Error("Generation failed", slog.String("stage", stage), logfields.Error(err))
		return run.report, err
	}

	g.recorder.IncGenerateOutcome(metrics.ResultSuccess)
	g.recorder.SetSnapshotEntries(run.report.Entries)
	if run.report.Fingerprint != "" {
		g.recorder.SetSnapshotFingerprint(run.report.Fingerprint)
	}
	g.logEvent(ctx, logger, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewGenerateCompleted(run.report.BuildID, run.report.Fingerprint, run.report.Entries, run.report.Duration)
	})
	logger.Info("Generation completed",
		logfields.Fingerprint(run.report.Fingerprint),
		logfields.Keys(run.report.Entries),
		logfields.DurationMS(float64(run.report.Duration.Microseconds())/1000))
	return run.report, nil
}

func (g *Generator) stages() []StageDef {
	return []StageDef{
		{StageBefore, func(ctx context.Context, _ *runState) error {
			return g.hooks.Call(ctx, hooks.GenerateBefore)
		}},
		{StagePrepareOutput, g.prepareOutput},
		{StageDistRemoved, func(ctx context.Context, _ *runState) error {
			return g.hooks.Call(ctx, hooks.GenerateDistRemoved)
		}},
		{StageRenderContext, g.renderContext},
		{StageRuntimeConfig, g.writeRuntimeConfig},
		{StageDone, func(ctx context.Context, run *runState) error {
			return g.hooks.Call(ctx, hooks.GenerateDone, run.report)
		}},
	}
}

func (g *Generator) prepareOutput(_ context.Context, _ *runState) error {
	dist := g.cfg.DistDir()
	if abs, err := filepath.Abs(g.cfg.Build.Dir); err == nil && abs == filepath.Dir(abs) {
		return ferrors.ValidationError("refusing to use the filesystem root as build.dir").
			WithContext("dir", abs).
			Build()
	}
	if err := os.RemoveAll(dist); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove output directory").
			WithContext("dir", dist).
			Build()
	}
	if err := os.MkdirAll(g.cfg.ClientDir(), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("dir", g.cfg.ClientDir()).
			Build()
	}
	return nil
}

func (g *Generator) renderContext(ctx context.Context, run *runState) error {
	data := &hooks.RenderContextData{Values: map[string]any{}}
	if err := g.hooks.Call(ctx, hooks.RenderContext, data); err != nil {
		return err
	}
	maps.Copy(run.values, data.Values)
	return nil
}

func (g *Generator) writeRuntimeConfig(ctx context.Context, run *runState) error {
	public := map[string]any{}
	maps.Copy(public, g.runtime)
	maps.Copy(public, run.values)

	data, err := json.MarshalIndent(public, "", "  ")
	if err != nil {
		return ferrors.InternalError("encode runtime config").WithCause(err).Build()
	}
	path := filepath.Join(g.cfg.ClientDir(), RuntimeConfigFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write runtime config").
			WithContext("path", path).
			Build()
	}

	run.report.RuntimeConfig = public
	if fp, ok := public[plugin.FingerprintKey].(string); ok {
		run.report.Fingerprint = fp
	}
	keys, err := g.store.ListKeys(ctx)
	if err != nil {
		return ferrors.StoreError("count content keys").WithCause(err).Build()
	}
	run.report.Entries = len(keys)
	return nil
}

// logEvent appends to the event log. Event log failures are logged, never fatal.
func (g *Generator) logEvent(ctx context.Context, logger *slog.Logger, build func() (*eventstore.BaseEvent, error)) {
	if g.events == nil {
		return
	}
	e, err := build()
	if err == nil {
		err = g.events.AppendEvent(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		logger.Warn("Failed to record run event", logfields.Error(err))
	}
}
