package commands

import (
	"context"
	"errors"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/docsnap/internal/config"
	"git.home.luguber.info/inful/docsnap/internal/content"
	"git.home.luguber.info/inful/docsnap/internal/eventstore"
	"git.home.luguber.info/inful/docsnap/internal/generator"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
	"git.home.luguber.info/inful/docsnap/internal/plugin"
	"git.home.luguber.info/inful/docsnap/internal/statictarget"
)

// runtime is everything a generating command needs, wired from the configuration.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	source    *content.Source
	events    *eventstore.SQLiteStore
	registry  *prom.Registry
	target    *statictarget.Target
	options   *statictarget.Options
	generator *generator.Generator
}

func newRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger, options: &statictarget.Options{}}

	source, err := content.Open(ctx, cfg.Content)
	if err != nil {
		return nil, err
	}
	rt.source = source
	logger.Debug("Content store opened", logfields.Store(string(cfg.Content.Type)))

	if cfg.Events.DB != "" {
		events, err := eventstore.NewSQLiteStore(cfg.Events.DB)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.events = events
	}

	rt.registry = prom.NewRegistry()
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(rt.registry)

	plugins := plugin.NewRegistry()
	rt.target = statictarget.New(rt.options)
	if err := plugins.Register(rt.target); err != nil {
		_ = rt.Close()
		return nil, err
	}

	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithRecorder(recorder),
		generator.WithPlugins(plugins),
	}
	if rt.events != nil {
		opts = append(opts, generator.WithEventLog(rt.events))
	}
	rt.generator = generator.New(cfg, source.Store, opts...)
	if err := rt.generator.Setup(); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// writeMetrics dumps the registry to the configured textfile, if any.
func (rt *runtime) writeMetrics() {
	if rt.cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(rt.registry, rt.cfg.Metrics.Textfile); err != nil {
		rt.logger.Warn("Failed to write metrics textfile", logfields.Error(err))
	}
}

func (rt *runtime) Close() error {
	var errs []error
	if rt.generator != nil {
		errs = append(errs, rt.generator.Close())
	}
	if rt.events != nil {
		errs = append(errs, rt.events.Close())
	}
	errs = append(errs, rt.source.Close())
	return errors.Join(errs...)
}
