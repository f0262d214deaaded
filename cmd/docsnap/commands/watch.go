package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docsnap/internal/daemon"
	"git.home.luguber.info/inful/docsnap/internal/generator"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Listen  string `short:"l" help:"Preview server address (overrides watch.listen)"`
	NoServe bool   `name:"no-serve" help:"Do not start the preview server"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	listen := cfg.Watch.Listen
	if c.Listen != "" {
		listen = c.Listen
	}
	if c.NoServe {
		listen = ""
	}

	d := daemon.New(rt.generator, daemon.Options{
		WatchDir:  rt.source.Watch,
		Debounce:  cfg.Watch.Debounce,
		Interval:  cfg.Watch.Interval,
		Listen:    listen,
		ClientDir: cfg.ClientDir(),
		Metrics:   metrics.HTTPHandler(rt.registry),
		AfterRun:  func(*generator.Report, error) { rt.writeMetrics() },
	}, g.Logger)
	return d.Run(ctx)
}
