// Package daemon implements watch mode: regenerate on content changes or on a
// schedule, and optionally serve the client output for preview.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/generator"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
)

// Generator runs one generation.
type Generator interface {
	Generate(ctx context.Context, trigger generator.Trigger) (*generator.Report, error)
}

// Options configures a Daemon.
type Options struct {
	// WatchDir is watched recursively for changes. Empty disables watching.
	WatchDir string
	// Debounce is the quiet window after the last change before regenerating.
	Debounce time.Duration
	// Interval schedules periodic regeneration. 0 disables it.
	Interval time.Duration
	// Listen is the preview server address. Empty disables the server.
	Listen string
	// ClientDir is served at the preview server root.
	ClientDir string
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// AfterRun is called after every run with its outcome.
	AfterRun func(report *generator.Report, err error)
}

// Daemon coordinates triggers and runs generations one at a time.
type Daemon struct {
	gen    Generator
	opts   Options
	logger *slog.Logger

	requests chan generator.Trigger
	status   status

	addrMu sync.RWMutex
	addr   net.Addr
	ready  chan struct{}
}

// New returns a Daemon. A nil logger uses slog.Default.
func New(gen Generator, opts Options, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		gen:      gen,
		opts:     opts,
		logger:   logger,
		requests: make(chan generator.Trigger, 1),
		ready:    make(chan struct{}),
	}
}

// Ready is closed once Run has started all triggers and the preview server.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// Addr returns the preview server address once Ready, or nil.
func (d *Daemon) Addr() net.Addr {
	d.addrMu.RLock()
	defer d.addrMu.RUnlock()
	return d.addr
}

// Request asks for a run. While a run is in progress at most one follow-up is queued.
func (d *Daemon) Request(trigger generator.Trigger) {
	select {
	case d.requests <- trigger:
	default:
	}
}

// Run performs an initial generation, then serves triggers until ctx is done.
// A failed run is logged and does not stop the daemon. Setup failures (scheduler,
// listener, watcher) stop the background goroutines and are returned.
func (d *Daemon) Run(ctx context.Context) error {
	d.runOnce(ctx, generator.TriggerWatch)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.worker(ctx)
	}()

	var cleanups []func()
	defer func() {
		cancel()
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		wg.Wait()
	}()

	if d.opts.Interval > 0 {
		sched, err := newScheduler(d.opts.Interval, func() { d.Request(generator.TriggerSchedule) }, d.logger)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() {
			if err := sched.Stop(); err != nil {
				d.logger.Warn("Scheduler shutdown error", logfields.Error(err))
			}
		})
	}

	if d.opts.Listen != "" {
		stop, err := d.serve()
		if err != nil {
			return err
		}
		cleanups = append(cleanups, stop)
	}

	var events <-chan struct{}
	if d.opts.WatchDir != "" {
		w, err := newWatcher(d.opts.WatchDir, d.opts.Debounce, d.logger)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() { _ = w.Close() })
		events = w.Changes()
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	close(d.ready)
	d.logger.Info("Watch mode started",
		logfields.Dir(d.opts.WatchDir),
		slog.Duration("interval", d.opts.Interval),
		slog.String("listen", d.opts.Listen))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Watch mode stopping")
			return nil
		case <-events:
			d.Request(generator.TriggerWatch)
		}
	}
}

func (d *Daemon) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-d.requests:
			d.runOnce(ctx, trigger)
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context, trigger generator.Trigger) {
	report, err := d.gen.Generate(ctx, trigger)
	d.status.record(report, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("Regeneration failed", slog.String("trigger", string(trigger)), logfields.Error(err))
	}
	if d.opts.AfterRun != nil {
		d.opts.AfterRun(report, err)
	}
}

func (d *Daemon) serve() (stop func(), err error) {
	ln, err := net.Listen("tcp", d.opts.Listen)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "start preview server").
			WithContext("listen", d.opts.Listen).
			Build()
	}
	srv := &http.Server{Handler: d.Router(), ReadHeaderTimeout: 10 * time.Second}

	d.addrMu.Lock()
	d.addr = ln.Addr()
	d.addrMu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("Preview server stopped", logfields.Error(err))
		}
	}()
	d.logger.Info("Preview server listening", slog.String("addr", ln.Addr().String()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("Preview server shutdown error", logfields.Error(err))
		}
	}, nil
}
