// Package hooks is the host build's lifecycle hook registry.
//
// Handlers are registered per hook name and called sequentially in registration
// order. The first handler error stops the call and is returned to the caller.
package hooks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
)

// Name identifies a lifecycle hook.
type Name string

const (
	// GenerateBefore runs before the output directory is touched.
	GenerateBefore Name = "generate:before"
	// GenerateDistRemoved runs after the previous output was removed and recreated.
	GenerateDistRemoved Name = "generate:distRemoved"
	// RenderContext runs once the runtime configuration is about to be written.
	// Handlers receive a *RenderContextData argument.
	RenderContext Name = "render:context"
	// GenerateDone runs after a successful run.
	GenerateDone Name = "generate:done"
)

// Func is a hook handler. args carries hook-specific values.
type Func func(ctx context.Context, args ...any) error

// RenderContextData is the mutable payload of the RenderContext hook.
type RenderContextData struct {
	// Values are merged into the runtime configuration written for clients.
	Values map[string]any
}

type registration struct {
	id uint64
	fn Func
}

// Registry holds hook handlers.
type Registry struct {
	mu     sync.RWMutex
	hooks  map[Name][]registration
	nextID uint64
	logger *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger uses slog.Default.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{hooks: make(map[Name][]registration), logger: logger}
}

// Hook registers fn for name and returns a function that removes it.
func (r *Registry) Hook(name Name, fn Func) (unregister func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.hooks[name] = append(r.hooks[name], registration{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			regs := r.hooks[name]
			for i, reg := range regs {
				if reg.id == id {
					r.hooks[name] = append(regs[:i:i], regs[i+1:]...)
					break
				}
			}
			if len(r.hooks[name]) == 0 {
				delete(r.hooks, name)
			}
		})
	}
}

// Count returns the number of handlers registered for name.
func (r *Registry) Count(name Name) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[name])
}

// Call runs every handler for name in order. Handlers registered while Call is
// running are not invoked by that call.
func (r *Registry) Call(ctx context.Context, name Name, args ...any) error {
	r.mu.RLock()
	regs := append([]registration(nil), r.hooks[name]...)
	r.mu.RUnlock()

	for i, reg := range regs {
		if err := ctx.Err(); err != nil {
			return ferrors.HookError("hook canceled").WithCause(err).
				WithContext("hook", string(name)).
				Build()
		}
		start := time.Now()
		if err := reg.fn(ctx, args...); err != nil {
			return ferrors.HookError("hook handler failed").WithCause(err).
				WithContext("hook", string(name)).
				WithContext("handler", i).
				Build()
		}
		r.logger.Debug("Hook handler completed",
			logfields.Hook(string(name)),
			slog.Int("handler", i),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	}
	return nil
}
