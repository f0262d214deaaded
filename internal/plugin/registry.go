package plugin

import (
	"cmp"
	"slices"
	"sync"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
)

// Registry manages plugin registration and setup.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]map[string]Plugin // map[name]map[version]Plugin
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]map[string]Plugin),
	}
}

// Register adds a plugin to the registry.
// Returns an error if a plugin with the same name and version already exists.
func (r *Registry) Register(plugin Plugin) error {
	if plugin == nil {
		return ferrors.ValidationError("cannot register nil plugin").Build()
	}

	metadata := plugin.Metadata()
	if err := metadata.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.plugins[metadata.Name] == nil {
		r.plugins[metadata.Name] = make(map[string]Plugin)
	}
	if _, exists := r.plugins[metadata.Name][metadata.Version]; exists {
		return ferrors.ValidationError("plugin already registered").
			WithContext("plugin", metadata.String()).
			Build()
	}

	r.plugins[metadata.Name][metadata.Version] = plugin
	return nil
}

// Get retrieves a specific plugin by name and version.
func (r *Registry) Get(name, version string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.plugins[name][version]
	if !ok {
		return nil, ferrors.NotFoundError("plugin not found").
			WithContext("plugin", name).
			WithContext("version", version).
			Build()
	}
	return plugin, nil
}

// List returns all registered plugins ordered by name, then version.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Plugin
	for _, versions := range r.plugins {
		for _, plugin := range versions {
			result = append(result, plugin)
		}
	}
	slices.SortFunc(result, func(a, b Plugin) int {
		ma, mb := a.Metadata(), b.Metadata()
		if c := cmp.Compare(ma.Name, mb.Name); c != 0 {
			return c
		}
		return cmp.Compare(ma.Version, mb.Version)
	})
	return result
}

// ListByType returns all plugins of a specific type.
func (r *Registry) ListByType(pluginType PluginType) []Plugin {
	var result []Plugin
	for _, plugin := range r.List() {
		if plugin.Metadata().Type == pluginType {
			result = append(result, plugin)
		}
	}
	return result
}

// Has checks if a plugin with the given name exists (any version).
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.plugins[name]
	return ok
}

// Unregister removes a plugin from the registry.
func (r *Registry) Unregister(name, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	versions, ok := r.plugins[name]
	if !ok {
		return ferrors.NotFoundError("plugin not found").WithContext("plugin", name).Build()
	}
	if _, ok := versions[version]; !ok {
		return ferrors.NotFoundError("plugin not found").
			WithContext("plugin", name).
			WithContext("version", version).
			Build()
	}

	delete(versions, version)
	if len(versions) == 0 {
		delete(r.plugins, name)
	}
	return nil
}

// Count returns the total number of registered plugins (all versions).
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, versions := range r.plugins {
		count += len(versions)
	}
	return count
}

// SetupAll validates every registered plugin against the host configuration and
// sets it up. The first failure stops setup; plugins already set up stay attached.
func (r *Registry) SetupAll(host Host) error {
	for _, plugin := range r.List() {
		meta := plugin.Metadata()
		if err := plugin.Validate(host.Config()); err != nil {
			return NewPluginError(meta.Name, "validate", err)
		}
		if err := plugin.Setup(host); err != nil {
			return NewPluginError(meta.Name, "setup", err)
		}
		host.Logger().Debug("Plugin set up", logfields.Plugin(meta.String()))
	}
	return nil
}

// CleanupAll calls Cleanup on every plugin implementing PluginLifecycle and returns
// the first error after trying all of them.
func (r *Registry) CleanupAll() error {
	var first error
	for _, plugin := range r.List() {
		lc, ok := plugin.(PluginLifecycle)
		if !ok {
			continue
		}
		if err := lc.Cleanup(); err != nil && first == nil {
			first = NewPluginError(plugin.Metadata().Name, "cleanup", err)
		}
	}
	return first
}
