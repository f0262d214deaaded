// Package plugin provides the registry generation targets plug into.
// A plugin attaches itself to a Host by registering lifecycle hooks.
package plugin

import (
	"fmt"

	"git.home.luguber.info/inful/docsnap/internal/config"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// Plugin represents a docsnap plugin with metadata and a setup step.
type Plugin interface {
	// Metadata returns the plugin's metadata (name, version, type, capabilities).
	Metadata() PluginMetadata

	// Validate checks if the plugin can run with the given configuration.
	Validate(cfg *config.Config) error

	// Setup attaches the plugin to host. It runs once, before the first generation.
	Setup(host Host) error
}

// PluginLifecycle extends Plugin with an optional teardown step.
type PluginLifecycle interface {
	Plugin

	// Cleanup is called when the host shuts down.
	Cleanup() error
}

// PluginMetadata describes a plugin's identity and capabilities.
type PluginMetadata struct {
	// Name is the unique plugin identifier (e.g., "static").
	Name string

	// Version is the semantic version (e.g., "v1.0.0").
	Version string

	Type PluginType

	Description string

	Capabilities []PluginCapability
}

// String returns a human-readable representation of the plugin metadata.
func (m PluginMetadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Validate checks if the plugin metadata is valid.
func (m PluginMetadata) Validate() error {
	if m.Name == "" {
		return ferrors.ValidationError("plugin name is required").Build()
	}
	if m.Version == "" {
		return ferrors.ValidationError("plugin version is required").WithContext("plugin", m.Name).Build()
	}
	if !m.Type.IsValid() {
		return ferrors.ValidationError("invalid plugin type").
			WithContext("plugin", m.Name).
			WithContext("type", string(m.Type)).
			Build()
	}
	return nil
}

// HasCapability reports whether the plugin declares c.
func (m PluginMetadata) HasCapability(c PluginCapability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// BasePlugin provides default implementations for optional methods.
type BasePlugin struct{}

// Cleanup is a no-op default implementation.
func (b *BasePlugin) Cleanup() error {
	return nil
}

// Validate is a no-op default implementation that accepts any configuration.
func (b *BasePlugin) Validate(*config.Config) error {
	return nil
}
