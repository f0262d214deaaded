package plugin

import "fmt"

// PluginType identifies the category of plugin.
type PluginType string

const (
	// PluginTypeTarget writes generation output for a deployment target.
	PluginTypeTarget PluginType = "target"

	// PluginTypeContent contributes entries to the content store.
	PluginTypeContent PluginType = "content"
)

// IsValid returns true if the plugin type is recognized.
func (t PluginType) IsValid() bool {
	switch t {
	case PluginTypeTarget, PluginTypeContent:
		return true
	default:
		return false
	}
}

// String returns the string representation of the plugin type.
func (t PluginType) String() string {
	return string(t)
}

// PluginCapability describes optional features a plugin may provide.
type PluginCapability string

const (
	// CapabilitySnapshot indicates the plugin writes a fingerprinted content snapshot.
	CapabilitySnapshot PluginCapability = "snapshot"

	// CapabilityNavigation indicates the plugin maintains the navigation entry.
	CapabilityNavigation PluginCapability = "navigation"

	// CapabilityRuntimeConfig indicates the plugin publishes runtime config values.
	CapabilityRuntimeConfig PluginCapability = "runtime-config"
)

// String returns the string representation of the capability.
func (c PluginCapability) String() string {
	return string(c)
}

// PluginError represents an error that occurred within a plugin.
type PluginError struct {
	// PluginName identifies which plugin failed.
	PluginName string

	// Operation describes what the plugin was doing when it failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s failed during %s: %v", e.PluginName, e.Operation, e.Err)
}

// Unwrap returns the underlying error for error inspection.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// NewPluginError creates a new plugin error.
func NewPluginError(pluginName, operation string, err error) *PluginError {
	return &PluginError{
		PluginName: pluginName,
		Operation:  operation,
		Err:        err,
	}
}
