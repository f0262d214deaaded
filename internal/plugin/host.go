package plugin

import (
	"log/slog"

	"git.home.luguber.info/inful/docsnap/internal/config"
	"git.home.luguber.info/inful/docsnap/internal/content"
	"git.home.luguber.info/inful/docsnap/internal/contentapi"
	"git.home.luguber.info/inful/docsnap/internal/hooks"
)

// Host is the generation host a plugin is set up against.
type Host interface {
	// Hook registers fn for a lifecycle hook and returns a function removing it.
	Hook(name hooks.Name, fn hooks.Func) (unregister func())

	Config() *config.Config

	Logger() *slog.Logger

	// Store is the writable view of the content store for the current host.
	Store() content.WritableStore

	// Accessor fetches rendered client values from Store.
	Accessor() contentapi.Getter

	// PublicRuntimeConfig returns the map serialized to runtime-config.json, or nil
	// when the host exposes no public runtime config.
	PublicRuntimeConfig() map[string]any
}

// FingerprintKey is the runtime config field carrying the snapshot fingerprint.
const FingerprintKey = "dbHash"
