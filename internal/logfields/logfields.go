package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyHook        = "hook"
	KeyKey         = "key"
	KeyKeys        = "keys"
	KeyFingerprint = "fingerprint"
	KeyDir         = "dir"
	KeyStore       = "store"
	KeyDurationMS  = "duration_ms"
	KeyPlugin      = "plugin"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Hook(name string) slog.Attr      { return slog.String(KeyHook, name) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }
func Keys(n int) slog.Attr            { return slog.Int(KeyKeys, n) }
func Fingerprint(fp string) slog.Attr { return slog.String(KeyFingerprint, fp) }
func Dir(path string) slog.Attr       { return slog.String(KeyDir, path) }
func Store(kind string) slog.Attr     { return slog.String(KeyStore, kind) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
