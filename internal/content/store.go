// Package content provides the key-value content stores a snapshot is taken from.
//
// Keys are route-like paths without a leading slash or file extension
// ("guide/getting-started"). Each store maps its own naming onto that form.
package content

import (
	"context"
	"path"
	"slices"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// Kind tells the accessor how to interpret an entry's bytes.
type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindJSON     Kind = "json"
)

// Entry is one stored document.
type Entry struct {
	Key     string
	Kind    Kind
	Data    []byte
	ModTime time.Time
}

// Store lists and reads content entries.
type Store interface {
	// ListKeys returns every key in the store. Order is unspecified.
	ListKeys(ctx context.Context) ([]string, error)

	// Get returns the entry for key, or a not_found classified error.
	Get(ctx context.Context, key string) (*Entry, error)
}

// WritableStore is a Store that accepts new entries.
type WritableStore interface {
	Store
	Set(ctx context.Context, entry *Entry) error
}

// NormalizeKey converts a path-like name to key form: forward slashes, no leading
// or trailing slash, cleaned of "." segments.
func NormalizeKey(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.Trim(name, "/")
	if name == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}

// ValidateKey rejects keys that cannot be written below an output directory.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return ferrors.ValidationError("content key is empty").Build()
	case strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\"):
		return ferrors.ValidationError("content key must be relative").WithContext("key", key).Build()
	case strings.ContainsRune(key, 0):
		return ferrors.ValidationError("content key contains NUL").WithContext("key", key).Build()
	}
	for _, seg := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return ferrors.ValidationError("content key escapes output directory").WithContext("key", key).Build()
		}
	}
	return nil
}

// KindForName infers the entry kind from a file name extension.
func KindForName(name string) (Kind, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return KindMarkdown, true
	case ".json":
		return KindJSON, true
	default:
		return "", false
	}
}

func notFound(key string) error {
	return ferrors.NotFoundError("content entry not found").WithContext("key", key).Build()
}

func sortedUnique(keys []string) []string {
	slices.Sort(keys)
	return slices.Compact(keys)
}
