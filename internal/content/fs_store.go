package content

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// FSStore reads Markdown and JSON files below a root directory.
//
//	content/
//	  index.md            -> "index"
//	  guide/setup.md      -> "guide/setup"
//	  settings.json       -> "settings"
//
// Files and directories starting with "." are skipped. When two files map to the
// same key, Markdown wins over JSON.
type FSStore struct {
	root string
}

// NewFSStore returns a store rooted at dir. The directory must exist.
func NewFSStore(dir string) (*FSStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "open content directory").
			WithContext("dir", dir).
			Build()
	}
	if !info.IsDir() {
		return nil, ferrors.FileSystemError("content path is not a directory").
			WithContext("dir", dir).
			Build()
	}
	return &FSStore{root: dir}, nil
}

// Root returns the content directory.
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := d.Name()
		if p != s.root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := KindForName(name); !ok {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, keyFromRel(rel))
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk content directory").
			WithContext("dir", s.root).
			Build()
	}
	return sortedUnique(keys), nil
}

func (s *FSStore) Get(_ context.Context, key string) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	p, kind, err := s.locate(key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat content file").
			WithContext("path", p).
			Build()
	}
	data, err := os.ReadFile(p) // #nosec G304 - key validated, path below root
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read content file").
			WithContext("path", p).
			Build()
	}
	return &Entry{Key: key, Kind: kind, Data: data, ModTime: info.ModTime()}, nil
}

// locate finds the file for key using the same extension rules as ListKeys.
// Markdown wins over JSON; among equal kinds the first name in directory order wins.
func (s *FSStore) locate(key string) (string, Kind, error) {
	for _, seg := range strings.Split(key, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", "", notFound(key)
		}
	}
	rel := filepath.FromSlash(key)
	dir := filepath.Join(s.root, filepath.Dir(rel))
	stem := filepath.Base(rel)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return "", "", notFound(key)
		}
		return "", "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "read content directory").
			WithContext("dir", dir).
			Build()
	}

	var found string
	var kind Kind
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		k, ok := KindForName(name)
		if !ok || strings.TrimSuffix(name, filepath.Ext(name)) != stem {
			continue
		}
		if found == "" || (k == KindMarkdown && kind != KindMarkdown) {
			found, kind = name, k
		}
	}
	if found == "" {
		return "", "", notFound(key)
	}
	return filepath.Join(dir, found), kind, nil
}

func keyFromRel(rel string) string {
	rel = filepath.ToSlash(rel)
	return NormalizeKey(strings.TrimSuffix(rel, filepath.Ext(rel)))
}
