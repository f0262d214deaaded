// Package snapshot writes a content store to fingerprinted JSON files.
//
// A run lists every key, fetches all rendered values concurrently, fingerprints the
// serialized set and writes <root>/<fingerprint>/<key>.json for each key. The first
// failed fetch or write fails the run. Files already written are left in place.
package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docsnap/internal/content"
	"git.home.luguber.info/inful/docsnap/internal/contentapi"
	"git.home.luguber.info/inful/docsnap/internal/fingerprint"
	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Snapshot is the set of (key, value) pairs collected for one run.
type Snapshot struct {
	Pairs []fingerprint.Pair
}

// Fingerprint returns the snapshot's directory name.
func (s Snapshot) Fingerprint() (string, error) {
	return fingerprint.Compute(s.Pairs)
}

// Result describes a completed run.
type Result struct {
	Fingerprint string
	Dir         string
	Keys        int
	Duration    time.Duration
}

// Writer collects and writes snapshots.
type Writer struct {
	store       content.Store
	getter      contentapi.Getter
	root        string
	concurrency int
	logger      *slog.Logger
}

// Option customizes a Writer.
type Option func(*Writer)

// WithConcurrency bounds parallel fetches and writes. n <= 0 means unbounded.
func WithConcurrency(n int) Option {
	return func(w *Writer) { w.concurrency = n }
}

// WithLogger sets the writer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWriter returns a Writer that lists keys from store, fetches values through
// getter and writes below root (the "<buildOutput>/<apiBase>" directory).
func NewWriter(store content.Store, getter contentapi.Getter, root string, opts ...Option) *Writer {
	w := &Writer{store: store, getter: getter, root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the directory fingerprint directories are created in.
func (w *Writer) Root() string { return w.root }

// Collect lists all keys and fetches their values concurrently.
func (w *Writer) Collect(ctx context.Context) (Snapshot, error) {
	keys, err := w.store.ListKeys(ctx)
	if err != nil {
		return Snapshot{}, ferrors.SnapshotError("list content keys").WithCause(err).Build()
	}

	pairs := make([]fingerprint.Pair, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	if w.concurrency > 0 {
		g.SetLimit(w.concurrency)
	}
	for i, key := range keys {
		g.Go(func() error {
			if err := content.ValidateKey(key); err != nil {
				return err
			}
			value, err := w.getter.Get(gctx, key)
			if err != nil {
				return ferrors.SnapshotError("fetch content entry").WithCause(err).
					WithContext("key", key).
					Build()
			}
			pairs[i] = fingerprint.Pair{Key: key, Value: value}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Pairs: pairs}, nil
}

// Dir returns the output directory for a fingerprint.
func (w *Writer) Dir(fp string) string {
	return filepath.Join(w.root, fp)
}

// Write creates dir and writes one <key>.json file per pair, concurrently.
func (w *Writer) Write(ctx context.Context, dir string, snap Snapshot) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create snapshot directory").
			WithContext("dir", dir).
			Build()
	}

	g, gctx := errgroup.WithContext(ctx)
	if w.concurrency > 0 {
		g.SetLimit(w.concurrency)
	}
	for _, pair := range snap.Pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeEntry(dir, pair)
		})
	}
	return g.Wait()
}

func writeEntry(dir string, pair fingerprint.Pair) error {
	if err := content.ValidateKey(pair.Key); err != nil {
		return err
	}
	data, err := json.Marshal(pair.Value)
	if err != nil {
		return ferrors.SnapshotError("serialize content entry").WithCause(err).
			WithContext("key", pair.Key).
			Build()
	}

	target := filepath.Join(dir, filepath.FromSlash(pair.Key)+".json")
	if parent := filepath.Dir(target); parent != dir {
		if err := os.MkdirAll(parent, dirPerm); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create snapshot subdirectory").
				WithContext("dir", parent).
				Build()
		}
	}
	if err := os.WriteFile(target, data, filePerm); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write snapshot entry").
			WithContext("key", pair.Key).
			WithContext("path", target).
			Build()
	}
	return nil
}

// Run collects, fingerprints and writes a snapshot.
func (w *Writer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	snap, err := w.Collect(ctx)
	if err != nil {
		return nil, err
	}
	fp, err := snap.Fingerprint()
	if err != nil {
		return nil, err
	}
	dir := w.Dir(fp)
	if err := w.Write(ctx, dir, snap); err != nil {
		return nil, err
	}

	res := &Result{Fingerprint: fp, Dir: dir, Keys: len(snap.Pairs), Duration: time.Since(start)}
	w.logger.Info("Snapshot written",
		logfields.Fingerprint(fp),
		logfields.Dir(dir),
		logfields.Keys(res.Keys),
		logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	return res, nil
}
