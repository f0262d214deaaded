package content

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// MemoryStore is an in-process WritableStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore returns a store holding a copy of entries.
func NewMemoryStore(entries ...*Entry) *MemoryStore {
	m := &MemoryStore{entries: make(map[string]*Entry, len(entries))}
	for _, e := range entries {
		cp := *e
		m.entries[e.Key] = &cp
	}
	return m
}

func (m *MemoryStore) ListKeys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.entries)), nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, notFound(key)
	}
	cp := *e
	return &cp, nil
}

func (m *MemoryStore) Set(_ context.Context, entry *Entry) error {
	if err := ValidateKey(entry.Key); err != nil {
		return err
	}
	cp := *entry
	m.mu.Lock()
	m.entries[entry.Key] = &cp
	m.mu.Unlock()
	return nil
}

// Overlay layers a MemoryStore over a read-only base. Writes land in the memory
// layer; reads prefer it. The base is never modified.
type Overlay struct {
	base  Store
	layer *MemoryStore
}

// NewOverlay wraps base.
func NewOverlay(base Store) *Overlay {
	return &Overlay{base: base, layer: NewMemoryStore()}
}

func (o *Overlay) ListKeys(ctx context.Context) ([]string, error) {
	keys, err := o.base.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	extra, _ := o.layer.ListKeys(ctx)
	return sortedUnique(append(slices.Clone(keys), extra...)), nil
}

func (o *Overlay) Get(ctx context.Context, key string) (*Entry, error) {
	if e, err := o.layer.Get(ctx, key); err == nil {
		return e, nil
	}
	return o.base.Get(ctx, key)
}

func (o *Overlay) Set(ctx context.Context, entry *Entry) error {
	return o.layer.Set(ctx, entry)
}

// Base returns the wrapped store.
func (o *Overlay) Base() Store { return o.base }
