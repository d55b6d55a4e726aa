// Package mirror implements an optimistic remote-backed list: an in-memory,
// ordered mirror of one remote collection that is patched in place after each
// successful mutation instead of refetched. The mirror is only ever updated by
// the operation that owns the mutation, within the same process; it is never
// reconciled against concurrent external writers.
package mirror

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"kedaiku/backend/internal/store"
)

// FetchError wraps a failed collection read. The previous cache contents are
// left intact when it is returned.
type FetchError struct {
	Collection string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Collection, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError wraps a failed create, update or delete. The local cache is
// guaranteed unchanged when it is returned.
type WriteError struct {
	Collection string
	Op         string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Config binds a Manager to one entity type. Decode, ID, DisplayName and
// Apply must all be set.
type Config[T any] struct {
	Collection string
	// LoadQuery, when set, is used for Load instead of a plain ReadAll.
	LoadQuery *store.Query
	// PrependOnCreate puts new entries at the head of the cache, matching a
	// descending-order load query; otherwise they append.
	PrependOnCreate bool
	Decode          func(store.Document) T
	ID              func(T) string
	DisplayName     func(T) string
	Apply           func(T, map[string]any) T
}

// Manager mirrors one remote collection. All methods are safe for concurrent
// use, though the design assumes single-writer-at-a-time semantics: two racing
// mutations on the same entity type resolve as last-write-wins with no version
// check against the remote document.
type Manager[T any] struct {
	store store.Store
	cfg   Config[T]

	mu     sync.RWMutex
	items  []T
	loaded bool
}

func New[T any](st store.Store, cfg Config[T]) *Manager[T] {
	return &Manager[T]{store: st, cfg: cfg}
}

// Load replaces the cache wholesale with a fresh snapshot. On failure the
// previous contents (or the empty cache, on first load) stay intact.
func (m *Manager[T]) Load(ctx context.Context) error {
	var (
		docs []store.Document
		err  error
	)
	if m.cfg.LoadQuery != nil {
		docs, err = m.store.ReadQuery(ctx, m.cfg.Collection, *m.cfg.LoadQuery)
	} else {
		docs, err = m.store.ReadAll(ctx, m.cfg.Collection)
	}
	if err != nil {
		return &FetchError{Collection: m.cfg.Collection, Err: err}
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		items = append(items, m.cfg.Decode(doc))
	}

	m.mu.Lock()
	m.items = items
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// EnsureLoaded performs the initial Load once; later calls are no-ops even if
// that load happened a while ago. Mutations keep the cache current in between.
func (m *Manager[T]) EnsureLoaded(ctx context.Context) error {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()
	if loaded {
		return nil
	}
	return m.Load(ctx)
}

// Create sends the record to the store and, on success, splices the assigned
// key plus submitted fields into the cache.
func (m *Manager[T]) Create(ctx context.Context, fields map[string]any) (T, error) {
	var zero T
	key, err := m.store.Create(ctx, m.cfg.Collection, fields)
	if err != nil {
		return zero, &WriteError{Collection: m.cfg.Collection, Op: "create", Err: err}
	}

	created := m.cfg.Decode(store.Document{Key: key, Fields: fields})

	m.mu.Lock()
	if m.cfg.PrependOnCreate {
		m.items = append([]T{created}, m.items...)
	} else {
		m.items = append(m.items, created)
	}
	m.mu.Unlock()
	return created, nil
}

// Update sends a partial-field patch keyed by id and, on success, merges it
// into the matching cache entry in place, preserving identity and order. The
// cache is primed first so a patch on a never-listed collection still returns
// the full merged entity.
func (m *Manager[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	if err := m.EnsureLoaded(ctx); err != nil {
		return zero, err
	}
	if err := m.store.Update(ctx, m.cfg.Collection, id, patch); err != nil {
		return zero, &WriteError{Collection: m.cfg.Collection, Op: "update", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if m.cfg.ID(item) == id {
			m.items[i] = m.cfg.Apply(item, patch)
			return m.items[i], nil
		}
	}
	// Document was written between the load and now by someone else; the
	// patch itself is the best reconstruction available.
	return m.cfg.Decode(store.Document{Key: id, Fields: patch}), nil
}

// Remove deletes the remote document and filters the cache entry out by key.
func (m *Manager[T]) Remove(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, m.cfg.Collection, id); err != nil {
		return &WriteError{Collection: m.cfg.Collection, Op: "delete", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if m.cfg.ID(item) == id {
			m.items = append(m.items[:i:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Items returns a copy of the current cache in order.
func (m *Manager[T]) Items() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.items))
	copy(out, m.items)
	return out
}

// Search returns the cache entries whose display name contains text,
// case-insensitively. An empty text matches everything. The cache itself is
// never mutated by a search.
func (m *Manager[T]) Search(text string) []T {
	needle := strings.ToLower(strings.TrimSpace(text))

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, 0, len(m.items))
	for _, item := range m.items {
		if needle == "" || strings.Contains(strings.ToLower(m.cfg.DisplayName(item)), needle) {
			out = append(out, item)
		}
	}
	return out
}

// Get looks an entry up by key in the cache only; it never goes remote.
func (m *Manager[T]) Get(id string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items {
		if m.cfg.ID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (m *Manager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
