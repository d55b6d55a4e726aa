package mirror

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"kedaiku/backend/internal/domain"
	"kedaiku/backend/internal/store"
	"kedaiku/backend/internal/store/memory"
)

var errBoom = errors.New("boom")

// flakyStore wraps a real store and fails reads or writes on demand, so tests
// can observe the cache-isolation guarantees at the mirror boundary.
type flakyStore struct {
	store.Store
	failReads  bool
	failWrites bool
}

func (f *flakyStore) ReadAll(ctx context.Context, collection string) ([]store.Document, error) {
	if f.failReads {
		return nil, errBoom
	}
	return f.Store.ReadAll(ctx, collection)
}

func (f *flakyStore) ReadQuery(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	if f.failReads {
		return nil, errBoom
	}
	return f.Store.ReadQuery(ctx, collection, q)
}

func (f *flakyStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if f.failWrites {
		return "", errBoom
	}
	return f.Store.Create(ctx, collection, fields)
}

func (f *flakyStore) Update(ctx context.Context, collection string, key string, patch map[string]any) error {
	if f.failWrites {
		return errBoom
	}
	return f.Store.Update(ctx, collection, key, patch)
}

func (f *flakyStore) Delete(ctx context.Context, collection string, key string) error {
	if f.failWrites {
		return errBoom
	}
	return f.Store.Delete(ctx, collection, key)
}

func newInventoryMirror(st store.Store) *Manager[domain.InventoryItem] {
	return New(st, Config[domain.InventoryItem]{
		Collection:  store.CollectionInventory,
		Decode:      domain.DecodeInventoryItem,
		ID:          func(i domain.InventoryItem) string { return i.ID },
		DisplayName: func(i domain.InventoryItem) string { return i.Name },
		Apply:       domain.ApplyInventoryPatch,
	})
}

func seedItem(t *testing.T, st store.Store, name string, quantity, price float64) string {
	t.Helper()
	key, err := st.Create(context.Background(), store.CollectionInventory, map[string]any{
		"name": name, "quantity": quantity, "price": price,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return key
}

func TestLoadReplacesCacheWholesale(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := newInventoryMirror(st)

	seedItem(t, st, "Teh Tarik", 10, 2.20)
	seedItem(t, st, "Kopi O", 4, 1.60)

	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", m.Len())
	}

	seedItem(t, st, "Milo Ais", 7, 2.80)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m.Len() != 3 {
		t.Fatalf("expected reload to pick up 3 items, got %d", m.Len())
	}
}

func TestCreateAppendsWithAssignedKey(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := newInventoryMirror(st)

	seedItem(t, st, "Teh Tarik", 10, 2.20)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	created, err := m.Create(ctx, map[string]any{"name": "Kopi O", "quantity": 4.0, "price": 1.60})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned key on created entry")
	}

	items := m.Items()
	if len(items) != 2 || items[1].Name != "Kopi O" {
		t.Fatalf("expected create to append, got %+v", items)
	}

	// load round-trip: the remote collection holds exactly the same entry.
	if err := m.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := m.Get(created.ID)
	if !ok || got.Name != "Kopi O" || got.Quantity != 4 || got.Price != 1.60 {
		t.Fatalf("expected reload to agree with created entry, got %+v ok=%v", got, ok)
	}
}

func TestCreatePrependsForDescendingCollections(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := New(st, Config[domain.Expense]{
		Collection:      store.CollectionExpenses,
		LoadQuery:       &store.Query{OrderBy: "date", Descending: true},
		PrependOnCreate: true,
		Decode:          domain.DecodeExpense,
		ID:              func(e domain.Expense) string { return e.ID },
		DisplayName:     func(e domain.Expense) string { return e.Name },
		Apply:           domain.ApplyExpensePatch,
	})

	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if _, err := m.Create(ctx, map[string]any{"name": "Gas", "price": 35.0, "date": day}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Create(ctx, map[string]any{"name": "Flour", "price": 12.0, "date": day.AddDate(0, 0, 1)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	items := m.Items()
	if len(items) != 2 || items[0].Name != "Flour" {
		t.Fatalf("expected newest-first order, got %+v", items)
	}
}

func TestUpdateMergesPatchInPlace(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := newInventoryMirror(st)

	seedItem(t, st, "Teh Tarik", 10, 2.20)
	key := seedItem(t, st, "Kopi O", 4, 1.60)
	seedItem(t, st, "Milo Ais", 7, 2.80)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	updated, err := m.Update(ctx, key, map[string]any{"quantity": 7.0})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %v", updated.Quantity)
	}
	if updated.Name != "Kopi O" || updated.Price != 1.60 {
		t.Fatalf("expected untouched fields to survive the patch, got %+v", updated)
	}

	items := m.Items()
	if items[1].ID != key {
		t.Fatalf("expected patched entry to keep its position, got %+v", items)
	}
}

func TestUpdatePrimesColdCache(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := newInventoryMirror(st)

	seedItem(t, st, "Teh Tarik", 10, 2.20)
	key := seedItem(t, st, "Kopi O", 4, 1.60)

	// No Load was issued; the patch must still come back as the full entity.
	updated, err := m.Update(ctx, key, map[string]any{"quantity": 7.0})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != key || updated.Name != "Kopi O" || updated.Quantity != 7 || updated.Price != 1.60 {
		t.Fatalf("expected full merged entity from a cold cache, got %+v", updated)
	}
	if m.Len() != 2 {
		t.Fatalf("expected the update to prime the cache, got %d entries", m.Len())
	}
}

func TestRemoveFiltersEntryByKey(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := newInventoryMirror(st)

	key := seedItem(t, st, "Teh Tarik", 10, 2.20)
	seedItem(t, st, "Kopi O", 4, 1.60)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := m.Remove(ctx, key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := m.Get(key); ok {
		t.Fatalf("expected removed entry to be gone from the cache")
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", m.Len())
	}
}

func TestSearchIsCaseInsensitiveAndNonMutating(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := newInventoryMirror(st)

	seedItem(t, st, "Teh Tarik", 10, 2.20)
	seedItem(t, st, "Teh O Ais", 6, 1.90)
	seedItem(t, st, "Kopi O", 4, 1.60)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	matches := m.Search("teh")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "teh", len(matches))
	}
	if m.Len() != 3 {
		t.Fatalf("expected search to leave the cache intact")
	}
	if got := m.Search(""); len(got) != 3 {
		t.Fatalf("expected empty search to return everything, got %d", len(got))
	}
}

func TestLoadFailureKeepsPreviousCache(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Store: memory.New()}
	m := newInventoryMirror(flaky)

	seedItem(t, flaky.Store, "Teh Tarik", 10, 2.20)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	flaky.failReads = true
	err := m.Load(ctx)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected previous cache to survive a failed load, got %d entries", m.Len())
	}
}

func TestWriteFailureLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{Store: memory.New()}
	m := newInventoryMirror(flaky)

	key := seedItem(t, flaky.Store, "Teh Tarik", 10, 2.20)
	seedItem(t, flaky.Store, "Kopi O", 4, 1.60)
	if err := m.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	before := m.Items()
	flaky.failWrites = true

	var writeErr *WriteError
	if _, err := m.Update(ctx, key, map[string]any{"quantity": 99.0}); !errors.As(err, &writeErr) {
		t.Fatalf("expected *WriteError from update, got %v", err)
	}
	if _, err := m.Create(ctx, map[string]any{"name": "Milo Ais"}); !errors.As(err, &writeErr) {
		t.Fatalf("expected *WriteError from create, got %v", err)
	}
	if err := m.Remove(ctx, key); !errors.As(err, &writeErr) {
		t.Fatalf("expected *WriteError from remove, got %v", err)
	}

	if !reflect.DeepEqual(before, m.Items()) {
		t.Fatalf("expected cache to be untouched after failed writes:\nbefore %+v\nafter  %+v", before, m.Items())
	}
}

func TestUpdateMissingRemoteEntryReportsNotFound(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	m := newInventoryMirror(st)

	_, err := m.Update(ctx, "absent", map[string]any{"quantity": 1.0})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected wrapped ErrNotFound, got %v", err)
	}
}
