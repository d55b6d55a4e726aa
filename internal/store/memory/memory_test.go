package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"kedaiku/backend/internal/store"
)

func TestCreateReadUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	key, err := s.Create(ctx, store.CollectionInventory, map[string]any{"name": "Teh Tarik", "price": 2.20})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if key == "" {
		t.Fatalf("expected assigned key")
	}

	docs, err := s.ReadAll(ctx, store.CollectionInventory)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(docs) != 1 || docs[0].Key != key || docs[0].Fields["name"] != "Teh Tarik" {
		t.Fatalf("unexpected docs %+v", docs)
	}

	if err := s.Update(ctx, store.CollectionInventory, key, map[string]any{"price": 2.50}); err != nil {
		t.Fatalf("update: %v", err)
	}
	docs, _ = s.ReadAll(ctx, store.CollectionInventory)
	if docs[0].Fields["price"] != 2.50 || docs[0].Fields["name"] != "Teh Tarik" {
		t.Fatalf("expected merged patch, got %+v", docs[0].Fields)
	}

	if err := s.Delete(ctx, store.CollectionInventory, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	docs, _ = s.ReadAll(ctx, store.CollectionInventory)
	if len(docs) != 0 {
		t.Fatalf("expected empty collection, got %+v", docs)
	}
}

func TestUpdateAndDeleteMissingKey(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Update(ctx, store.CollectionInventory, "nope", map[string]any{"price": 1.0}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, store.CollectionInventory, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadQueryOrderFilterLimit(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		if _, err := s.Create(ctx, store.CollectionOrders, map[string]any{
			"customer_name": name,
			"order_date":    base.Add(time.Duration(i) * time.Hour),
			"totalAmount":   float64(10 * (i + 1)),
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	docs, err := s.ReadQuery(ctx, store.CollectionOrders, store.Query{OrderBy: "order_date", Descending: true})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 3 || docs[0].Fields["customer_name"] != "third" || docs[2].Fields["customer_name"] != "first" {
		t.Fatalf("expected newest-first order, got %+v", docs)
	}

	docs, err = s.ReadQuery(ctx, store.CollectionOrders, store.Query{OrderBy: "order_date", Descending: true, Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 2 || docs[1].Fields["customer_name"] != "second" {
		t.Fatalf("expected limit to truncate after sorting, got %+v", docs)
	}

	docs, err = s.ReadQuery(ctx, store.CollectionOrders, store.Query{
		WhereField: "totalAmount", WhereOp: ">=", WhereValue: 20.0,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(docs))
	}
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Create(ctx, store.CollectionInventory, map[string]any{"name": "Kopi O"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	docs, _ := s.ReadAll(ctx, store.CollectionInventory)
	docs[0].Fields["name"] = "tampered"

	fresh, _ := s.ReadAll(ctx, store.CollectionInventory)
	if fresh[0].Fields["name"] != "Kopi O" {
		t.Fatalf("expected store state to be isolated from callers, got %+v", fresh[0].Fields)
	}
}

func TestSeededStoreHasDemoData(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	inventory, err := s.ReadAll(ctx, store.CollectionInventory)
	if err != nil {
		t.Fatalf("read inventory: %v", err)
	}
	if len(inventory) == 0 {
		t.Fatalf("expected seeded inventory")
	}
	users, err := s.ReadAll(ctx, store.CollectionUsers)
	if err != nil {
		t.Fatalf("read users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 seeded users, got %d", len(users))
	}
}
