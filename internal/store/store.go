package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidEntity = errors.New("invalid entity")
)

// Document is one record in a keyed collection. Fields hold store-native
// values: strings, float64 numbers, booleans and time.Time timestamps.
type Document struct {
	Key    string
	Fields map[string]any
}

// Query narrows a collection read. Zero value means "everything, store order".
// WhereOp supports ==, <, <=, > and >=; comparisons are numeric when the
// filter value is a number and lexical otherwise.
type Query struct {
	OrderBy    string
	Descending bool
	Limit      int
	WhereField string
	WhereOp    string
	WhereValue any
}

// Store is a generic keyed document collection: the only persistence surface
// the rest of the backend sees. Reads are best-effort snapshots; writes are
// acknowledged individually with no cross-document transactions.
type Store interface {
	ReadAll(ctx context.Context, collection string) ([]Document, error)
	ReadQuery(ctx context.Context, collection string, q Query) ([]Document, error)
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection string, key string, patch map[string]any) error
	Delete(ctx context.Context, collection string, key string) error
}

const (
	CollectionInventory = "Inventory"
	CollectionAddOns    = "AddOn"
	CollectionOrders    = "Orders"
	CollectionExpenses  = "Expenses"
	CollectionUsers     = "Users"
)
