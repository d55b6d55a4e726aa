package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kedaiku/backend/internal/store"
	"kedaiku/backend/internal/xid"
)

// Store keeps every collection as an insertion-ordered document list. It is
// the dev/demo and test backend; reads return deep copies so callers can never
// reach into store state.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]store.Document
}

func New() *Store {
	return &Store{collections: make(map[string][]store.Document)}
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	inventory := []map[string]any{
		{"name": "Nasi Lemak", "quantity": float64(40), "price": 4.50},
		{"name": "Roti Canai", "quantity": float64(60), "price": 1.80},
		{"name": "Mee Goreng", "quantity": float64(25), "price": 6.00},
		{"name": "Teh Tarik", "quantity": float64(80), "price": 2.20},
		{"name": "Kopi O", "quantity": float64(8), "price": 1.60},
		{"name": "Ayam Goreng", "quantity": float64(5), "price": 3.50},
	}
	for _, fields := range inventory {
		s.insert(store.CollectionInventory, fields)
	}

	addOns := []map[string]any{
		{"name": "Extra Sambal", "value": 0.50},
		{"name": "Fried Egg", "value": 1.20},
		{"name": "Extra Rice", "value": 1.00},
	}
	for _, fields := range addOns {
		s.insert(store.CollectionAddOns, fields)
	}

	for _, u := range seedUsers(now) {
		s.insert(store.CollectionUsers, u)
	}

	return s
}

// seedUsers builds the initial user documents for dev/demo mode. Credentials
// come from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD; unset variables fall
// back to hardcoded dev defaults with a warning. Production deployments use
// PostgreSQL (DATABASE_URL) and never hit this path.
func seedUsers(now time.Time) []map[string]any {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	users := make([]map[string]any, 0, 2)
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"staff", staffPwd, "staff"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users = append(users, map[string]any{
			"username":   u.username,
			"password":   string(hash),
			"role":       u.role,
			"active":     true,
			"created_at": now,
		})
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) insert(collection string, fields map[string]any) string {
	key := xid.New(strings.ToLower(collection))
	s.collections[collection] = append(s.collections[collection], store.Document{
		Key:    key,
		Fields: copyFields(fields),
	})
	return key
}

func (s *Store) ReadAll(_ context.Context, collection string) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	out := make([]store.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, copyDocument(doc))
	}
	return out, nil
}

func (s *Store) ReadQuery(_ context.Context, collection string, q store.Query) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		if q.WhereField != "" && !matches(doc.Fields[q.WhereField], q.WhereOp, q.WhereValue) {
			continue
		}
		out = append(out, copyDocument(doc))
	}

	if q.OrderBy != "" {
		slices.SortStableFunc(out, func(a, b store.Document) int {
			cmp := compareValues(a.Fields[q.OrderBy], b.Fields[q.OrderBy])
			if q.Descending {
				return -cmp
			}
			return cmp
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, collection string, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(collection, fields), nil
}

func (s *Store) Update(_ context.Context, collection string, key string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i := range docs {
		if docs[i].Key != key {
			continue
		}
		for field, value := range patch {
			docs[i].Fields[field] = value
		}
		return nil
	}
	return store.ErrNotFound
}

func (s *Store) Delete(_ context.Context, collection string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i := range docs {
		if docs[i].Key == key {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func copyDocument(doc store.Document) store.Document {
	return store.Document{Key: doc.Key, Fields: copyFields(doc.Fields)}
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func matches(value any, op string, want any) bool {
	cmp := compareValues(value, want)
	switch op {
	case "", "==":
		return cmp == 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

// compareValues orders two field values: numerically when both are numbers,
// chronologically when both are timestamps, lexically otherwise. Mixed or
// missing values sort before everything else.
func compareValues(a, b any) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Compare(bt)
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
