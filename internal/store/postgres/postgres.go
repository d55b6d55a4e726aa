package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"kedaiku/backend/internal/store"
	"kedaiku/backend/internal/xid"
)

// Store persists every collection in a single documents table with the fields
// held as jsonb. Timestamp field values are stored as fixed-width RFC 3339
// strings so jsonb text ordering matches chronological ordering.
type Store struct {
	db *sql.DB
}

const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection text NOT NULL,
			key        text NOT NULL,
			fields     jsonb NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, key)
		)
	`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ReadAll(ctx context.Context, collection string) ([]store.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, fields
		FROM documents
		WHERE collection = $1
		ORDER BY created_at, key
	`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var whereOps = map[string]string{
	"==": "=",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

func (s *Store) ReadQuery(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	var sb strings.Builder
	sb.WriteString("SELECT key, fields FROM documents WHERE collection = $1")
	args := []any{collection}

	if q.WhereField != "" {
		if !identPattern.MatchString(q.WhereField) {
			return nil, fmt.Errorf("invalid filter field %q", q.WhereField)
		}
		op := whereOps[q.WhereOp]
		if q.WhereOp == "" {
			op = "="
		}
		if op == "" {
			return nil, fmt.Errorf("invalid filter op %q", q.WhereOp)
		}
		value := q.WhereValue
		if t, ok := value.(time.Time); ok {
			value = t.UTC().Format(timestampLayout)
		}
		if _, numeric := toFloat(value); numeric {
			fmt.Fprintf(&sb, " AND (fields->>'%s')::numeric %s $2", q.WhereField, op)
		} else {
			fmt.Fprintf(&sb, " AND fields->>'%s' %s $2", q.WhereField, op)
		}
		args = append(args, value)
	}

	if q.OrderBy != "" {
		if !identPattern.MatchString(q.OrderBy) {
			return nil, fmt.Errorf("invalid order field %q", q.OrderBy)
		}
		fmt.Fprintf(&sb, " ORDER BY fields->>'%s'", q.OrderBy)
		if q.Descending {
			sb.WriteString(" DESC NULLS LAST")
		}
	} else {
		sb.WriteString(" ORDER BY created_at, key")
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	payload, err := json.Marshal(encodeFields(fields))
	if err != nil {
		return "", err
	}

	key := xid.New(strings.ToLower(collection))
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, key, fields, created_at)
		VALUES ($1, $2, $3, now())
	`, collection, key, payload)
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Update(ctx context.Context, collection string, key string, patch map[string]any) error {
	payload, err := json.Marshal(encodeFields(patch))
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET fields = fields || $3::jsonb
		WHERE collection = $1 AND key = $2
	`, collection, key, payload)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, key string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND key = $2
	`, collection, key)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanDocuments(rows *sql.Rows) ([]store.Document, error) {
	docs := make([]store.Document, 0, 64)
	for rows.Next() {
		var (
			key     string
			payload []byte
		)
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, err
		}
		fields := make(map[string]any)
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, err
		}
		docs = append(docs, store.Document{Key: key, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func encodeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if t, ok := v.(time.Time); ok {
			out[k] = t.UTC().Format(timestampLayout)
			continue
		}
		out[k] = v
	}
	return out
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
