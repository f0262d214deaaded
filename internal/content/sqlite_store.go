package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore keeps entries in a single table:
//
//	key TEXT PRIMARY KEY, kind TEXT, data BLOB, updated_at INTEGER (unix seconds)
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens dbPath (":memory:" allowed) and creates the table if missing.
func NewSQLiteStore(dbPath, table string) (*SQLiteStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, ferrors.ValidationError("invalid sqlite table name").WithContext("table", table).Build()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.StoreError("open sqlite database").WithCause(err).
			WithContext("path", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, table: table}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.StoreError("initialize content table").WithCause(err).
			WithContext("table", table).
			Build()
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		kind TEXT NOT NULL DEFAULT 'json',
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT 0
	);`, s.table)
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT key FROM %s", s.table))
	if err != nil {
		return nil, ferrors.StoreError("query content keys").WithCause(err).Build()
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, ferrors.StoreError("scan content key").WithCause(err).Build()
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.StoreError("iterate content keys").WithCause(err).Build()
	}
	return keys, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		kind    string
		data    []byte
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT kind, data, updated_at FROM %s WHERE key = ?", s.table), key,
	).Scan(&kind, &data, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, ferrors.StoreError("query content entry").WithCause(err).
			WithContext("key", key).
			Build()
	}
	return &Entry{Key: key, Kind: Kind(kind), Data: data, ModTime: time.Unix(updated, 0)}, nil
}

func (s *SQLiteStore) Set(ctx context.Context, entry *Entry) error {
	if err := ValidateKey(entry.Key); err != nil {
		return err
	}
	kind := entry.Kind
	if kind == "" {
		kind = KindJSON
	}
	mod := entry.ModTime
	if mod.IsZero() {
		mod = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (key, kind, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, data = excluded.data, updated_at = excluded.updated_at`, s.table),
		entry.Key, string(kind), entry.Data, mod.Unix(),
	)
	if err != nil {
		return ferrors.StoreError("upsert content entry").WithCause(err).
			WithContext("key", entry.Key).
			Build()
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
