// Package sqlite is the local persisted backend: a single database file
// opened in WAL mode and migrated with goose on open.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"workshop/internal/platform/db"
	"workshop/internal/store"
)

type Store struct {
	db  *sql.DB
	hub *store.Hub
	now func() time.Time
}

func New(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time keeps WAL simple
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := db.Migrate(ctx, conn, db.DialectSQLite, logger); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Store{db: conn, hub: store.NewHub(), now: time.Now}, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]store.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
    SELECT id, data, created_at, updated_at
    FROM records
    WHERE collection = ?
    ORDER BY created_at, id
  `, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	row := s.db.QueryRowContext(ctx, `
    SELECT id, data, created_at, updated_at
    FROM records
    WHERE collection = ? AND id = ?
  `, collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, store.ErrNotFound
	}
	return doc, err
}

func (s *Store) Put(ctx context.Context, collection string, doc store.Document) error {
	now := s.now().UTC().UnixNano()
	if _, err := s.db.ExecContext(ctx, `
    INSERT INTO records (collection, id, data, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?)
    ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
  `, collection, doc.ID, string(doc.Data), now, now); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, doc.ID, err)
	}
	s.hub.Publish(collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	s.hub.Publish(collection)
	return nil
}

func (s *Store) Subscribe(collection string) (<-chan struct{}, func()) {
	return s.hub.Subscribe(collection)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	s.hub.Close()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (store.Document, error) {
	var (
		doc       store.Document
		data      string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&doc.ID, &data, &createdAt, &updatedAt); err != nil {
		return store.Document{}, err
	}
	doc.Data = []byte(data)
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	doc.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return doc, nil
}
