// Package postgres stores records in a shared Postgres database and turns
// LISTEN/NOTIFY into change signals, so every instance sees every write.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"workshop/internal/platform/db"
	"workshop/internal/store"
)

const notifyChannel = "records_changed"

type Store struct {
	pool   *pgxpool.Pool
	hub    *store.Hub
	logger *zap.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Options struct {
	DatabaseURL    string
	ConnectTimeout time.Duration
	RunMigrations  bool
}

func New(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	pool, err := db.Connect(ctx, opts.DatabaseURL, opts.ConnectTimeout, logger)
	if err != nil {
		return nil, err
	}
	if opts.RunMigrations {
		sqlDB := stdlib.OpenDBFromPool(pool)
		err := db.Migrate(ctx, sqlDB, db.DialectPostgres, logger)
		_ = sqlDB.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
	}
	return NewWithPool(pool, logger), nil
}

// NewWithPool wraps an existing pool and starts the notification listener.
func NewWithPool(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	listenCtx, cancel := context.WithCancel(context.Background())
	s := &Store{pool: pool, hub: store.NewHub(), logger: logger, cancel: cancel}
	s.wg.Add(1)
	go s.listen(listenCtx)
	return s
}

func (s *Store) List(ctx context.Context, collection string) ([]store.Document, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT id, data::text, created_at, updated_at
    FROM records
    WHERE collection = $1
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
	doc, err := scanDocument(s.pool.QueryRow(ctx, `
    SELECT id, data::text, created_at, updated_at
    FROM records
    WHERE collection = $1 AND id = $2
  `, collection, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Document{}, store.ErrNotFound
	}
	return doc, err
}

func (s *Store) Put(ctx context.Context, collection string, doc store.Document) error {
	if _, err := s.pool.Exec(ctx, `
    INSERT INTO records (collection, id, data)
    VALUES ($1, $2, $3::jsonb)
    ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
  `, collection, doc.ID, string(doc.Data)); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, doc.ID, err)
	}
	s.notify(ctx, collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	s.notify(ctx, collection)
	return nil
}

func (s *Store) Subscribe(collection string) (<-chan struct{}, func()) {
	return s.hub.Subscribe(collection)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.cancel()
	s.wg.Wait()
	s.hub.Close()
	s.pool.Close()
	return nil
}

func (s *Store) notify(ctx context.Context, collection string) {
	if _, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		s.logger.Warn("pg_notify failed, publishing locally", zap.String("collection", collection), zap.Error(err))
		s.hub.Publish(collection)
	}
}

// listen holds one pooled connection on LISTEN and reconnects after errors.
func (s *Store) listen(ctx context.Context) {
	defer s.wg.Done()
	for ctx.Err() == nil {
		if err := s.listenOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("postgres listener stopped, reconnecting", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (s *Store) listenOnce(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		s.hub.Publish(notification.Payload)
	}
}

func scanDocument(row pgx.Row) (store.Document, error) {
	var (
		doc  store.Document
		data string
	)
	if err := row.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return store.Document{}, err
	}
	doc.Data = []byte(data)
	return doc, nil
}
