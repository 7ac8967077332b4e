// Package store is the durable keyed collection every backend implements.
//
// Records are JSON documents addressed by (collection, id). Backends return
// them in creation order and signal changes through Subscribe so that callers
// can re-read the full collection whenever it changes.
package store

import (
	"context"
	"errors"
	"time"
)

const (
	CollectionEmployees  = "employees"
	CollectionProduction = "production_logs"
	CollectionPayments   = "salary_payments"
	CollectionUsers      = "users"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrClosed   = errors.New("store closed")
)

type Document struct {
	ID        string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Backend interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Put inserts or replaces the document. CreatedAt is kept on replace.
	Put(ctx context.Context, collection string, doc Document) error
	Delete(ctx context.Context, collection, id string) error
	// Subscribe returns a channel that receives a signal after every change
	// to the collection. Signals are coalesced; the cancel func releases it.
	Subscribe(collection string) (<-chan struct{}, func())
	Ping(ctx context.Context) error
	Close() error
}
