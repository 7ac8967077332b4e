package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Collection is a typed view over one backend collection.
type Collection[T any] struct {
	backend Backend
	name    string
}

func NewCollection[T any](backend Backend, name string) *Collection[T] {
	return &Collection[T]{backend: backend, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	docs, err := c.backend.List(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := json.Unmarshal(doc.Data, &item); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", c.name, doc.ID, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	doc, err := c.backend.Get(ctx, c.name, id)
	if err != nil {
		return item, err
	}
	if err := json.Unmarshal(doc.Data, &item); err != nil {
		return item, fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	return item, nil
}

func (c *Collection[T]) Put(ctx context.Context, id string, item T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return c.backend.Put(ctx, c.name, Document{ID: id, Data: data})
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.backend.Delete(ctx, c.name, id)
}

// Watch delivers the full collection once immediately and again after every
// change until ctx is cancelled. The returned channel is closed on exit.
func (c *Collection[T]) Watch(ctx context.Context) (<-chan []T, error) {
	signals, cancel := c.backend.Subscribe(c.name)
	initial, err := c.List(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []T, 1)
	out <- initial
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				items, err := c.List(ctx)
				if err != nil {
					if ctx.Err() == nil {
						zap.L().Warn("collection reload failed", zap.String("collection", c.name), zap.Error(err))
					}
					continue
				}
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
