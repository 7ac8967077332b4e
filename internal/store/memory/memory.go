// Package memory is the in-process backend used by tests and ephemeral runs.
package memory

import (
	"context"
	"sync"
	"time"

	"workshop/internal/store"
)

type collection struct {
	order []string
	docs  map[string]store.Document
}

type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	hub         *store.Hub
	closed      bool
	now         func() time.Time
}

func New() *Store {
	return &Store{
		collections: map[string]*collection{},
		hub:         store.NewHub(),
		now:         time.Now,
	}
}

func (s *Store) List(_ context.Context, name string) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	c, ok := s.collections[name]
	if !ok {
		return []store.Document{}, nil
	}
	out := make([]store.Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, copyDoc(c.docs[id]))
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, name, id string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.Document{}, store.ErrClosed
	}
	c, ok := s.collections[name]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return copyDoc(doc), nil
}

func (s *Store) Put(_ context.Context, name string, doc store.Document) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: map[string]store.Document{}}
		s.collections[name] = c
	}
	now := s.now().UTC()
	doc = copyDoc(doc)
	doc.UpdatedAt = now
	if existing, ok := c.docs[doc.ID]; ok {
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.CreatedAt = now
		c.order = append(c.order, doc.ID)
	}
	c.docs[doc.ID] = doc
	s.mu.Unlock()

	s.hub.Publish(name)
	return nil
}

func (s *Store) Delete(_ context.Context, name, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	c, ok := s.collections[name]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.hub.Publish(name)
	return nil
}

func (s *Store) Subscribe(name string) (<-chan struct{}, func()) {
	return s.hub.Subscribe(name)
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.Close()
	return nil
}

func copyDoc(doc store.Document) store.Document {
	data := make([]byte, len(doc.Data))
	copy(data, doc.Data)
	doc.Data = data
	return doc
}
