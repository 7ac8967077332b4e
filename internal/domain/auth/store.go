package auth

import (
	"context"
	"errors"

	"workshop/internal/store"
)

type Store struct {
	users *store.Collection[User]
}

func NewStore(backend store.Backend) *Store {
	return &Store{users: store.NewCollection[User](backend, store.CollectionUsers)}
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	user, err := s.users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return User{}, ErrUserNotFound
	}
	return user, err
}

func (s *Store) SaveUser(ctx context.Context, user User) error {
	return s.users.Put(ctx, user.ID, user)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
