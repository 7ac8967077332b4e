package auth

import "context"

type StoreAPI interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (User, error)
	SaveUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
}
