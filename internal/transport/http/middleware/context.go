package middleware

import (
	"context"

	"workshop/internal/domain/auth"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyUser      ctxKey = "user"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return value
	}
	return ""
}

// WithUser stores the authenticated actor.
func WithUser(ctx context.Context, actor auth.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyUser, actor)
}

func GetUser(ctx context.Context) (auth.Actor, bool) {
	actor, ok := ctx.Value(ctxKeyUser).(auth.Actor)
	return actor, ok
}
