package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"workshop/internal/domain/auth"
	"workshop/internal/transport/http/api"
)

// ActorResolver maps verified token claims onto the current actor.
type ActorResolver interface {
	ResolveActor(ctx context.Context, claims *auth.Claims) (auth.Actor, error)
}

// Auth attaches the actor for a valid bearer token. Requests without one
// pass through anonymously, as do tokens whose user no longer exists. With a
// nil resolver the actor comes from the claims alone. Stream endpoints also
// accept the token in the access_token query parameter.
func Auth(secret string, resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			actor := claims.Actor()
			if resolver != nil {
				actor, err = resolver.ResolveActor(r.Context(), claims)
				switch {
				case errors.Is(err, auth.ErrUserNotFound):
					next.ServeHTTP(w, r)
					return
				case err != nil:
					zap.L().Error("resolve actor failed", zap.String("userId", claims.UserID), zap.Error(err))
					api.Fail(w, http.StatusServiceUnavailable, "auth_unavailable", "cannot verify credentials", GetRequestID(r.Context()))
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), actor)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return ""
		}
		return parts[1]
	}
	if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/stream") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
