package middleware

import (
	"context"

	"github.com/dmreyes/milasset-backend/internal/scope"
)

type contextKey string

const ctxActor contextKey = "actor"

// ActorFromContext returns the authenticated actor seeded by Auth.
func ActorFromContext(ctx context.Context) (scope.Actor, bool) {
	if ctx == nil {
		return scope.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(scope.Actor)
	return actor, ok
}

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, actor scope.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}
