package httpapi

import (
	"context"

	"github.com/midas-vault/midas-vault/internal/domain/user"
)

type authContextKey string

const authActorKey authContextKey = "authActor"

func withActor(ctx context.Context, actor user.Actor) context.Context {
	return context.WithValue(ctx, authActorKey, actor)
}

func actorFromContext(ctx context.Context) (user.Actor, bool) {
	actor, ok := ctx.Value(authActorKey).(user.Actor)
	return actor, ok
}

// actorFrom is for handlers behind requireAuth.
func actorFrom(ctx context.Context) user.Actor {
	actor, _ := actorFromContext(ctx)
	return actor
}
