package middleware

import (
	"context"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/core/domain"
)

const actorCtxKey = contextKey("actor")

// GetActorFromCtx retrieves the authenticated actor from the request context.
// The boolean reports whether the auth middleware stored one.
func GetActorFromCtx(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey).(domain.Actor)
	return actor, ok
}
