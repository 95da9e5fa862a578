package ctxutil

import (
	"context"
	"time"
)

// private keys to avoid collisions
type key int

const (
	keyActorID key = iota
)

// WithActorID stores the acting principal's user id; ActorID reads it back.
func WithActorID(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, keyActorID, actorID)
}

func ActorID(ctx context.Context) (int64, bool) {
	v := ctx.Value(keyActorID)
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

var DefaultDBTimeout = 5 * time.Second

// WithDBTimeout applies the standard timeout for store calls; it never
// extends a parent deadline.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
