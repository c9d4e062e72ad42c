package core

import "context"

// SystemActor is recorded on mutations that have no authenticated operator.
const SystemActor = "System"

type ctxKey int

const actorKey ctxKey = iota

// Actor is the operator performing a request.
type Actor struct {
	ID       string
	Username string
	Role     string
}

func (a Actor) Name() string {
	if a.Username == "" {
		return SystemActor
	}
	return a.Username
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the operator stored in ctx, or the zero Actor (named "System").
func ActorFromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey).(Actor); ok {
		return actor
	}
	return Actor{}
}
