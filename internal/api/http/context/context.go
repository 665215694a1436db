package context

import (
	"context"

	"github.com/dtroode/community-board-server/internal/model"
)

type actorKey struct{}

// Manager stores the authenticated actor in a request context.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

var _ model.ContextManager = (*Manager)(nil)

// SetActorToContext returns a copy of ctx carrying the actor.
func (m *Manager) SetActorToContext(ctx context.Context, actor model.User) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActorFromContext returns the actor stored by SetActorToContext.
//
// Returns the actor and a boolean indicating if an actor was found.
func (m *Manager) GetActorFromContext(ctx context.Context) (model.User, bool) {
	actor, ok := ctx.Value(actorKey{}).(model.User)
	return actor, ok
}
