package model

import (
	"context"
)

// ContextManager stores the authenticated actor in a request context.
type ContextManager interface {
	SetActorToContext(ctx context.Context, actor User) context.Context
	GetActorFromContext(ctx context.Context) (User, bool)
}
