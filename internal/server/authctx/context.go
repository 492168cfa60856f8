// Package authctx carries the authenticated principal through a request
// context.
package authctx

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the user a request acts as.
type Principal struct {
	UserID uuid.UUID
}

type contextKey struct{}

func Set(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// Get returns the principal stored by Set.
func Get(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
