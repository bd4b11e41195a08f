package authz

import (
	"context"

	"github.com/funday-app/funday-server/internal/models"
)

// Context is the immutable per-request identity resolved once by the auth
// middleware. Guards take it by value and never mutate it.
type Context struct {
	UserID        uint
	Role          string
	Authenticated bool
}

func (a Context) IsAdmin() bool  { return a.Authenticated && a.Role == models.RoleAdmin }
func (a Context) IsEditor() bool { return a.Authenticated && a.Role == models.RoleEditor }

type ctxKey struct{}

func IntoContext(ctx context.Context, a Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the resolved identity, or the zero (anonymous) Context
// when none was set.
func FromContext(ctx context.Context) Context {
	if v := ctx.Value(ctxKey{}); v != nil {
		if a, ok := v.(Context); ok {
			return a
		}
	}
	return Context{}
}
