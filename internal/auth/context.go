package auth

import (
	"context"

	"github.com/nurpe/contratpro/internal/model"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (*model.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*model.Principal)
	return p, ok && p != nil
}

// ContextIdentity reports the principal attached to the request context by
// the auth middleware.
type ContextIdentity struct{}

func (ContextIdentity) Current(ctx context.Context) (*model.Principal, error) {
	p, _ := FromContext(ctx)
	return p, nil
}
