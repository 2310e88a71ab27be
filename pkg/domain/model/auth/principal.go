package auth

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// ErrNoPrincipal is returned when the context carries no authenticated principal
var ErrNoPrincipal = goerr.New("no authenticated principal in context")

// Principal is the identity asserted by a verified bearer token
type Principal struct {
	Sub   types.UserID
	Email string
	Name  string
}

// NewPrincipal creates a principal
func NewPrincipal(sub types.UserID, email, name string) *Principal {
	return &Principal{Sub: sub, Email: email, Name: name}
}

type principalKey struct{}

// ContextWithPrincipal stores the principal in ctx
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx
func PrincipalFromContext(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	if !ok || p == nil {
		return nil, ErrNoPrincipal
	}
	return p, nil
}
