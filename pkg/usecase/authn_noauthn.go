package usecase

import (
	"context"

	"github.com/riskcompass/riskcompass/pkg/domain/model/auth"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// NoAuthnUseCase authenticates every request as a fixed user (for development/testing)
type NoAuthnUseCase struct {
	sub   types.UserID
	email string
	name  string
}

// NewNoAuthnUseCase creates a new NoAuthnUseCase instance with specified user info
func NewNoAuthnUseCase(sub types.UserID, email, name string) *NoAuthnUseCase {
	return &NoAuthnUseCase{
		sub:   sub,
		email: email,
		name:  name,
	}
}

// Authenticate ignores the token and returns the configured user
func (uc *NoAuthnUseCase) Authenticate(ctx context.Context, bearer string) (*auth.Principal, error) {
	return auth.NewPrincipal(uc.sub, uc.email, uc.name), nil
}

// IsNoAuthn returns true for NoAuthnUseCase
func (uc *NoAuthnUseCase) IsNoAuthn() bool {
	return true
}
