package interfaces

import (
	"context"

	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// OrganizationRepository defines the interface for Organization data access
type OrganizationRepository interface {
	// Create stores a new organization, assigning ID and timestamps
	Create(ctx context.Context, org *model.Organization) (*model.Organization, error)

	// Get retrieves an organization by ID
	Get(ctx context.Context, id types.OrganizationID) (*model.Organization, error)

	// GetByCode retrieves an organization by invite code.
	// Returns nil, nil if no organization uses the code.
	GetByCode(ctx context.Context, code types.OrganizationCode) (*model.Organization, error)

	// Update overwrites the organization and bumps UpdatedAt
	Update(ctx context.Context, org *model.Organization) (*model.Organization, error)
}
