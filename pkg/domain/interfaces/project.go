package interfaces

import (
	"context"

	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// ProjectRepository defines the interface for Project data access. It does
// not check ownership; use cases scope access by owner.
type ProjectRepository interface {
	// Create stores a new project, assigning ID, CreatedAt and UpdatedAt
	Create(ctx context.Context, p *model.Project) (*model.Project, error)

	// Get retrieves a project by ID
	Get(ctx context.Context, id types.ProjectID) (*model.Project, error)

	// FindByOwnerAndName returns the owner's project with exactly that name.
	// Returns nil, nil if none exists.
	FindByOwnerAndName(ctx context.Context, owner types.UserID, name string) (*model.Project, error)

	// ListByOwner returns the owner's projects, most recently updated first
	ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Project, error)

	// ListByOrganization returns projects stamped with the organization, most
	// recently updated first. When owner is not nil only that owner's
	// projects are returned.
	ListByOrganization(ctx context.Context, org types.OrganizationID, owner *types.UserID) ([]*model.Project, error)

	// Update overwrites the whole project and bumps UpdatedAt
	Update(ctx context.Context, p *model.Project) (*model.Project, error)

	// Delete deletes a project by ID
	Delete(ctx context.Context, id types.ProjectID) error
}
