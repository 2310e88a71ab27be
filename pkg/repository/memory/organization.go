package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

type organizationRepository struct {
	mu   sync.RWMutex
	orgs map[types.OrganizationID]*model.Organization
}

func newOrganizationRepository() *organizationRepository {
	return &organizationRepository{
		orgs: make(map[types.OrganizationID]*model.Organization),
	}
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orgs {
		if existing.Code == org.Code {
			return nil, goerr.New("organization code already in use", goerr.V("code", org.Code))
		}
	}

	now := time.Now().UTC()
	created := org.Clone()
	created.ID = types.NewOrganizationID()
	created.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.orgs[created.ID] = created
	return created.Clone(), nil
}

func (r *organizationRepository) Get(ctx context.Context, id types.OrganizationID) (*model.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	org, exists := r.orgs[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "organization not found", goerr.V("id", id))
	}
	return org.Clone(), nil
}

func (r *organizationRepository) GetByCode(ctx context.Context, code types.OrganizationCode) (*model.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, org := range r.orgs {
		if org.Code == code {
			return org.Clone(), nil
		}
	}
	return nil, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.orgs[org.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "organization not found", goerr.V("id", org.ID))
	}

	updated := org.Clone()
	updated.Normalize()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.orgs[updated.ID] = updated
	return updated.Clone(), nil
}
