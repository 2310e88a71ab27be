package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

type projectRepository struct {
	mu       sync.RWMutex
	projects map[types.ProjectID]*model.Project
}

func newProjectRepository() *projectRepository {
	return &projectRepository{
		projects: make(map[types.ProjectID]*model.Project),
	}
}

func (r *projectRepository) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := p.Clone()
	created.ID = types.NewProjectID()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.projects[created.ID] = created
	return created.Clone(), nil
}

func (r *projectRepository) Get(ctx context.Context, id types.ProjectID) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.projects[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
	}
	return p.Clone(), nil
}

func (r *projectRepository) FindByOwnerAndName(ctx context.Context, owner types.UserID, name string) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.projects {
		if p.OwnerID == owner && p.ProjectName == name {
			return p.Clone(), nil
		}
	}
	return nil, nil
}

func (r *projectRepository) ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Project, error) {
	return r.list(func(p *model.Project) bool { return p.OwnerID == owner }), nil
}

func (r *projectRepository) ListByOrganization(ctx context.Context, org types.OrganizationID, owner *types.UserID) ([]*model.Project, error) {
	return r.list(func(p *model.Project) bool {
		if p.OrganizationID != org {
			return false
		}
		return owner == nil || p.OwnerID == *owner
	}), nil
}

func (r *projectRepository) list(match func(p *model.Project) bool) []*model.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]*model.Project, 0)
	for _, p := range r.projects {
		if match(p) {
			projects = append(projects, p.Clone())
		}
	}

	slices.SortFunc(projects, func(a, b *model.Project) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return projects
}

func (r *projectRepository) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.projects[p.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", p.ID))
	}

	updated := p.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.projects[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *projectRepository) Delete(ctx context.Context, id types.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[id]; !exists {
		return goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
	}

	delete(r.projects, id)
	return nil
}
