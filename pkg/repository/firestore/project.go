package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type projectRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newProjectRepository(client *firestore.Client) *projectRepository {
	return &projectRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *projectRepository) projectsCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "projects"))
}

func (r *projectRepository) Create(ctx context.Context, p *model.Project) (*model.Project, error) {
	now := time.Now().UTC()
	created := p.Clone()
	created.ID = types.NewProjectID()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.projectsCollection().Doc(created.ID.String()).Create(ctx, created); err != nil {
		return nil, goerr.Wrap(err, "failed to create project", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *projectRepository) Get(ctx context.Context, id types.ProjectID) (*model.Project, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
	}

	docSnap, err := r.projectsCollection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("id", id))
	}

	var p model.Project
	if err := docSnap.DataTo(&p); err != nil {
		return nil, goerr.Wrap(err, "failed to decode project", goerr.V("id", id))
	}

	return &p, nil
}

func (r *projectRepository) FindByOwnerAndName(ctx context.Context, owner types.UserID, name string) (*model.Project, error) {
	iter := r.projectsCollection().
		Where("OwnerID", "==", owner.String()).
		Where("ProjectName", "==", name).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query project by name",
			goerr.V("owner", owner),
			goerr.V("name", name))
	}

	var p model.Project
	if err := docSnap.DataTo(&p); err != nil {
		return nil, goerr.Wrap(err, "failed to decode project", goerr.V("doc_id", docSnap.Ref.ID))
	}
	return &p, nil
}

func (r *projectRepository) ListByOwner(ctx context.Context, owner types.UserID) ([]*model.Project, error) {
	q := r.projectsCollection().
		Where("OwnerID", "==", owner.String()).
		OrderBy("UpdatedAt", firestore.Desc)
	return r.collect(ctx, q)
}

func (r *projectRepository) ListByOrganization(ctx context.Context, org types.OrganizationID, owner *types.UserID) ([]*model.Project, error) {
	q := r.projectsCollection().Where("OrganizationID", "==", org.String())
	if owner != nil {
		q = q.Where("OwnerID", "==", owner.String())
	}
	return r.collect(ctx, q.OrderBy("UpdatedAt", firestore.Desc))
}

func (r *projectRepository) collect(ctx context.Context, q firestore.Query) ([]*model.Project, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	projects := make([]*model.Project, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate projects")
		}

		var p model.Project
		if err := docSnap.DataTo(&p); err != nil {
			return nil, goerr.Wrap(err, "failed to decode project", goerr.V("doc_id", docSnap.Ref.ID))
		}
		projects = append(projects, &p)
	}

	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, p *model.Project) (*model.Project, error) {
	docRef := r.projectsCollection().Doc(p.ID.String())

	var updated *model.Project
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", p.ID))
			}
			return goerr.Wrap(err, "failed to check project existence", goerr.V("id", p.ID))
		}

		var existing model.Project
		if err := docSnap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode project", goerr.V("id", p.ID))
		}

		updated = p.Clone()
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		return tx.Set(docRef, updated)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update project", goerr.V("id", p.ID))
	}

	return updated, nil
}

func (r *projectRepository) Delete(ctx context.Context, id types.ProjectID) error {
	docRef := r.projectsCollection().Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "project not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check project existence", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete project", goerr.V("id", id))
	}

	return nil
}
