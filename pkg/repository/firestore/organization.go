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

type organizationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newOrganizationRepository(client *firestore.Client) *organizationRepository {
	return &organizationRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *organizationRepository) organizationsCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "organizations"))
}

// codesCollection reserves invite codes so that two organizations never share one
func (r *organizationRepository) codesCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "organization_codes"))
}

type codeReservation struct {
	OrganizationID string
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	now := time.Now().UTC()
	created := org.Clone()
	created.ID = types.NewOrganizationID()
	created.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	codeRef := r.codesCollection().Doc(created.Code.String())
	orgRef := r.organizationsCollection().Doc(created.ID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(codeRef, &codeReservation{OrganizationID: created.ID.String()}); err != nil {
			return goerr.Wrap(err, "failed to reserve organization code", goerr.V("code", created.Code))
		}
		return tx.Create(orgRef, created)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create organization", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *organizationRepository) Get(ctx context.Context, id types.OrganizationID) (*model.Organization, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrNotFound, "organization not found", goerr.V("id", id))
	}

	docSnap, err := r.organizationsCollection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "organization not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get organization", goerr.V("id", id))
	}

	var org model.Organization
	if err := docSnap.DataTo(&org); err != nil {
		return nil, goerr.Wrap(err, "failed to decode organization", goerr.V("id", id))
	}
	return &org, nil
}

func (r *organizationRepository) GetByCode(ctx context.Context, code types.OrganizationCode) (*model.Organization, error) {
	iter := r.organizationsCollection().
		Where("Code", "==", code.String()).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query organization by code", goerr.V("code", code))
	}

	var org model.Organization
	if err := docSnap.DataTo(&org); err != nil {
		return nil, goerr.Wrap(err, "failed to decode organization", goerr.V("doc_id", docSnap.Ref.ID))
	}
	return &org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	docRef := r.organizationsCollection().Doc(org.ID.String())

	var updated *model.Organization
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "organization not found", goerr.V("id", org.ID))
			}
			return goerr.Wrap(err, "failed to check organization existence", goerr.V("id", org.ID))
		}

		var existing model.Organization
		if err := docSnap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode organization", goerr.V("id", org.ID))
		}

		updated = org.Clone()
		updated.Code = existing.Code
		updated.Normalize()
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		return tx.Set(docRef, updated)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update organization", goerr.V("id", org.ID))
	}

	return updated, nil
}
