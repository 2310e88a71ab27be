package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = interfaces.ErrNotFound

type Firestore struct {
	client       *firestore.Client
	project      *projectRepository
	organization *organizationRepository
	user         *userRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.project.collectionPrefix = prefix
		f.organization.collectionPrefix = prefix
		f.user.collectionPrefix = prefix
	}
}

// New connects to Firestore. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:       client,
		project:      newProjectRepository(client),
		organization: newOrganizationRepository(client),
		user:         newUserRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Project() interfaces.ProjectRepository {
	return f.project
}

func (f *Firestore) Organization() interfaces.OrganizationRepository {
	return f.organization
}

func (f *Firestore) User() interfaces.UserRepository {
	return f.user
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}
