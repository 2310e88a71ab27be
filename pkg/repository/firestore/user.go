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

type userRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newUserRepository(client *firestore.Client) *userRepository {
	return &userRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *userRepository) usersCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, "users"))
}

func (r *userRepository) Put(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		return goerr.New("user ID is required")
	}

	docRef := r.usersCollection().Doc(user.ID.String())
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		stored := user.Clone()
		stored.UpdatedAt = now

		docSnap, err := tx.Get(docRef)
		switch {
		case err == nil:
			var existing model.User
			if err := docSnap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode user", goerr.V("id", user.ID))
			}
			stored.CreatedAt = existing.CreatedAt
		case status.Code(err) == codes.NotFound:
			if stored.CreatedAt.IsZero() {
				stored.CreatedAt = now
			}
		default:
			return goerr.Wrap(err, "failed to get user", goerr.V("id", user.ID))
		}

		if err := tx.Set(docRef, stored); err != nil {
			return goerr.Wrap(err, "failed to put user", goerr.V("id", user.ID))
		}
		return nil
	})
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
	}

	docSnap, err := r.usersCollection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	var user model.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("id", id))
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	iter := r.usersCollection().
		Where("Email", "==", email).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	docSnap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query user by email", goerr.V("email", email))
	}

	var user model.User
	if err := docSnap.DataTo(&user); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("doc_id", docSnap.Ref.ID))
	}
	return &user, nil
}

func (r *userRepository) GetMany(ctx context.Context, ids []types.UserID) (map[types.UserID]*model.User, error) {
	result := make(map[types.UserID]*model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		refs = append(refs, r.usersCollection().Doc(id.String()))
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get users", goerr.V("count", len(refs)))
	}

	for _, docSnap := range docs {
		if !docSnap.Exists() {
			continue
		}
		var user model.User
		if err := docSnap.DataTo(&user); err != nil {
			return nil, goerr.Wrap(err, "failed to decode user", goerr.V("doc_id", docSnap.Ref.ID))
		}
		result[user.ID] = &user
	}
	return result, nil
}
