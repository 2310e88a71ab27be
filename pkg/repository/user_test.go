package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

func runUserRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and Get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.User().Put(ctx, &model.User{
			ID:    "alice",
			Email: "alice@example.com",
			Name:  "Alice",
			Role:  types.RoleUser,
		})).Required()

		got, err := repo.User().Get(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Alice")
		gt.Bool(t, got.CreatedAt.IsZero()).False()
		created := got.CreatedAt

		got.OrganizationID = "org1"
		gt.NoError(t, repo.User().Put(ctx, got)).Required()

		again, err := repo.User().Get(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Value(t, again.OrganizationID).Equal(types.OrganizationID("org1"))
		gt.Bool(t, again.CreatedAt.Equal(created)).True()
	})

	t.Run("Get returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.User().Get(context.Background(), "nobody")
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Put requires ID", func(t *testing.T) {
		repo := newRepo(t)
		gt.Error(t, repo.User().Put(context.Background(), &model.User{Name: "x"}))
	})

	t.Run("FindByEmail matches exactly", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.User().Put(ctx, &model.User{ID: "alice", Email: "alice@example.com"})).Required()
		gt.NoError(t, repo.User().Put(ctx, &model.User{ID: "bob", Email: "bob@example.com"})).Required()

		got, err := repo.User().FindByEmail(ctx, "bob@example.com")
		gt.NoError(t, err).Required()
		gt.Value(t, got).NotNil()
		gt.Value(t, got.ID).Equal(types.UserID("bob"))

		missing, err := repo.User().FindByEmail(ctx, "carol@example.com")
		gt.NoError(t, err)
		gt.Value(t, missing).Nil()
	})

	t.Run("GetMany skips unknown users", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.NoError(t, repo.User().Put(ctx, &model.User{ID: "u1", Name: "One"})).Required()
		gt.NoError(t, repo.User().Put(ctx, &model.User{ID: "u2", Name: "Two"})).Required()

		users, err := repo.User().GetMany(ctx, []types.UserID{"u1", "u2", "ghost"})
		gt.NoError(t, err).Required()
		gt.Number(t, len(users)).Equal(2)
		gt.Value(t, users["u2"].Name).Equal("Two")

		empty, err := repo.User().GetMany(ctx, nil)
		gt.NoError(t, err).Required()
		gt.Number(t, len(empty)).Equal(0)
	})
}

func TestMemoryUserRepository(t *testing.T) {
	runUserRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreUserRepository(t *testing.T) {
	runUserRepositoryTest(t, newFirestoreRepository)
}
