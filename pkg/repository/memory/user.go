package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[types.UserID]*model.User
}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[types.UserID]*model.User),
	}
}

func (r *userRepository) Put(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		return goerr.New("user ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := user.Clone()
	if existing, ok := r.users[user.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.users[stored.ID] = stored
	return nil
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
	}
	return user.Clone(), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return user.Clone(), nil
		}
	}
	return nil, nil
}

func (r *userRepository) GetMany(ctx context.Context, ids []types.UserID) (map[types.UserID]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[types.UserID]*model.User, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			result[id] = user.Clone()
		}
	}
	return result, nil
}
