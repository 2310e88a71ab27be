package interfaces

import (
	"context"

	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// UserRepository defines the interface for User data access
type UserRepository interface {
	// Put creates or overwrites a user
	Put(ctx context.Context, user *model.User) error

	// Get retrieves a user by ID
	Get(ctx context.Context, id types.UserID) (*model.User, error)

	// GetMany retrieves the users that exist among ids, keyed by ID
	GetMany(ctx context.Context, ids []types.UserID) (map[types.UserID]*model.User, error)

	// FindByEmail returns the user with exactly that email, or nil
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
