package interfaces

import "errors"

// Repository defines the interface for data persistence
type Repository interface {
	Project() ProjectRepository
	Organization() OrganizationRepository
	User() UserRepository

	Close() error
}

// ErrNotFound is wrapped by every repository implementation when the
// requested entity does not exist
var ErrNotFound = errors.New("not found")
