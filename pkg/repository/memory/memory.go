package memory

import (
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps all entities in process memory. Every read returns a deep copy.
type Memory struct {
	project      *projectRepository
	organization *organizationRepository
	user         *userRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		project:      newProjectRepository(),
		organization: newOrganizationRepository(),
		user:         newUserRepository(),
	}
}

func (m *Memory) Project() interfaces.ProjectRepository {
	return m.project
}

func (m *Memory) Organization() interfaces.OrganizationRepository {
	return m.organization
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Close() error {
	return nil
}
