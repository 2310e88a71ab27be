package usecase

import (
	"errors"
	"strings"
)

// Sentinel errors for use case layer
var (
	// Input errors
	ErrValidation              = errors.New("validation error")
	ErrDuplicateProjectName    = errors.New("project name already exists")
	ErrAlreadyRegistered       = errors.New("user already registered")
	ErrInvalidOrganizationCode = errors.New("invalid organization code")
	ErrCannotRemoveManager     = errors.New("cannot remove the organization manager")

	// Not found errors
	ErrProjectNotFound        = errors.New("project not found")
	ErrOrganizationNotFound   = errors.New("organization not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrNoMitigationStrategy   = errors.New("project has no mitigation strategy")

	// Access control errors
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")

	// Concurrency errors
	ErrApplyInFlight = errors.New("another recommendation is being applied")

	// Scoring service errors
	ErrScoringNotConfigured = errors.New("scoring service is not configured")
	ErrUpstreamUnavailable  = errors.New("risk analysis service is unavailable")
	ErrUpstreamFailed       = errors.New("risk analysis service request failed")
)

// Context keys for error values
const (
	ProjectIDKey      = "project_id"
	OrganizationIDKey = "organization_id"
	UserIDKey         = "user_id"
)

// MissingFieldsError reports required questionnaire answers that were not
// provided. It matches ErrValidation.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// MissingFields returns the absent field names in questionnaire order
func (e *MissingFieldsError) MissingFields() []string { return e.Fields }

func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrValidation
}
