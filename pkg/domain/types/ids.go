package types

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// ProjectID identifies a saved project
type ProjectID string

// NewProjectID generates a new UUID v4 ProjectID
func NewProjectID() ProjectID {
	return ProjectID(uuid.New().String())
}

func (id ProjectID) String() string { return string(id) }

// OrganizationID identifies an organization
type OrganizationID string

// NewOrganizationID generates a new UUID v4 OrganizationID
func NewOrganizationID() OrganizationID {
	return OrganizationID(uuid.New().String())
}

func (id OrganizationID) String() string { return string(id) }

// UserID is the subject of the authenticated principal. It is issued by the
// external identity provider, so it is not generated here.
type UserID string

func (id UserID) String() string { return string(id) }

// OrganizationCode is the 6 character uppercase hex invite code of an organization
type OrganizationCode string

var organizationCodePattern = regexp.MustCompile(`^[0-9A-F]{6}$`)

// NormalizeOrganizationCode trims and upper-cases a user supplied code
func NormalizeOrganizationCode(s string) OrganizationCode {
	return OrganizationCode(strings.ToUpper(strings.TrimSpace(s)))
}

// Validate checks the code format
func (c OrganizationCode) Validate() error {
	if !organizationCodePattern.MatchString(string(c)) {
		return goerr.New("organization code must be 6 uppercase hex characters", goerr.V("code", c))
	}
	return nil
}

func (c OrganizationCode) String() string { return string(c) }
