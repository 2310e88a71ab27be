package model

import (
	"time"

	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// User is the application record of an authenticated principal
type User struct {
	ID             types.UserID         `json:"id"`
	Email          string               `json:"email"`
	Name           string               `json:"name"`
	Role           types.Role           `json:"role"`
	OrganizationID types.OrganizationID `json:"organization,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// Clone returns a copy
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
