package model

import (
	"slices"
	"time"

	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// Organization groups users under a manager. The manager is always a member.
type Organization struct {
	ID          types.OrganizationID   `json:"id"`
	Name        string                 `json:"name"`
	Code        types.OrganizationCode `json:"code"`
	ManagerID   types.UserID           `json:"manager"`
	MemberIDs   []types.UserID         `json:"members"`
	Description string                 `json:"description,omitempty"`
	Industry    types.Industry         `json:"industry"`
	Size        types.OrganizationSize `json:"size"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// IsManager reports whether userID manages the organization
func (o *Organization) IsManager(userID types.UserID) bool {
	return o.ManagerID == userID
}

// HasMember reports whether userID belongs to the organization
func (o *Organization) HasMember(userID types.UserID) bool {
	return o.IsManager(userID) || slices.Contains(o.MemberIDs, userID)
}

// AddMember adds userID once
func (o *Organization) AddMember(userID types.UserID) {
	if !slices.Contains(o.MemberIDs, userID) {
		o.MemberIDs = append(o.MemberIDs, userID)
	}
}

// RemoveMember removes userID unless it is the manager. It returns whether
// the member list changed.
func (o *Organization) RemoveMember(userID types.UserID) bool {
	if o.IsManager(userID) {
		return false
	}
	before := len(o.MemberIDs)
	o.MemberIDs = slices.DeleteFunc(o.MemberIDs, func(id types.UserID) bool { return id == userID })
	return len(o.MemberIDs) != before
}

// Normalize applies defaults and puts the manager into the member list
func (o *Organization) Normalize() {
	if o.Industry == "" {
		o.Industry = types.IndustryOther
	}
	if o.Size == "" {
		o.Size = types.OrganizationSizeSmall
	}
	if o.ManagerID != "" {
		o.AddMember(o.ManagerID)
	}
}

// Clone returns a deep copy
func (o *Organization) Clone() *Organization {
	if o == nil {
		return nil
	}
	c := *o
	if o.MemberIDs != nil {
		c.MemberIDs = append([]types.UserID{}, o.MemberIDs...)
	}
	return &c
}
