package types

// Industry of an organization
type Industry string

const (
	IndustryConstruction Industry = "Construction"
	IndustryEngineering  Industry = "Engineering"
	IndustryArchitecture Industry = "Architecture"
	IndustryRealEstate   Industry = "Real Estate"
	IndustryOther        Industry = "Other"
)

// IsValid checks if the industry is valid
func (i Industry) IsValid() bool {
	switch i {
	case IndustryConstruction,
		IndustryEngineering,
		IndustryArchitecture,
		IndustryRealEstate,
		IndustryOther:
		return true
	default:
		return false
	}
}

func (i Industry) String() string {
	return string(i)
}

// OrganizationSize is the head-count bucket of an organization
type OrganizationSize string

const (
	OrganizationSizeSmall      OrganizationSize = "Small"
	OrganizationSizeMedium     OrganizationSize = "Medium"
	OrganizationSizeLarge      OrganizationSize = "Large"
	OrganizationSizeEnterprise OrganizationSize = "Enterprise"
)

// IsValid checks if the size is valid
func (s OrganizationSize) IsValid() bool {
	switch s {
	case OrganizationSizeSmall,
		OrganizationSizeMedium,
		OrganizationSizeLarge,
		OrganizationSizeEnterprise:
		return true
	default:
		return false
	}
}

func (s OrganizationSize) String() string {
	return string(s)
}

// OrganizationAction selects whether registration creates or joins an organization
type OrganizationAction string

const (
	OrganizationActionCreate OrganizationAction = "create"
	OrganizationActionJoin   OrganizationAction = "join"
)

// IsValid checks if the action is valid
func (a OrganizationAction) IsValid() bool {
	return a == OrganizationActionCreate || a == OrganizationActionJoin
}
