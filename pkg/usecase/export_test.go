package usecase

import "github.com/riskcompass/riskcompass/pkg/domain/types"

// SetCodeGenerator replaces the organization code generator for testing
func SetCodeGenerator(uc *UserUseCase, fn func() (types.OrganizationCode, error)) {
	uc.generateCode = fn
}

// RandomOrganizationCode is exported for testing
var RandomOrganizationCode = randomOrganizationCode

// UpstreamDetail is exported for testing
var UpstreamDetail = upstreamDetail
