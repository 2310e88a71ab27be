package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/model/auth"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
)

const maxOrganizationCodeAttempts = 32

// RegisterInput is the registration request of an authenticated principal
type RegisterInput struct {
	Name               string                   `json:"name" validate:"required,max=100"`
	OrganizationAction types.OrganizationAction `json:"organizationAction" validate:"required,oneof=create join"`
	OrganizationName   string                   `json:"organizationName" validate:"required_if=OrganizationAction create,max=100"`
	OrganizationCode   string                   `json:"organizationCode" validate:"required_if=OrganizationAction join"`
	Industry           types.Industry           `json:"industry,omitempty"`
	Size               types.OrganizationSize   `json:"size,omitempty"`
}

// UserProfile is a user with the organization it belongs to
type UserProfile struct {
	User         *model.User         `json:"user"`
	Organization *model.Organization `json:"organization,omitempty"`
}

type UserUseCase struct {
	repo           interfaces.Repository
	seedAdminEmail string
	generateCode   func() (types.OrganizationCode, error)
}

func NewUserUseCase(repo interfaces.Repository, seedAdminEmail string) *UserUseCase {
	return &UserUseCase{
		repo:           repo,
		seedAdminEmail: strings.TrimSpace(seedAdminEmail),
		generateCode:   randomOrganizationCode,
	}
}

// Register creates the user record of the authenticated principal and either
// creates a new organization managed by the user or joins one by code
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*UserProfile, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthenticated, "no principal")
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		input.Name = principal.Name
	}
	input.OrganizationName = strings.TrimSpace(input.OrganizationName)
	input.OrganizationCode = strings.TrimSpace(input.OrganizationCode)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Industry != "" && !input.Industry.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid industry", goerr.V("industry", input.Industry))
	}
	if input.Size != "" && !input.Size.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid organization size", goerr.V("size", input.Size))
	}

	if _, err := uc.repo.User().Get(ctx, principal.Sub); err == nil {
		return nil, goerr.Wrap(ErrAlreadyRegistered, "user already exists", goerr.V(UserIDKey, principal.Sub))
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(err, "failed to look up user", goerr.V(UserIDKey, principal.Sub))
	}

	user := &model.User{
		ID:    principal.Sub,
		Email: normalizeEmail(principal.Email),
		Name:  input.Name,
		Role:  types.RoleUser,
	}

	var org *model.Organization
	switch input.OrganizationAction {
	case types.OrganizationActionCreate:
		user.Role = types.RoleManager
		org, err = uc.createOrganization(ctx, user, input)
	case types.OrganizationActionJoin:
		org, err = uc.joinOrganization(ctx, user, types.NormalizeOrganizationCode(input.OrganizationCode))
	}
	if err != nil {
		return nil, err
	}

	if uc.isSeedAdmin(user.Email) {
		user.Role = types.RoleAdmin
	}
	user.OrganizationID = org.ID
	if err := uc.repo.User().Put(ctx, user); err != nil {
		return nil, goerr.Wrap(err, "failed to save user", goerr.V(UserIDKey, user.ID))
	}

	stored, err := uc.repo.User().Get(ctx, user.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reload user", goerr.V(UserIDKey, user.ID))
	}

	logging.From(ctx).Info("user registered",
		"user_id", user.ID,
		"organization_id", org.ID,
		"action", input.OrganizationAction,
		"role", user.Role,
	)
	return &UserProfile{User: stored, Organization: org}, nil
}

func (uc *UserUseCase) createOrganization(ctx context.Context, manager *model.User, input RegisterInput) (*model.Organization, error) {
	code, err := uc.uniqueOrganizationCode(ctx)
	if err != nil {
		return nil, err
	}

	org, err := uc.repo.Organization().Create(ctx, &model.Organization{
		Name:      input.OrganizationName,
		Code:      code,
		ManagerID: manager.ID,
		MemberIDs: []types.UserID{manager.ID},
		Industry:  input.Industry,
		Size:      input.Size,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create organization", goerr.V("code", code))
	}
	return org, nil
}

func (uc *UserUseCase) joinOrganization(ctx context.Context, user *model.User, code types.OrganizationCode) (*model.Organization, error) {
	org, err := uc.repo.Organization().GetByCode(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up organization code", goerr.V("code", code))
	}
	if org == nil {
		return nil, goerr.Wrap(ErrInvalidOrganizationCode, "no organization uses the code", goerr.V("code", code))
	}

	org.AddMember(user.ID)
	updated, err := uc.repo.Organization().Update(ctx, org)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to add member", goerr.V(OrganizationIDKey, org.ID))
	}
	return updated, nil
}

// uniqueOrganizationCode draws codes until one is unused
func (uc *UserUseCase) uniqueOrganizationCode(ctx context.Context) (types.OrganizationCode, error) {
	for attempt := 1; attempt <= maxOrganizationCodeAttempts; attempt++ {
		code, err := uc.generateCode()
		if err != nil {
			return "", goerr.Wrap(err, "failed to generate organization code")
		}

		existing, err := uc.repo.Organization().GetByCode(ctx, code)
		if err != nil {
			return "", goerr.Wrap(err, "failed to check organization code", goerr.V("code", code))
		}
		if existing == nil {
			return code, nil
		}
		logging.From(ctx).Debug("organization code collision", "code", code, "attempt", attempt)
	}
	return "", goerr.New("could not find an unused organization code",
		goerr.V("attempts", maxOrganizationCodeAttempts))
}

func (uc *UserUseCase) isSeedAdmin(email string) bool {
	return uc.seedAdminEmail != "" && strings.EqualFold(strings.TrimSpace(email), uc.seedAdminEmail)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminPromotion reports the outcome of an admin promotion
type AdminPromotion struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// InitAdmin grants the admin role to the registered user of the seed admin
// email. It is idempotent.
func (uc *UserUseCase) InitAdmin(ctx context.Context) (*AdminPromotion, error) {
	if uc.seedAdminEmail == "" {
		return nil, goerr.Wrap(ErrValidation, "seed admin email is not configured")
	}

	user, err := uc.repo.User().FindByEmail(ctx, normalizeEmail(uc.seedAdminEmail))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up seed admin")
	}
	if user == nil {
		return nil, goerr.Wrap(ErrUserNotFound, "seed admin has not registered yet",
			goerr.V("email", uc.seedAdminEmail))
	}
	if user.Role == types.RoleAdmin {
		return &AdminPromotion{Message: "Admin user already exists", User: user}, nil
	}

	promoted, err := uc.promote(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AdminPromotion{Message: "Existing user promoted to admin", User: promoted}, nil
}

// PromoteAdmin grants the admin role to the user with email. Only the seed
// admin may call it.
func (uc *UserUseCase) PromoteAdmin(ctx context.Context, email string) (*AdminPromotion, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthenticated, "no principal")
	}
	if !uc.isSeedAdmin(principal.Email) {
		return nil, goerr.Wrap(ErrForbidden, "only the main admin can promote users",
			goerr.V(UserIDKey, principal.Sub))
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, goerr.Wrap(ErrValidation, "email is required")
	}

	user, err := uc.repo.User().FindByEmail(ctx, email)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up user", goerr.V("email", email))
	}
	if user == nil {
		return nil, goerr.Wrap(ErrUserNotFound, "no user has the email", goerr.V("email", email))
	}
	if user.Role == types.RoleAdmin {
		return &AdminPromotion{Message: "User promoted to admin", User: user}, nil
	}

	promoted, err := uc.promote(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AdminPromotion{Message: "User promoted to admin", User: promoted}, nil
}

func (uc *UserUseCase) promote(ctx context.Context, user *model.User) (*model.User, error) {
	user.Role = types.RoleAdmin
	if err := uc.repo.User().Put(ctx, user); err != nil {
		return nil, goerr.Wrap(err, "failed to save user", goerr.V(UserIDKey, user.ID))
	}
	stored, err := uc.repo.User().Get(ctx, user.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reload user", goerr.V(UserIDKey, user.ID))
	}

	logging.From(ctx).Info("user promoted to admin", "user_id", user.ID)
	return stored, nil
}

// Profile returns the registered user of the principal with its organization
func (uc *UserUseCase) Profile(ctx context.Context) (*UserProfile, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthenticated, "no principal")
	}

	user, err := uc.repo.User().Get(ctx, principal.Sub)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrUserNotFound, "user is not registered", goerr.V(UserIDKey, principal.Sub))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V(UserIDKey, principal.Sub))
	}

	profile := &UserProfile{User: user}
	if user.OrganizationID == "" {
		return profile, nil
	}

	org, err := uc.repo.Organization().Get(ctx, user.OrganizationID)
	switch {
	case err == nil:
		profile.Organization = org
	case errors.Is(err, interfaces.ErrNotFound):
		logging.From(ctx).Warn("user references missing organization",
			"user_id", user.ID, "organization_id", user.OrganizationID)
	default:
		return nil, goerr.Wrap(err, "failed to get organization", goerr.V(OrganizationIDKey, user.OrganizationID))
	}
	return profile, nil
}

func randomOrganizationCode() (types.OrganizationCode, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return types.OrganizationCode(strings.ToUpper(hex.EncodeToString(buf))), nil
}
