package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/model/auth"
)

type UseCases struct {
	repo           interfaces.Repository
	scoring        interfaces.ScoringService
	policy         model.RiskLevelPolicy
	listPolicy     model.RiskLevelPolicy
	seedAdminEmail string

	Auth         AuthUseCaseInterface
	User         *UserUseCase
	Project      *ProjectUseCase
	Organization *OrganizationUseCase
	Risk         *RiskUseCase
	Mitigation   *MitigationUseCase
}

type Option func(*UseCases)

// WithScoring sets the external scoring service
func WithScoring(svc interfaces.ScoringService) Option {
	return func(uc *UseCases) {
		uc.scoring = svc
	}
}

// WithRiskLevelPolicy sets the thresholds used for organization views
func WithRiskLevelPolicy(policy model.RiskLevelPolicy) Option {
	return func(uc *UseCases) {
		uc.policy = policy
	}
}

// WithProjectListPolicy sets the thresholds used for the owner's project list
func WithProjectListPolicy(policy model.RiskLevelPolicy) Option {
	return func(uc *UseCases) {
		uc.listPolicy = policy
	}
}

// WithSeedAdminEmail sets the email that is granted the admin role on
// registration
func WithSeedAdminEmail(email string) Option {
	return func(uc *UseCases) {
		uc.seedAdminEmail = email
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:       repo,
		policy:     model.CanonicalRiskLevelPolicy,
		listPolicy: model.CanonicalRiskLevelPolicy,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.User = NewUserUseCase(repo, uc.seedAdminEmail)
	uc.Project = NewProjectUseCase(repo, uc.listPolicy)
	uc.Organization = NewOrganizationUseCase(repo, uc.policy)
	uc.Risk = NewRiskUseCase(uc.scoring)
	uc.Mitigation = NewMitigationUseCase(repo, uc.scoring)

	return uc
}

// currentUser resolves the registered user of the authenticated principal
func currentUser(ctx context.Context, repo interfaces.Repository) (*model.User, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthenticated, "no principal")
	}

	user, err := repo.User().Get(ctx, principal.Sub)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrUnauthenticated, "principal is not registered",
				goerr.V(UserIDKey, principal.Sub))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V(UserIDKey, principal.Sub))
	}
	return user, nil
}
