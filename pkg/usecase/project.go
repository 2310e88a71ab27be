package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
)

// ProjectListFallback is shown for missing questionnaire answers in the
// owner's project list
const ProjectListFallback = "N/A"

// ProjectInput carries the writable fields of a project. On update only
// non-empty fields are applied.
type ProjectInput struct {
	ProjectName        string                    `json:"projectName"`
	ProjectInfo        *model.ProjectInfo        `json:"projectInfo,omitempty"`
	RiskResults        *model.RiskSnapshot       `json:"riskResults,omitempty"`
	MitigationStrategy *model.MitigationStrategy `json:"mitigationStrategy,omitempty"`
	Conversations      []model.Conversation      `json:"conversations,omitempty"`
}

// ProjectSummary is one row of the owner's project list
type ProjectSummary struct {
	ID           types.ProjectID `json:"id"`
	ProjectName  string          `json:"projectName"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	ProjectType  string          `json:"projectType"`
	CompanyScale string          `json:"companyScale"`
	AverageRisk  float64         `json:"averageRisk"`
	RiskLevel    types.RiskLevel `json:"riskLevel"`
}

type ProjectUseCase struct {
	repo       interfaces.Repository
	listPolicy model.RiskLevelPolicy
}

func NewProjectUseCase(repo interfaces.Repository, listPolicy model.RiskLevelPolicy) *ProjectUseCase {
	return &ProjectUseCase{
		repo:       repo,
		listPolicy: listPolicy,
	}
}

// Create saves a new project for the current user. The user's organization
// at this moment is stamped on the project.
func (uc *ProjectUseCase) Create(ctx context.Context, input ProjectInput) (*model.Project, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}

	name := input.ProjectName
	if name == "" {
		return nil, goerr.Wrap(ErrValidation, "project name is required")
	}

	existing, err := uc.repo.Project().FindByOwnerAndName(ctx, user.ID, name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check project name", goerr.V(UserIDKey, user.ID))
	}
	if existing != nil {
		return nil, goerr.Wrap(ErrDuplicateProjectName, "duplicate project name",
			goerr.V(UserIDKey, user.ID), goerr.V("project_name", name))
	}

	conversations := input.Conversations
	if conversations == nil {
		conversations = []model.Conversation{}
	}

	created, err := uc.repo.Project().Create(ctx, &model.Project{
		OwnerID:                user.ID,
		OrganizationID:         user.OrganizationID,
		ProjectName:            name,
		ProjectInfo:            input.ProjectInfo,
		RiskResults:            input.RiskResults,
		MitigationStrategy:     input.MitigationStrategy,
		Conversations:          conversations,
		AppliedRecommendations: []string{},
		LockedRecommendations:  []string{},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create project", goerr.V(UserIDKey, user.ID))
	}

	logging.From(ctx).Info("project created",
		"project_id", created.ID,
		"user_id", user.ID,
		"organization_id", created.OrganizationID,
	)
	return created, nil
}

// Get returns the project if the current user owns it
func (uc *ProjectUseCase) Get(ctx context.Context, id types.ProjectID) (*model.Project, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}
	return getOwnedProject(ctx, uc.repo, id, user.ID)
}

// List returns the current user's projects, most recently updated first
func (uc *ProjectUseCase) List(ctx context.Context) ([]ProjectSummary, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}

	projects, err := uc.repo.Project().ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects", goerr.V(UserIDKey, user.ID))
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, uc.summarize(p))
	}
	return summaries, nil
}

func (uc *ProjectUseCase) summarize(p *model.Project) ProjectSummary {
	agg := p.RiskResults.Summarize(uc.listPolicy)
	s := ProjectSummary{
		ID:           p.ID,
		ProjectName:  p.ProjectName,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		ProjectType:  ProjectListFallback,
		CompanyScale: ProjectListFallback,
		AverageRisk:  agg.AverageRisk,
		RiskLevel:    agg.RiskLevel,
	}
	if p.ProjectInfo != nil {
		if p.ProjectInfo.ProjectType != "" {
			s.ProjectType = p.ProjectInfo.ProjectType
		}
		if p.ProjectInfo.CompanyScale != "" {
			s.CompanyScale = p.ProjectInfo.CompanyScale
		}
	}
	return s
}

// Update applies the non-empty fields of input to the current user's project.
// A rename is rejected when another project of the owner has the name.
func (uc *ProjectUseCase) Update(ctx context.Context, id types.ProjectID, input ProjectInput) (*model.Project, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}

	project, err := getOwnedProject(ctx, uc.repo, id, user.ID)
	if err != nil {
		return nil, err
	}

	name := input.ProjectName
	if name != "" && name != project.ProjectName {
		existing, err := uc.repo.Project().FindByOwnerAndName(ctx, user.ID, name)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to check project name", goerr.V(ProjectIDKey, id))
		}
		if existing != nil && existing.ID != project.ID {
			return nil, goerr.Wrap(ErrDuplicateProjectName, "duplicate project name",
				goerr.V(ProjectIDKey, id), goerr.V("project_name", name))
		}
		project.ProjectName = name
	}
	if input.ProjectInfo != nil {
		project.ProjectInfo = input.ProjectInfo
	}
	if input.RiskResults != nil {
		project.RiskResults = input.RiskResults
	}
	if input.MitigationStrategy != nil {
		project.MitigationStrategy = input.MitigationStrategy
	}
	if input.Conversations != nil {
		project.Conversations = input.Conversations
	}

	updated, err := uc.repo.Project().Update(ctx, project)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update project", goerr.V(ProjectIDKey, id))
	}
	return updated, nil
}

// Delete removes the current user's project
func (uc *ProjectUseCase) Delete(ctx context.Context, id types.ProjectID) error {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return err
	}

	if _, err := getOwnedProject(ctx, uc.repo, id, user.ID); err != nil {
		return err
	}

	if err := uc.repo.Project().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrProjectNotFound, "project not found", goerr.V(ProjectIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete project", goerr.V(ProjectIDKey, id))
	}

	logging.From(ctx).Info("project deleted", "project_id", id, "user_id", user.ID)
	return nil
}

// getOwnedProject loads a project and hides projects of other owners as not found
func getOwnedProject(ctx context.Context, repo interfaces.Repository, id types.ProjectID, owner types.UserID) (*model.Project, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrProjectNotFound, "project ID is empty")
	}

	project, err := repo.Project().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrProjectNotFound, "project not found", goerr.V(ProjectIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, id))
	}
	if project.OwnerID != owner {
		return nil, goerr.Wrap(ErrProjectNotFound, "project not found",
			goerr.V(ProjectIDKey, id), goerr.V(UserIDKey, owner))
	}
	return project, nil
}
