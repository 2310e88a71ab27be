package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	userCacheSize = 1024
	userCacheTTL  = time.Minute
)

// MemberRef is the public identity of an organization member
type MemberRef struct {
	ID    types.UserID `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  types.Role   `json:"role,omitempty"`
}

// OrganizationDetail is an organization with its manager and members resolved
type OrganizationDetail struct {
	*model.Organization
	Manager *MemberRef  `json:"manager"`
	Members []MemberRef `json:"members"`
}

// OrganizationSummary is the short form returned with statistics
type OrganizationSummary struct {
	Name     string                 `json:"name"`
	Code     types.OrganizationCode `json:"code"`
	Industry types.Industry         `json:"industry"`
	Size     types.OrganizationSize `json:"size"`
}

// OrganizationProjectsResult is the organization project table of a member
type OrganizationProjectsResult struct {
	Organization *model.Organization       `json:"organization"`
	Projects     []model.FormattedProject  `json:"projects"`
	Metrics      model.OrganizationMetrics `json:"metrics"`
	IsManager    bool                      `json:"isManager"`
}

// OrganizationStatsResult is the statistics view of a member
type OrganizationStatsResult struct {
	Organization OrganizationSummary      `json:"organization"`
	Stats        *model.OrganizationStats `json:"stats"`
	IsManager    bool                     `json:"isManager"`
}

// OrganizationUpdateInput carries the editable fields. Empty fields are kept.
type OrganizationUpdateInput struct {
	Name        string                 `json:"name" validate:"max=100"`
	Description string                 `json:"description" validate:"max=500"`
	Industry    types.Industry         `json:"industry"`
	Size        types.OrganizationSize `json:"size"`
}

type OrganizationUseCase struct {
	repo   interfaces.Repository
	policy model.RiskLevelPolicy
	users  *expirable.LRU[types.UserID, *model.User]
}

func NewOrganizationUseCase(repo interfaces.Repository, policy model.RiskLevelPolicy) *OrganizationUseCase {
	return &OrganizationUseCase{
		repo:   repo,
		policy: policy,
		users:  expirable.NewLRU[types.UserID, *model.User](userCacheSize, nil, userCacheTTL),
	}
}

// Get returns the organization of the current user with members resolved
func (uc *OrganizationUseCase) Get(ctx context.Context, id types.OrganizationID) (*OrganizationDetail, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}
	if err := requireMembership(user, id); err != nil {
		return nil, err
	}

	org, err := uc.getOrganization(ctx, id)
	if err != nil {
		return nil, err
	}

	users, err := uc.lookupUsers(ctx, append([]types.UserID{org.ManagerID}, org.MemberIDs...))
	if err != nil {
		return nil, err
	}

	detail := &OrganizationDetail{
		Organization: org,
		Members:      make([]MemberRef, 0, len(org.MemberIDs)),
	}
	if m, ok := users[org.ManagerID]; ok {
		detail.Manager = &MemberRef{ID: m.ID, Name: m.Name, Email: m.Email}
	}
	for _, id := range org.MemberIDs {
		if u, ok := users[id]; ok {
			detail.Members = append(detail.Members, MemberRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
		}
	}
	return detail, nil
}

// Projects returns the organization project table. Managers see every
// project of the organization, other members only their own.
func (uc *OrganizationUseCase) Projects(ctx context.Context, id types.OrganizationID) (*OrganizationProjectsResult, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}
	if err := requireMembership(user, id); err != nil {
		return nil, err
	}

	var (
		org      *model.Organization
		projects []*model.Project
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		org, err = uc.getOrganization(egCtx, id)
		return err
	})
	eg.Go(func() error {
		var err error
		projects, err = uc.repo.Project().ListByOrganization(egCtx, id, nil)
		if err != nil {
			return goerr.Wrap(err, "failed to list organization projects", goerr.V(OrganizationIDKey, id))
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	isManager := org.IsManager(user.ID)
	if !isManager {
		projects = ownedBy(projects, user.ID)
	}

	ownerIDs := make([]types.UserID, 0, len(projects))
	for _, p := range projects {
		ownerIDs = append(ownerIDs, p.OwnerID)
	}
	owners, err := uc.lookupUsers(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	built := model.BuildOrganizationMetrics(projects, owners, uc.policy)
	return &OrganizationProjectsResult{
		Organization: org,
		Projects:     built.Projects,
		Metrics:      built.Metrics,
		IsManager:    isManager,
	}, nil
}

// Stats returns risk statistics over the projects visible to the current user
func (uc *OrganizationUseCase) Stats(ctx context.Context, id types.OrganizationID) (*OrganizationStatsResult, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}
	if err := requireMembership(user, id); err != nil {
		return nil, err
	}

	org, err := uc.getOrganization(ctx, id)
	if err != nil {
		return nil, err
	}

	isManager := org.IsManager(user.ID)
	var ownerFilter *types.UserID
	if !isManager {
		ownerFilter = &user.ID
	}
	projects, err := uc.repo.Project().ListByOrganization(ctx, id, ownerFilter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list organization projects", goerr.V(OrganizationIDKey, id))
	}

	return &OrganizationStatsResult{
		Organization: OrganizationSummary{
			Name:     org.Name,
			Code:     org.Code,
			Industry: org.Industry,
			Size:     org.Size,
		},
		Stats:     model.BuildOrganizationStats(org, projects, uc.policy),
		IsManager: isManager,
	}, nil
}

// Update edits the organization. Only the manager may update it.
func (uc *OrganizationUseCase) Update(ctx context.Context, id types.OrganizationID, input OrganizationUpdateInput) (*model.Organization, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Industry != "" && !input.Industry.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid industry", goerr.V("industry", input.Industry))
	}
	if input.Size != "" && !input.Size.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid organization size", goerr.V("size", input.Size))
	}

	org, err := uc.getOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	if !org.IsManager(user.ID) {
		return nil, goerr.Wrap(ErrForbidden, "only organization managers can update details",
			goerr.V(OrganizationIDKey, id), goerr.V(UserIDKey, user.ID))
	}

	if input.Name != "" {
		org.Name = input.Name
	}
	if input.Description != "" {
		org.Description = input.Description
	}
	if input.Industry != "" {
		org.Industry = input.Industry
	}
	if input.Size != "" {
		org.Size = input.Size
	}

	updated, err := uc.repo.Organization().Update(ctx, org)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update organization", goerr.V(OrganizationIDKey, id))
	}
	return updated, nil
}

// RemoveMember removes a member and clears the member's organization. Only
// the manager may remove members and the manager cannot be removed.
func (uc *OrganizationUseCase) RemoveMember(ctx context.Context, id types.OrganizationID, memberID types.UserID) (*model.Organization, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}

	org, err := uc.getOrganization(ctx, id)
	if err != nil {
		return nil, err
	}
	if !org.IsManager(user.ID) {
		return nil, goerr.Wrap(ErrForbidden, "only organization managers can remove members",
			goerr.V(OrganizationIDKey, id), goerr.V(UserIDKey, user.ID))
	}
	if org.IsManager(memberID) {
		return nil, goerr.Wrap(ErrCannotRemoveManager, "cannot remove the organization manager",
			goerr.V(OrganizationIDKey, id))
	}

	if org.RemoveMember(memberID) {
		org, err = uc.repo.Organization().Update(ctx, org)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to update organization", goerr.V(OrganizationIDKey, id))
		}
	}

	member, err := uc.repo.User().Get(ctx, memberID)
	switch {
	case err == nil:
		if member.OrganizationID == id {
			member.OrganizationID = ""
			if err := uc.repo.User().Put(ctx, member); err != nil {
				return nil, goerr.Wrap(err, "failed to clear member organization", goerr.V(UserIDKey, memberID))
			}
		}
	case errors.Is(err, interfaces.ErrNotFound):
		logging.From(ctx).Warn("removed member has no user record", "user_id", memberID)
	default:
		return nil, goerr.Wrap(err, "failed to get member", goerr.V(UserIDKey, memberID))
	}
	uc.users.Remove(memberID)

	logging.From(ctx).Info("organization member removed",
		"organization_id", id,
		"member_id", memberID,
		"manager_id", user.ID,
	)
	return org, nil
}

func (uc *OrganizationUseCase) getOrganization(ctx context.Context, id types.OrganizationID) (*model.Organization, error) {
	org, err := uc.repo.Organization().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrOrganizationNotFound, "organization not found", goerr.V(OrganizationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get organization", goerr.V(OrganizationIDKey, id))
	}
	return org, nil
}

// lookupUsers resolves users through the cache. Unknown users are omitted.
func (uc *OrganizationUseCase) lookupUsers(ctx context.Context, ids []types.UserID) (map[types.UserID]*model.User, error) {
	result := make(map[types.UserID]*model.User, len(ids))
	var missing []types.UserID
	for _, id := range ids {
		if _, done := result[id]; done {
			continue
		}
		if u, ok := uc.users.Get(id); ok {
			result[id] = u
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	found, err := uc.repo.User().GetMany(ctx, missing)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get users", goerr.V("count", len(missing)))
	}
	for id, u := range found {
		uc.users.Add(id, u)
		result[id] = u
	}
	return result, nil
}

// requireMembership checks the user's current organization against id
func requireMembership(user *model.User, id types.OrganizationID) error {
	if user.OrganizationID == "" || user.OrganizationID != id {
		return goerr.Wrap(ErrForbidden, "access denied",
			goerr.V(OrganizationIDKey, id), goerr.V(UserIDKey, user.ID))
	}
	return nil
}

func ownedBy(projects []*model.Project, owner types.UserID) []*model.Project {
	out := make([]*model.Project, 0, len(projects))
	for _, p := range projects {
		if p.OwnerID == owner {
			out = append(out, p)
		}
	}
	return out
}
