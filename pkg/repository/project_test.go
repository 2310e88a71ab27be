package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

func ptr(v float64) *float64 { return &v }

func sampleProject(owner types.UserID, org types.OrganizationID, name string) *model.Project {
	return &model.Project{
		OwnerID:        owner,
		OrganizationID: org,
		ProjectName:    name,
		ProjectInfo: &model.ProjectInfo{
			ProjectDuration: "6-12m",
			ProjectType:     "commercial",
			CompanyScale:    "61-100",
			UsesMFA:         "no",
			SecurityBudget:  "medium",
		},
		RiskResults: &model.RiskSnapshot{
			Ransomware: &model.RiskCategoryResult{Score: ptr(0.62), Level: types.RiskLevelHigh, Recommendations: []string{"Deploy EDR solutions"}},
			Phishing:   &model.RiskCategoryResult{Score: ptr(0.31), Level: types.RiskLevelMedium},
		},
		MitigationStrategy: &model.MitigationStrategy{
			InitialRisk:            0.62,
			FinalRisk:              0.41,
			TotalReduction:         0.21,
			ImplementationPriority: "high",
			Rounds: []model.MitigationRound{
				{
					RoundNumber: 1,
					Features:    []string{"usesMFA"},
					CurrentRisk: 0.62,
					Recommendations: []model.Recommendation{
						{FeatureGroup: "security", FeatureName: "usesMFA", CurrentOption: "no", RecommendedOption: "yes", OptionIndex: 0, Description: "Enable MFA", CostLevel: 2, RiskReductionPercentage: ptr(12.5)},
					},
				},
			},
		},
		Conversations:          []model.Conversation{},
		AppliedRecommendations: []string{},
		LockedRecommendations:  []string{},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	gt.NoError(t, err).Required()
	return string(raw)
}

func runProjectRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Project().Create(ctx, sampleProject("alice", "org1", "Tower"))
		gt.NoError(t, err).Required()

		gt.String(t, created.ID.String()).NotEqual("")
		gt.Value(t, created.OwnerID).Equal(types.UserID("alice"))
		gt.Value(t, created.OrganizationID).Equal(types.OrganizationID("org1"))
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.IsZero()).False()
	})

	t.Run("Get returns structurally identical substructures", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		src := sampleProject("alice", "org1", "Round trip")

		created, err := repo.Project().Create(ctx, src)
		gt.NoError(t, err).Required()

		got, err := repo.Project().Get(ctx, created.ID)
		gt.NoError(t, err).Required()

		gt.Value(t, mustJSON(t, got.ProjectInfo)).Equal(mustJSON(t, src.ProjectInfo))
		gt.Value(t, mustJSON(t, got.RiskResults)).Equal(mustJSON(t, src.RiskResults))
		gt.Value(t, mustJSON(t, got.MitigationStrategy)).Equal(mustJSON(t, src.MitigationStrategy))
	})

	t.Run("Get returns ErrNotFound for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Project().Get(context.Background(), types.NewProjectID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("returned project is a copy", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Project().Create(ctx, sampleProject("alice", "", "Copy"))
		gt.NoError(t, err).Required()
		created.ProjectInfo.ProjectType = "government"

		got, err := repo.Project().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ProjectInfo.ProjectType).Equal("commercial")
	})

	t.Run("FindByOwnerAndName is exact and owner scoped", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Project().Create(ctx, sampleProject("alice", "", "Tower"))
		gt.NoError(t, err).Required()

		found, err := repo.Project().FindByOwnerAndName(ctx, "alice", "Tower")
		gt.NoError(t, err).Required()
		gt.Value(t, found).NotNil()
		gt.Value(t, found.ID).Equal(created.ID)

		notFound, err := repo.Project().FindByOwnerAndName(ctx, "alice", "tower")
		gt.NoError(t, err).Required()
		gt.Value(t, notFound).Nil()

		otherOwner, err := repo.Project().FindByOwnerAndName(ctx, "bob", "Tower")
		gt.NoError(t, err).Required()
		gt.Value(t, otherOwner).Nil()
	})

	t.Run("ListByOwner sorts by updatedAt desc", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.Project().Create(ctx, sampleProject("alice", "", "First"))
		gt.NoError(t, err).Required()
		time.Sleep(5 * time.Millisecond)
		second, err := repo.Project().Create(ctx, sampleProject("alice", "", "Second"))
		gt.NoError(t, err).Required()
		_, err = repo.Project().Create(ctx, sampleProject("bob", "", "Other"))
		gt.NoError(t, err).Required()

		projects, err := repo.Project().ListByOwner(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Array(t, projects).Length(2)
		gt.Value(t, projects[0].ID).Equal(second.ID)

		time.Sleep(5 * time.Millisecond)
		first.ProjectName = "First renamed"
		_, err = repo.Project().Update(ctx, first)
		gt.NoError(t, err).Required()

		projects, err = repo.Project().ListByOwner(ctx, "alice")
		gt.NoError(t, err).Required()
		gt.Value(t, projects[0].ID).Equal(first.ID)
		gt.Value(t, projects[0].ProjectName).Equal("First renamed")
	})

	t.Run("ListByOrganization filters by owner when given", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, p := range []*model.Project{
			sampleProject("mgr", "org1", "M1"),
			sampleProject("mgr", "org1", "M2"),
			sampleProject("u1", "org1", "U1"),
			sampleProject("u2", "org1", "U2"),
			sampleProject("u1", "org2", "Elsewhere"),
		} {
			_, err := repo.Project().Create(ctx, p)
			gt.NoError(t, err).Required()
		}

		all, err := repo.Project().ListByOrganization(ctx, "org1", nil)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(4)

		owner := types.UserID("u1")
		own, err := repo.Project().ListByOrganization(ctx, "org1", &owner)
		gt.NoError(t, err).Required()
		gt.Array(t, own).Length(1)
		gt.Value(t, own[0].ProjectName).Equal("U1")
	})

	t.Run("Update keeps CreatedAt and fails for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Project().Create(ctx, sampleProject("alice", "", "Tower"))
		gt.NoError(t, err).Required()

		created.SelectedRound = 2
		created.AppliedRecommendations = []string{"security-no-to-yes"}
		updated, err := repo.Project().Update(ctx, created)
		gt.NoError(t, err).Required()
		gt.Bool(t, updated.CreatedAt.Equal(created.CreatedAt)).True()
		gt.Bool(t, !updated.UpdatedAt.Before(created.UpdatedAt)).True()

		got, err := repo.Project().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, got.SelectedRound).Equal(2)
		gt.Value(t, got.AppliedRecommendations).Equal([]string{"security-no-to-yes"})

		missing := sampleProject("alice", "", "Ghost")
		missing.ID = types.NewProjectID()
		_, err = repo.Project().Update(ctx, missing)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Delete removes project", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Project().Create(ctx, sampleProject("alice", "", "Tower"))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Project().Delete(ctx, created.ID)).Required()

		_, err = repo.Project().Get(ctx, created.ID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()

		err = repo.Project().Delete(ctx, created.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})
}

func TestMemoryProjectRepository(t *testing.T) {
	runProjectRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreProjectRepository(t *testing.T) {
	runProjectRepositoryTest(t, newFirestoreRepository)
}
