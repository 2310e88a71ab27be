package model

import (
	"time"

	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

const (
	UnnamedProject   = "Unnamed Project"
	UnknownUserName  = "Unknown User"
	UnknownUserEmail = "unknown@example.com"
	UnknownAnswer    = "Unknown"
)

// OwnerRef is the display identity of a project owner
type OwnerRef struct {
	ID    types.UserID `json:"id,omitempty"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
}

// FormattedProject is one row of the organization project table
type FormattedProject struct {
	ID           types.ProjectID `json:"id"`
	ProjectName  string          `json:"projectName"`
	Owner        OwnerRef        `json:"userId"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	ProjectType  string          `json:"projectType"`
	CompanyScale string          `json:"companyScale"`
	AverageRisk  float64         `json:"averageRisk"`
	RiskLevel    types.RiskLevel `json:"riskLevel"`
}

// OrganizationMetrics aggregates formatted projects per owner and risk level
type OrganizationMetrics struct {
	TotalProjects     int                     `json:"totalProjects"`
	ProjectsByUser    map[string]int          `json:"projectsByUser"`
	AverageRiskByUser map[string]float64      `json:"averageRiskByUser"`
	RiskDistribution  map[types.RiskLevel]int `json:"riskDistribution"`
}

// OrganizationProjects is the output of BuildOrganizationMetrics
type OrganizationProjects struct {
	Projects []FormattedProject  `json:"projects"`
	Metrics  OrganizationMetrics `json:"metrics"`
}

// BuildOrganizationMetrics formats projects and folds them into per-owner and
// per-level metrics. Callers filter projects by access before calling it.
// owners may lack entries for deleted users.
func BuildOrganizationMetrics(projects []*Project, owners map[types.UserID]*User, policy RiskLevelPolicy) *OrganizationProjects {
	out := &OrganizationProjects{
		Projects: make([]FormattedProject, 0, len(projects)),
		Metrics: OrganizationMetrics{
			TotalProjects:     len(projects),
			ProjectsByUser:    make(map[string]int),
			AverageRiskByUser: make(map[string]float64),
			RiskDistribution:  make(map[types.RiskLevel]int, len(types.AllRiskLevels())),
		},
	}
	for _, lvl := range types.AllRiskLevels() {
		out.Metrics.RiskDistribution[lvl] = 0
	}

	riskSum := make(map[string]float64)
	for _, p := range projects {
		fp := formatProject(p, owners, policy)
		out.Projects = append(out.Projects, fp)

		name := fp.Owner.Name
		out.Metrics.ProjectsByUser[name]++
		riskSum[name] += fp.AverageRisk
		out.Metrics.RiskDistribution[fp.RiskLevel]++
	}

	for name, sum := range riskSum {
		out.Metrics.AverageRiskByUser[name] = sum / float64(out.Metrics.ProjectsByUser[name])
	}

	return out
}

func formatProject(p *Project, owners map[types.UserID]*User, policy RiskLevelPolicy) FormattedProject {
	agg := p.RiskResults.SummarizeValid(policy)

	fp := FormattedProject{
		ID:           p.ID,
		ProjectName:  p.ProjectName,
		Owner:        OwnerRef{Name: UnknownUserName, Email: UnknownUserEmail},
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		ProjectType:  UnknownAnswer,
		CompanyScale: UnknownAnswer,
		AverageRisk:  agg.AverageRisk,
		RiskLevel:    agg.RiskLevel,
	}
	if fp.ProjectName == "" {
		fp.ProjectName = UnnamedProject
	}
	if owner, ok := owners[p.OwnerID]; ok && owner != nil {
		fp.Owner = OwnerRef{ID: owner.ID, Name: owner.Name, Email: owner.Email}
		if fp.Owner.Name == "" {
			fp.Owner.Name = UnknownUserName
		}
	}
	if p.ProjectInfo != nil {
		if p.ProjectInfo.ProjectType != "" {
			fp.ProjectType = p.ProjectInfo.ProjectType
		}
		if p.ProjectInfo.CompanyScale != "" {
			fp.CompanyScale = p.ProjectInfo.CompanyScale
		}
	}
	return fp
}

// OrganizationStats summarizes risk across an organization's projects
type OrganizationStats struct {
	TotalMembers       int                            `json:"totalMembers"`
	TotalProjects      int                            `json:"totalProjects"`
	AverageRiskScore   float64                        `json:"averageRiskScore"`
	RiskTrend          []float64                      `json:"riskTrend"`
	TopRisks           map[types.RiskCategory]float64 `json:"topRisks"`
	MitigationProgress float64                        `json:"mitigationProgress"`
}

// BuildOrganizationStats computes the stats of org over projects. Averages
// divide by the number of projects, including projects without results.
func BuildOrganizationStats(org *Organization, projects []*Project, policy RiskLevelPolicy) *OrganizationStats {
	stats := &OrganizationStats{
		TotalMembers:  len(org.MemberIDs),
		TotalProjects: len(projects),
		RiskTrend:     []float64{},
		TopRisks:      make(map[types.RiskCategory]float64),
	}
	if len(projects) == 0 {
		return stats
	}

	var totalRisk float64
	var mitigated int
	for _, p := range projects {
		if p.RiskResults == nil {
			continue
		}
		totalRisk += p.RiskResults.Summarize(policy).AverageRisk

		for _, c := range types.AllRiskCategories() {
			if v, ok := p.RiskResults.Score(c); ok && v != 0 {
				stats.TopRisks[c] += v
			}
		}
		if p.HasRounds() {
			mitigated++
		}
	}

	n := float64(len(projects))
	stats.AverageRiskScore = totalRisk / n
	stats.MitigationProgress = float64(mitigated) / n * 100
	for c := range stats.TopRisks {
		stats.TopRisks[c] /= n
	}
	return stats
}
