package model

import (
	"time"

	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// Project is a saved questionnaire with its risk results and mitigation
// progress. OrganizationID is captured from the owner at creation and is not
// updated when the owner later changes organization.
type Project struct {
	ID             types.ProjectID      `json:"id"`
	OwnerID        types.UserID         `json:"userId"`
	OrganizationID types.OrganizationID `json:"organization,omitempty"`
	ProjectName    string               `json:"projectName"`
	ProjectInfo    *ProjectInfo         `json:"projectInfo,omitempty"`
	RiskResults    *RiskSnapshot        `json:"riskResults,omitempty"`

	MitigationStrategy     *MitigationStrategy `json:"mitigationStrategy,omitempty"`
	Conversations          []Conversation      `json:"conversations"`
	AppliedRecommendations []string            `json:"appliedRecommendations"`
	LockedRecommendations  []string            `json:"lockedRecommendations"`
	EnhancedDescriptions   []Recommendation    `json:"enhancedDescriptions,omitempty"`
	SelectedRound          int                 `json:"selectedRound"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Conversation is an assistant chat thread kept on a project
type Conversation struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Message is a single chat message
type Message struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// HasRounds reports whether the project's strategy has at least one round
func (p *Project) HasRounds() bool {
	return p.MitigationStrategy != nil && len(p.MitigationStrategy.Rounds) > 0
}

// Clone returns a deep copy of the project
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}

	c := *p
	c.ProjectInfo = p.ProjectInfo.Clone()
	c.RiskResults = p.RiskResults.Clone()
	c.MitigationStrategy = p.MitigationStrategy.Clone()
	c.AppliedRecommendations = cloneStrings(p.AppliedRecommendations)
	c.LockedRecommendations = cloneStrings(p.LockedRecommendations)

	if p.EnhancedDescriptions != nil {
		c.EnhancedDescriptions = make([]Recommendation, len(p.EnhancedDescriptions))
		for i := range p.EnhancedDescriptions {
			c.EnhancedDescriptions[i] = p.EnhancedDescriptions[i].Clone()
		}
	}

	if p.Conversations != nil {
		c.Conversations = make([]Conversation, len(p.Conversations))
		for i, conv := range p.Conversations {
			conv.Messages = append([]Message(nil), conv.Messages...)
			c.Conversations[i] = conv
		}
	}

	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
