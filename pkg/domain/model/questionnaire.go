package model

// ProjectInfo is the project questionnaire. All answers are option codes as
// submitted by the client.
type ProjectInfo struct {
	// Basic project information
	ProjectDuration   string `json:"projectDuration,omitempty"`
	ProjectType       string `json:"projectType,omitempty"`
	HasCyberLegalTeam string `json:"hasCyberLegalTeam,omitempty"`
	CompanyScale      string `json:"companyScale,omitempty"`
	ProjectPhase      string `json:"projectPhase,omitempty"`

	// Project structure
	Layer1Teams string `json:"layer1Teams,omitempty"`
	Layer2Teams string `json:"layer2Teams,omitempty"`
	Layer3Teams string `json:"layer3Teams,omitempty"`
	TeamOverlap string `json:"teamOverlap,omitempty"`

	// Technical factors
	HasITTeam           string `json:"hasITTeam,omitempty"`
	DevicesWithFirewall string `json:"devicesWithFirewall,omitempty"`
	NetworkType         string `json:"networkType,omitempty"`
	PhishingFailRate    string `json:"phishingFailRate,omitempty"`

	// Security practices
	GovernanceLevel    string `json:"governanceLevel,omitempty"`
	AllowPasswordReuse string `json:"allowPasswordReuse,omitempty"`
	UsesMFA            string `json:"usesMFA,omitempty"`

	RegulatoryRequirements string `json:"regulatoryRequirements,omitempty"`
	StakeholderCount       string `json:"stakeholderCount,omitempty"`
	ThirdPartyVendors      string `json:"thirdPartyVendors,omitempty"`
	RemoteWorkLevel        string `json:"remoteWorkLevel,omitempty"`
	CloudServices          string `json:"cloudServices,omitempty"`
	DataClassification     string `json:"dataClassification,omitempty"`
	BMSIntegration         string `json:"bmsIntegration,omitempty"`
	AccessControl          string `json:"accessControl,omitempty"`
	SecurityMonitoring     string `json:"securityMonitoring,omitempty"`
	IncidentResponse       string `json:"incidentResponse,omitempty"`
	BackupStrategy         string `json:"backupStrategy,omitempty"`
	SecurityCertifications string `json:"securityCertifications,omitempty"`
	SecurityAwareness      string `json:"securityAwareness,omitempty"`
	SecurityTeamSize       string `json:"securityTeamSize,omitempty"`
	ThirdPartySecurityReq  string `json:"thirdPartySecurityReq,omitempty"`
	SecurityBudget         string `json:"securityBudget,omitempty"`
}

// Clone returns a copy of the questionnaire
func (p *ProjectInfo) Clone() *ProjectInfo {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

type questionField struct {
	name  string
	snake string
	get   func(*ProjectInfo) string
}

// scoredFields are the answers the scoring model consumes, in model input order
var scoredFields = []questionField{
	{"projectDuration", "project_duration", func(p *ProjectInfo) string { return p.ProjectDuration }},
	{"projectType", "project_type", func(p *ProjectInfo) string { return p.ProjectType }},
	{"hasCyberLegalTeam", "has_cyber_legal_team", func(p *ProjectInfo) string { return p.HasCyberLegalTeam }},
	{"companyScale", "company_scale", func(p *ProjectInfo) string { return p.CompanyScale }},
	{"projectPhase", "project_phase", func(p *ProjectInfo) string { return p.ProjectPhase }},
	{"layer1Teams", "layer1_teams", func(p *ProjectInfo) string { return p.Layer1Teams }},
	{"layer2Teams", "layer2_teams", func(p *ProjectInfo) string { return p.Layer2Teams }},
	{"layer3Teams", "layer3_teams", func(p *ProjectInfo) string { return p.Layer3Teams }},
	{"teamOverlap", "team_overlap", func(p *ProjectInfo) string { return p.TeamOverlap }},
	{"hasITTeam", "has_it_team", func(p *ProjectInfo) string { return p.HasITTeam }},
	{"devicesWithFirewall", "devices_with_firewall", func(p *ProjectInfo) string { return p.DevicesWithFirewall }},
	{"networkType", "network_type", func(p *ProjectInfo) string { return p.NetworkType }},
	{"phishingFailRate", "phishing_fail_rate", func(p *ProjectInfo) string { return p.PhishingFailRate }},
	{"governanceLevel", "governance_level", func(p *ProjectInfo) string { return p.GovernanceLevel }},
	{"allowPasswordReuse", "allow_password_reuse", func(p *ProjectInfo) string { return p.AllowPasswordReuse }},
	{"usesMFA", "uses_mfa", func(p *ProjectInfo) string { return p.UsesMFA }},
}

// unusedLayerFields are accepted by the scoring service but never asked
var unusedLayerFields = []string{"layer4_teams", "layer5_teams", "layer6_teams", "layer7_teams", "layer8_teams"}

const notApplicable = "na"

// RequiredQuestionFields returns the names of the answers required for scoring
func RequiredQuestionFields() []string {
	names := make([]string, len(scoredFields))
	for i, f := range scoredFields {
		names[i] = f.name
	}
	return names
}

// MissingRequiredFields returns the required answers that are empty, in order
func (p *ProjectInfo) MissingRequiredFields() []string {
	if p == nil {
		return RequiredQuestionFields()
	}

	var missing []string
	for _, f := range scoredFields {
		if f.get(p) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// PredictRequest converts the questionnaire to the snake_case payload of the
// scoring service predict endpoint
func (p *ProjectInfo) PredictRequest() map[string]string {
	req := make(map[string]string, len(scoredFields)+len(unusedLayerFields))
	for _, f := range scoredFields {
		req[f.snake] = f.get(p)
	}
	for _, name := range unusedLayerFields {
		req[name] = notApplicable
	}
	return req
}

var (
	durationCodes     = map[string]int{"<=3m": 0, "3-6m": 1, "6-12m": 2, "12-24m": 3, ">24m": 4}
	projectTypeCodes  = map[string]int{"transportation": 0, "government": 1, "healthcare": 2, "commercial": 3, "residential": 4, "other": 5}
	yesNoCodes        = map[string]int{"yes": 1, "no": 0, "unsure": 0}
	companyScaleCodes = map[string]int{"<=30": 0, "31-60": 1, "61-100": 2, "101-150": 3, ">150": 4}
	phaseCodes        = map[string]int{"planning": 0, "design": 1, "construction": 2, "maintenance": 3, "demolition": 4}
	teamCountCodes    = map[string]int{"<=10": 0, "11-20": 1, "21-30": 2, "31-40": 3, ">40": 4, "na": 0}
	percentageCodes   = map[string]int{"<=20": 0, "21-40": 1, "41-60": 2, "61-80": 3, "81-100": 4}
	networkCodes      = map[string]int{"public": 0, "private": 1, "both": 2}
	governanceCodes   = map[string]int{"level1": 0, "level2": 1, "level3": 2, "level4": 3, "level5": 4}
)

// UserData encodes the scored answers as the integer vector used by the
// mitigation endpoints. Unknown or empty answers encode as 0.
func (p *ProjectInfo) UserData() []int {
	if p == nil {
		p = &ProjectInfo{}
	}
	return []int{
		durationCodes[p.ProjectDuration],
		projectTypeCodes[p.ProjectType],
		yesNoCodes[p.HasCyberLegalTeam],
		companyScaleCodes[p.CompanyScale],
		phaseCodes[p.ProjectPhase],
		teamCountCodes[p.Layer1Teams],
		teamCountCodes[p.Layer2Teams],
		teamCountCodes[p.Layer3Teams],
		percentageCodes[p.TeamOverlap],
		yesNoCodes[p.HasITTeam],
		percentageCodes[p.DevicesWithFirewall],
		networkCodes[p.NetworkType],
		percentageCodes[p.PhishingFailRate],
		governanceCodes[p.GovernanceLevel],
		yesNoCodes[p.AllowPasswordReuse],
		yesNoCodes[p.UsesMFA],
	}
}
