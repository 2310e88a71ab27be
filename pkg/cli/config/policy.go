package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Policy holds the risk-level policy file path and the seed admin override
type Policy struct {
	path           string
	seedAdminEmail string
}

// PolicyFile is the TOML layout of the policy file
type PolicyFile struct {
	SeedAdminEmail string            `toml:"seed_admin_email"`
	RiskLevel      ThresholdsSection `toml:"risk_level"`
	ProjectList    ProjectListPolicy `toml:"project_list"`
}

// ThresholdsSection holds the lower bounds of medium, high and critical
type ThresholdsSection struct {
	Thresholds []float64 `toml:"thresholds"`
}

// ProjectListPolicy selects the level table of the owner project list.
// Legacy selects the historical stricter table and wins over Thresholds.
type ProjectListPolicy struct {
	Legacy     bool      `toml:"legacy"`
	Thresholds []float64 `toml:"thresholds"`
}

// ResolvedPolicy is the outcome of Policy.Configure
type ResolvedPolicy struct {
	RiskLevel      model.RiskLevelPolicy
	ProjectList    model.RiskLevelPolicy
	SeedAdminEmail string
}

func (x *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the risk policy TOML file",
			Category:    "Policy",
			Destination: &x.path,
			Sources:     cli.EnvVars("RISKCOMPASS_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "seed-admin-email",
			Usage:       "Email that is granted the admin role on registration",
			Category:    "Policy",
			Destination: &x.seedAdminEmail,
			Sources:     cli.EnvVars("RISKCOMPASS_SEED_ADMIN_EMAIL"),
		},
	}
}

func (x Policy) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", x.path),
		slog.String("seed_admin_email", x.seedAdminEmail),
	)
}

// Path returns the policy file path
func (x *Policy) Path() string {
	return x.path
}

// Configure loads the policy file if one is set. Missing sections fall back to
// the canonical table. The flag overrides seed_admin_email of the file.
func (x *Policy) Configure() (*ResolvedPolicy, error) {
	resolved := &ResolvedPolicy{
		RiskLevel:   model.CanonicalRiskLevelPolicy,
		ProjectList: model.CanonicalRiskLevelPolicy,
	}

	if x.path != "" {
		file, err := LoadPolicyFile(x.path)
		if err != nil {
			return nil, err
		}
		if resolved, err = file.Resolve(); err != nil {
			return nil, goerr.Wrap(err, "invalid policy file", goerr.V("path", x.path))
		}
	}

	if x.seedAdminEmail != "" {
		resolved.SeedAdminEmail = x.seedAdminEmail
	}
	return resolved, nil
}

// LoadPolicyFile reads and parses a policy TOML file
func LoadPolicyFile(path string) (*PolicyFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "policy file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read policy file", goerr.V(ConfigPathKey, path))
	}

	var file PolicyFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse policy file",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()))
	}
	return &file, nil
}

// Resolve validates the file and converts it into level policies
func (f *PolicyFile) Resolve() (*ResolvedPolicy, error) {
	resolved := &ResolvedPolicy{
		RiskLevel:      model.CanonicalRiskLevelPolicy,
		SeedAdminEmail: f.SeedAdminEmail,
	}

	if len(f.RiskLevel.Thresholds) > 0 {
		p, err := toLevelPolicy(f.RiskLevel.Thresholds)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid [risk_level] thresholds")
		}
		resolved.RiskLevel = p
	}

	switch {
	case f.ProjectList.Legacy:
		resolved.ProjectList = model.LegacyProjectListRiskLevelPolicy
	case len(f.ProjectList.Thresholds) > 0:
		p, err := toLevelPolicy(f.ProjectList.Thresholds)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid [project_list] thresholds")
		}
		resolved.ProjectList = p
	default:
		resolved.ProjectList = resolved.RiskLevel
	}

	return resolved, nil
}

func toLevelPolicy(thresholds []float64) (model.RiskLevelPolicy, error) {
	var p model.RiskLevelPolicy
	if len(thresholds) != len(p.Thresholds) {
		return p, goerr.Wrap(ErrInvalidThresholds, "exactly three thresholds are required",
			goerr.V("thresholds", thresholds))
	}
	copy(p.Thresholds[:], thresholds)
	if err := p.Validate(); err != nil {
		return p, goerr.Wrap(ErrInvalidThresholds, err.Error(), goerr.V("thresholds", thresholds))
	}
	return p, nil
}
