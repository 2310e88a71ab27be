package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/service/scoring"
	"github.com/urfave/cli/v3"
)

// Scoring holds configuration for the external risk scoring service
type Scoring struct {
	url                string
	calculationTimeout time.Duration
	healthTimeout      time.Duration
}

func (x *Scoring) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "scoring-url",
			Usage:       "Base URL of the risk scoring service",
			Category:    "Scoring",
			Destination: &x.url,
			Sources:     cli.EnvVars("RISKCOMPASS_SCORING_URL", "PYTHON_SERVICE_URL"),
		},
		&cli.DurationFlag{
			Name:        "scoring-timeout",
			Usage:       "Timeout of calculation requests to the scoring service",
			Category:    "Scoring",
			Value:       scoring.DefaultCalculationTimeout,
			Destination: &x.calculationTimeout,
			Sources:     cli.EnvVars("RISKCOMPASS_SCORING_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "scoring-health-timeout",
			Usage:       "Timeout of health checks against the scoring service",
			Category:    "Scoring",
			Value:       scoring.DefaultHealthTimeout,
			Destination: &x.healthTimeout,
			Sources:     cli.EnvVars("RISKCOMPASS_SCORING_HEALTH_TIMEOUT"),
		},
	}
}

func (x Scoring) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", x.url),
		slog.Duration("calculation_timeout", x.calculationTimeout),
		slog.Duration("health_timeout", x.healthTimeout),
	)
}

// Configure creates the scoring client. It returns nil when no URL is set and
// the risk endpoints answer 503.
func (x *Scoring) Configure() (*scoring.Client, error) {
	if x.url == "" {
		return nil, nil
	}
	if x.calculationTimeout <= 0 || x.healthTimeout <= 0 {
		return nil, goerr.New("scoring timeouts must be positive",
			goerr.V("calculation_timeout", x.calculationTimeout),
			goerr.V("health_timeout", x.healthTimeout))
	}

	client, err := scoring.New(x.url,
		scoring.WithCalculationTimeout(x.calculationTimeout),
		scoring.WithHealthTimeout(x.healthTimeout),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create scoring client")
	}
	return client, nil
}
