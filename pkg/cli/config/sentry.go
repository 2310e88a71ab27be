package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sentry holds error reporting settings. Reporting is disabled without a DSN.
type Sentry struct {
	dsn         string
	environment string
	release     string
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for server error reporting",
			Category:    "Sentry",
			Destination: &x.dsn,
			Sources:     cli.EnvVars("RISKCOMPASS_SENTRY_DSN", "SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Category:    "Sentry",
			Value:       "production",
			Destination: &x.environment,
			Sources:     cli.EnvVars("RISKCOMPASS_SENTRY_ENV"),
		},
	}
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.dsn != ""),
		slog.String("environment", x.environment),
	)
}

// Configure initializes the global Sentry hub and returns a flush function.
// The flush function is a no-op when reporting is disabled.
func (x *Sentry) Configure(release string) (func(), error) {
	if x.dsn == "" {
		return func() {}, nil
	}
	x.release = release

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.environment,
		Release:     x.release,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry", goerr.V("environment", x.environment))
	}

	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}
