package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const (
	noAuthEmail = "dev@localhost"
	noAuthName  = "Developer"
)

// Auth holds bearer token verification settings
type Auth struct {
	jwtSecret string
	issuer    string
	skew      time.Duration
	noAuthUID string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 secret used to verify bearer tokens",
			Category:    "Auth",
			Destination: &x.jwtSecret,
			Sources:     cli.EnvVars("RISKCOMPASS_JWT_SECRET", "JWT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "jwt-issuer",
			Usage:       "Expected iss claim of bearer tokens (optional)",
			Category:    "Auth",
			Destination: &x.issuer,
			Sources:     cli.EnvVars("RISKCOMPASS_JWT_ISSUER"),
		},
		&cli.DurationFlag{
			Name:        "jwt-skew",
			Usage:       "Acceptable clock skew for exp and nbf claims",
			Category:    "Auth",
			Value:       30 * time.Second,
			Destination: &x.skew,
			Sources:     cli.EnvVars("RISKCOMPASS_JWT_SKEW"),
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip token verification and act as the given user ID (development only)",
			Category:    "Auth",
			Destination: &x.noAuthUID,
			Sources:     cli.EnvVars("RISKCOMPASS_NO_AUTH"),
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("jwt_secret_set", x.jwtSecret != ""),
		slog.String("issuer", x.issuer),
		slog.Duration("skew", x.skew),
		slog.String("no_auth", x.noAuthUID),
	)
}

// Configure returns the authenticator. The no-auth user takes precedence over
// the JWT secret. Without either, protected routes answer 401.
func (x *Auth) Configure() (usecase.AuthUseCaseInterface, error) {
	if x.noAuthUID != "" {
		return usecase.NewNoAuthnUseCase(types.UserID(x.noAuthUID), noAuthEmail, noAuthName), nil
	}
	if x.jwtSecret == "" {
		return nil, nil
	}

	opts := []usecase.AuthOption{usecase.WithAcceptableSkew(x.skew)}
	if x.issuer != "" {
		opts = append(opts, usecase.WithIssuer(x.issuer))
	}
	uc, err := usecase.NewAuthUseCase(x.jwtSecret, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure authentication")
	}
	return uc, nil
}
