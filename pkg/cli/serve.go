package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskcompass/riskcompass/pkg/cli/config"
	httpctrl "github.com/riskcompass/riskcompass/pkg/controller/http"
	"github.com/riskcompass/riskcompass/pkg/service/scoring"
	"github.com/riskcompass/riskcompass/pkg/usecase"
	"github.com/riskcompass/riskcompass/pkg/utils/async"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
	"github.com/riskcompass/riskcompass/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe(version string) *cli.Command {
	var (
		addr       string
		repoCfg    config.Repository
		scoringCfg config.Scoring
		authCfg    config.Auth
		policyCfg  config.Policy
		sentryCfg  config.Sentry
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RISKCOMPASS_ADDR"),
			Destination: &addr,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, scoringCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Serve configuration",
				"addr", addr,
				"repository", repoCfg,
				"scoring", scoringCfg,
				"auth", authCfg,
				"policy", policyCfg,
				"sentry", sentryCfg,
			)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			policy, err := policyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load risk policy")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure repository")
			}
			defer safe.Close(ctx, repo)

			ucOpts := []usecase.Option{
				usecase.WithRiskLevelPolicy(policy.RiskLevel),
				usecase.WithProjectListPolicy(policy.ProjectList),
				usecase.WithSeedAdminEmail(policy.SeedAdminEmail),
			}

			scoringClient, err := scoringCfg.Configure()
			if err != nil {
				return err
			}
			if scoringClient != nil {
				ucOpts = append(ucOpts, usecase.WithScoring(scoringClient))
				async.Dispatch(ctx, checkScoring(scoringClient))
			} else {
				logger.Warn("Scoring service URL not configured, risk endpoints will answer 503")
			}

			authUC, err := authCfg.Configure()
			if err != nil {
				return err
			}
			var httpOpts []httpctrl.Options
			if authUC == nil {
				logger.Warn("Neither --jwt-secret nor --no-auth is set, protected routes will answer 401")
			} else {
				if authUC.IsNoAuthn() {
					logger.Warn("Authentication disabled (development mode)")
				}
				ucOpts = append(ucOpts, usecase.WithAuth(authUC))
				httpOpts = append(httpOpts, httpctrl.WithAuth(authUC))
			}
			httpOpts = append(httpOpts, httpctrl.WithMetrics(promhttp.Handler()))

			uc := usecase.New(repo, ucOpts...)
			if policy.SeedAdminEmail != "" {
				initSeedAdmin(ctx, uc.User)
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// checkScoring logs whether the scoring service answers at startup. The server
// starts either way.
func checkScoring(client *scoring.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := client.Health(ctx); err != nil {
			return goerr.Wrap(err, "scoring service is not reachable", goerr.V("url", client.BaseURL()))
		}
		logging.From(ctx).Info("Scoring service is reachable", "url", client.BaseURL())
		return nil
	}
}

// initSeedAdmin promotes the seed admin if it registered before the email was
// configured. Registration grants the role otherwise.
func initSeedAdmin(ctx context.Context, users *usecase.UserUseCase) {
	result, err := users.InitAdmin(ctx)
	switch {
	case err == nil:
		logging.From(ctx).Info("Seed admin ready", "user_id", result.User.ID, "result", result.Message)
	case errors.Is(err, usecase.ErrUserNotFound):
		logging.From(ctx).Info("Seed admin has not registered yet")
	default:
		logging.From(ctx).Warn("Failed to promote seed admin", "error", err)
	}
}
