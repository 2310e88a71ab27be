package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/cli/config"
	"github.com/riskcompass/riskcompass/pkg/service/scoring"
	"github.com/urfave/cli/v3"
)

// ErrCheckFailed is returned by the check command when any check fails
var ErrCheckFailed = goerr.New("check failed")

func cmdCheck() *cli.Command {
	var scoringCfg config.Scoring
	var policyCfg config.Policy

	flags := append([]cli.Flag{}, scoringCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)

	return &cli.Command{
		Name:    "check",
		Aliases: []string{"c"},
		Usage:   "Check the scoring service and validate the risk policy file",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			client, err := scoringCfg.Configure()
			if err != nil {
				return err
			}
			return runCheck(ctx, os.Stdout, client, policyCfg.Path())
		},
	}
}

type checkReport struct {
	w      io.Writer
	failed int
}

func (r *checkReport) ok(name, detail string) {
	fmt.Fprintf(r.w, "%s %s %s\n", color.GreenString("[OK]"), name, detail)
}

func (r *checkReport) skip(name, detail string) {
	fmt.Fprintf(r.w, "%s %s %s\n", color.YellowString("[SKIP]"), name, detail)
}

func (r *checkReport) fail(name string, err error) {
	r.failed++
	fmt.Fprintf(r.w, "%s %s %s\n", color.RedString("[FAIL]"), name, err.Error())
}

func runCheck(ctx context.Context, w io.Writer, client *scoring.Client, policyPath string) error {
	report := &checkReport{w: w}

	if client == nil {
		report.skip("scoring", "(no --scoring-url)")
	} else if raw, err := client.Health(ctx); err != nil {
		report.fail("scoring", err)
	} else {
		var health struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(raw, &health)
		if health.Status == "" {
			health.Status = "reachable"
		}
		report.ok("scoring", fmt.Sprintf("%s (%s)", client.BaseURL(), health.Status))
	}

	if policyPath == "" {
		report.skip("policy", "(no --config, canonical thresholds)")
	} else if resolved, err := checkPolicy(policyPath); err != nil {
		report.fail("policy", err)
	} else {
		report.ok("policy", fmt.Sprintf("%s risk_level=%v project_list=%v",
			policyPath, resolved.RiskLevel.Thresholds, resolved.ProjectList.Thresholds))
	}

	if report.failed > 0 {
		return goerr.Wrap(ErrCheckFailed, "one or more checks failed", goerr.V("failed", report.failed))
	}
	return nil
}

func checkPolicy(path string) (*config.ResolvedPolicy, error) {
	file, err := config.LoadPolicyFile(path)
	if err != nil {
		return nil, err
	}
	return file.Resolve()
}
