package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var collectionPrefix string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("RISKCOMPASS_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("RISKCOMPASS_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.StringFlag{
				Name:        "firestore-collection-prefix",
				Usage:       "Prefix for Firestore collection names",
				Sources:     cli.EnvVars("RISKCOMPASS_FIRESTORE_COLLECTION_PREFIX"),
				Destination: &collectionPrefix,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"collectionPrefix", collectionPrefix,
				"dryRun", dryRun)

			indexConfig := getIndexConfig(collectionPrefix)

			client, err := fireconf.New(ctx, projectID, databaseID, indexConfig,
				fireconf.WithLogger(logger),
				fireconf.WithDryRun(dryRun),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
			} else {
				logger.Info("Applying migrations")
			}
			if err := client.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}
			if dryRun {
				logger.Info("Dry run completed")
				return nil
			}
			logger.Info("Migrations applied successfully")
			return nil
		},
	}
}

func asc(path string) fireconf.IndexField {
	return fireconf.IndexField{Path: path, Order: fireconf.OrderAscending}
}

func desc(path string) fireconf.IndexField {
	return fireconf.IndexField{Path: path, Order: fireconf.OrderDescending}
}

// getIndexConfig returns the composite indexes of the project queries.
// Organization lookups by code use the automatic single-field index.
func getIndexConfig(prefix string) *fireconf.Config {
	name := "projects"
	if prefix != "" {
		name = prefix + "_" + name
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: name,
				Indexes: []fireconf.Index{
					// FindByOwnerAndName
					{Fields: []fireconf.IndexField{asc("OwnerID"), asc("ProjectName")}},
					// ListByOwner
					{Fields: []fireconf.IndexField{asc("OwnerID"), desc("UpdatedAt")}},
					// ListByOrganization
					{Fields: []fireconf.IndexField{asc("OrganizationID"), desc("UpdatedAt")}},
					// ListByOrganization restricted to one owner
					{Fields: []fireconf.IndexField{asc("OrganizationID"), asc("OwnerID"), desc("UpdatedAt")}},
				},
			},
		},
	}
}
