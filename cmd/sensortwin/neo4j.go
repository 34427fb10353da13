package main

import (
	"context"
	"fmt"

	"github.com/go-digitaltwin/sensortwin/neo4jontology"
	"github.com/go-digitaltwin/sensortwin/ontology"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"
)

// neo4jFlags are the credentials shared by the neo4j subcommands.
type neo4jFlags struct {
	username string
	password string
}

func newNeo4jCommand(a *app) *cobra.Command {
	var f neo4jFlags
	cmd := &cobra.Command{
		Use:   "neo4j",
		Short: "Mirror the class hierarchy into Neo4j",
		Long: `Mirror the class hierarchy into the Neo4j database named by the neo4j_url and
neo4j_database settings.

Each class becomes a :SensorClass node, related to its superclasses by
:SUBCLASS_OF relationships.`,
	}
	cmd.PersistentFlags().StringVar(&f.username, "username", "", "Neo4j user; connect without authentication if empty")
	cmd.PersistentFlags().StringVar(&f.password, "password", "", "password of the Neo4j user")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "export",
			Short: "Replace the hierarchy stored in Neo4j with the loaded one",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				m, err := a.loadOntology(ctx)
				if err != nil {
					return err
				}
				return a.withNeo4j(ctx, f, func(d neo4j.DriverWithContext, database string) error {
					if err := neo4jontology.BootstrapDatabase(ctx, d, database); err != nil {
						return fmt.Errorf("bootstrap database: %w", err)
					}
					if err := neo4jontology.Export(ctx, d, database, m); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Exported %d classes to %s\n", len(m.SensorTypes()), database)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "tree",
			Short: "Draw the hierarchy stored in Neo4j",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				return a.withNeo4j(ctx, f, func(d neo4j.DriverWithContext, database string) error {
					m, err := neo4jontology.Load(ctx, d, database, a.settings.OntologyOptions()...)
					if err != nil {
						return err
					}
					fmt.Fprint(cmd.OutOrStdout(), ontology.FormatHierarchy(m, "  "))
					return nil
				})
			},
		},
	)
	return cmd
}

// withNeo4j calls fn with a verified connection to the configured Neo4j server.
func (a *app) withNeo4j(ctx context.Context, f neo4jFlags, fn func(d neo4j.DriverWithContext, database string) error) error {
	auth := neo4j.NoAuth()
	if f.username != "" {
		auth = neo4j.BasicAuth(f.username, f.password, "")
	}
	d, err := neo4j.NewDriverWithContext(a.settings.Neo4jURL, auth)
	if err != nil {
		return fmt.Errorf("open neo4j driver: %w", err)
	}
	defer func() { _ = d.Close(ctx) }()
	if err := d.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", a.settings.Neo4jURL, err)
	}
	return fn(d, a.settings.Neo4jDatabase)
}
