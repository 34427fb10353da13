package neo4jontology

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Label is the label of the nodes representing sensor classes.
const Label = "SensorClass"

// BootstrapDatabase creates the given database, unless it exists, and the
// constraints required to store a class hierarchy in it.
//
// Class names are constrained as node keys, which also indexes them, to keep
// concurrent exports from creating duplicate classes.
//
// To execute queries against the created database, open a session with the
// database name as the default database. For example:
//
//	s := d.NewSession(ctx, neo4j.SessionConfig{DatabaseName: name})
//	defer func() { _ = s.Close(ctx) }()
//	... use s ...
//
// This function is idempotent.
func BootstrapDatabase(ctx context.Context, d neo4j.DriverWithContext, name string) error {
	ctx, span := tracer.Start(ctx, "BootstrapDatabase")
	defer span.End()

	if err := createDatabase(ctx, d, name); err != nil {
		return fmt.Errorf("create database: %w", err)
	}

	s := d.NewSession(ctx, neo4j.SessionConfig{DatabaseName: name})
	defer func() { _ = s.Close(ctx) }()

	_, err := s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Node keys are only available in the enterprise edition.
		_, err := tx.Run(ctx, `
			CREATE CONSTRAINT sensor_class_name IF NOT EXISTS
			FOR (c:`+Label+`)
			REQUIRE c.name IS NODE KEY
		`, nil)
		if err != nil {
			return nil, fmt.Errorf("key constraint: label %v: %w", Label, err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("create constraints: %w", err)
	}
	return s.Close(ctx)
}

func createDatabase(ctx context.Context, d neo4j.DriverWithContext, name string) error {
	if name == "" {
		panic("neo4jontology: database name must not be empty")
	}
	if name == "neo4j" {
		panic("neo4jontology: database name must not be neo4j: reserved for the default database")
	}
	if strings.HasPrefix(name, "system") || strings.HasPrefix(name, "_") {
		panic("neo4jontology: names that begin with an underscore or with the prefix system are reserved for internal use")
	}

	s := d.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() { _ = s.Close(ctx) }()

	_, err := s.Run(ctx, `
			CREATE DATABASE $name IF NOT EXISTS
		`, map[string]any{
		"name": name,
	})
	return err
}
