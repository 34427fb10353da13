package neo4jontology

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielorbach/go-component"
	"github.com/go-digitaltwin/sensortwin/ontology"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const loadQuery = `
	MATCH (c:` + Label + `)
	RETURN c.name AS name,
		c.superclass AS superclass,
		c.min AS min,
		c.max AS max,
		c.mean AS mean,
		c.unit_measure AS unit_measure,
		c.metadata AS metadata
	ORDER BY name
`

// Load reads the class hierarchy stored in the given database and returns a
// Manager over it. The hierarchy is validated like any other; see ontology.New.
func Load(ctx context.Context, d neo4j.DriverWithContext, database string, opts ...ontology.Option) (*ontology.Manager, error) {
	ctx, span := tracer.Start(ctx, "Load", trace.WithAttributes(
		attribute.String("neo4j.database", database),
	))
	defer span.End()
	logger := component.Logger(ctx).With("neo4j.database", database)

	s := d.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database, AccessMode: neo4j.AccessModeRead})
	defer func() { _ = s.Close(ctx) }()

	records, err := neo4j.ExecuteRead(ctx, s, func(tx neo4j.ManagedTransaction) ([]*neo4j.Record, error) {
		result, err := tx.Run(ctx, loadQuery, nil)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("read classes: %w", err)
	}

	h := make(ontology.Hierarchy, len(records))
	for i, record := range records {
		c, err := parseClass(record)
		if err != nil {
			return nil, fmt.Errorf("class #%d: %w", i, err)
		}
		h[c.Name] = c
	}
	loadedClasses.Add(ctx, int64(len(h)))
	logger.Debug("Class hierarchy read", "classes", len(h))

	return ontology.New(ctx, h, opts...)
}

// parseClass converts a record returned by loadQuery into a ClassNode.
func parseClass(record *neo4j.Record) (c ontology.ClassNode, err error) {
	if c.Name, err = getRecordProperty[string](record, "name"); err != nil {
		return c, fmt.Errorf("get name: %w", err)
	}
	if c.Superclass, err = getStringList(record, "superclass"); err != nil {
		return c, fmt.Errorf("get superclass: %w", err)
	}
	if c.UnitMeasure, err = getStringList(record, "unit_measure"); err != nil {
		return c, fmt.Errorf("get unit_measure: %w", err)
	}
	if c.Min, err = getNumberProperty(record, "min"); err != nil {
		return c, fmt.Errorf("get min: %w", err)
	}
	if c.Max, err = getNumberProperty(record, "max"); err != nil {
		return c, fmt.Errorf("get max: %w", err)
	}
	if c.Mean, err = getNumberProperty(record, "mean"); err != nil {
		return c, fmt.Errorf("get mean: %w", err)
	}

	metadata, ok, err := getOptionalRecordProperty[string](record, "metadata")
	if err != nil {
		return c, fmt.Errorf("get metadata: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
			return c, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return c, nil
}

func getStringList(record *neo4j.Record, key string) ([]string, error) {
	list, _, err := getOptionalRecordProperty[[]any](record, key)
	if err != nil {
		return nil, err
	}
	return stringList(list)
}
