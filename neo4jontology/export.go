package neo4jontology

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielorbach/go-component"
	"github.com/go-digitaltwin/sensortwin/ontology"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// The queries Export runs, in order, within a single transaction. Each takes the
// parameters $names (the names of all classes) and $classes (their properties).
var exportQueries = []struct {
	name   string
	cypher string
}{
	{
		name: "delete stale classes",
		cypher: `
			MATCH (c:` + Label + `)
			WHERE NOT c.name IN $names
			DETACH DELETE c
		`,
	},
	{
		name: "delete subclass relationships",
		cypher: `
			MATCH (:` + Label + `)-[r:SUBCLASS_OF]->(:` + Label + `)
			DELETE r
		`,
	},
	{
		name: "merge classes",
		cypher: `
			UNWIND $classes AS class
			MERGE (c:` + Label + ` {name: class.name})
			SET c.superclass = class.superclass,
				c.min = class.min,
				c.max = class.max,
				c.mean = class.mean,
				c.unit_measure = class.unit_measure,
				c.metadata = class.metadata
		`,
	},
	{
		name: "merge subclass relationships",
		cypher: `
			UNWIND $classes AS class
			UNWIND class.superclass AS super
			MATCH (c:` + Label + ` {name: class.name}), (s:` + Label + ` {name: super})
			MERGE (c)-[:SUBCLASS_OF]->(s)
		`,
	},
}

// Export replaces the class hierarchy stored in the given database with the one
// of m. Classes missing from m are deleted; the others are created or updated,
// and so are the relationships between them.
//
// The database is modified in a single transaction, so concurrent readers see
// either the previous hierarchy or the exported one. Bootstrap the database
// beforehand; see BootstrapDatabase.
func Export(ctx context.Context, d neo4j.DriverWithContext, database string, m *ontology.Manager) (err error) {
	ctx, span := tracer.Start(ctx, "Export", trace.WithAttributes(
		attribute.String("neo4j.database", database),
	))
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	logger := component.Logger(ctx).With("neo4j.database", database)

	h := m.Hierarchy()
	names := m.SensorTypes()
	classes := make([]any, len(names))
	for i, name := range names {
		props, err := classProperties(h[name])
		if err != nil {
			return fmt.Errorf("class %q: %w", name, err)
		}
		classes[i] = props
	}
	params := map[string]any{"names": names, "classes": classes}

	s := d.NewSession(ctx, neo4j.SessionConfig{DatabaseName: database, AccessMode: neo4j.AccessModeWrite})
	defer func() { _ = s.Close(ctx) }()

	_, err = s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, q := range exportQueries {
			result, err := tx.Run(ctx, q.cypher, params)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", q.name, err)
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, fmt.Errorf("%s: %w", q.name, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("export hierarchy: %w", err)
	}

	exportedClasses.Add(ctx, int64(len(classes)))
	logger.Info("Class hierarchy exported", "classes", len(classes))
	return nil
}

// classProperties converts a class into the parameters of the merge queries.
// Neo4j cannot store maps as properties, so metadata is stored as JSON.
func classProperties(c ontology.ClassNode) (map[string]any, error) {
	props := map[string]any{
		"name":         c.Name,
		"superclass":   append([]string{}, c.Superclass...),
		"min":          optional(c.Min),
		"max":          optional(c.Max),
		"mean":         optional(c.Mean),
		"unit_measure": append([]string{}, c.UnitMeasure...),
		"metadata":     nil,
	}
	if len(c.Metadata) > 0 {
		b, err := json.Marshal(c.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		props["metadata"] = string(b)
	}
	return props, nil
}

// optional returns the value p points to, or nil. Setting a property to null
// removes it.
func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
