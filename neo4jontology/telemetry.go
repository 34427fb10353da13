package neo4jontology

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-digitaltwin/sensortwin/neo4jontology")
var meter = otel.Meter("github.com/go-digitaltwin/sensortwin/neo4jontology")

var (
	// exportedClasses counts the classes written to Neo4j by Export.
	exportedClasses metric.Int64Counter
	// loadedClasses counts the classes read from Neo4j by Load.
	loadedClasses metric.Int64Counter
)

func init() {
	// An error here is likely related to the options applied on the instrument,
	// and no instrument is worth running without.
	var err error
	exportedClasses, err = meter.Int64Counter(
		"neo4j.classes.exported",
		metric.WithDescription("The number of sensor classes written to Neo4j."),
	)
	if err != nil {
		panic(fmt.Sprintf("neo4jontology: failed to init 'neo4j.classes.exported' instrument: %v", err))
	}

	loadedClasses, err = meter.Int64Counter(
		"neo4j.classes.loaded",
		metric.WithDescription("The number of sensor classes read from Neo4j."),
	)
	if err != nil {
		panic(fmt.Sprintf("neo4jontology: failed to init 'neo4j.classes.loaded' instrument: %v", err))
	}
}
