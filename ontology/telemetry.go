package ontology

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-digitaltwin/sensortwin/ontology")
var meter = otel.Meter("github.com/go-digitaltwin/sensortwin/ontology")

const (
	// sensorClassKey is the attribute key associating generation records with the
	// class that was asked for a value. Hierarchies are small, so the cardinality
	// of this attribute is bounded.
	sensorClassKey = "sensor.class"
	// loadSucceededKey distinguishes successful from failed loads.
	loadSucceededKey = "load.succeeded"
)

var (
	// loadDuration measures how long it took to decode and index a hierarchy,
	// whether or not the load succeeded.
	loadDuration metric.Float64Histogram
	// generationUnavailable counts requests for synthetic values of classes that
	// do not declare both min and max (or are unknown).
	generationUnavailable metric.Int64Counter
)

func init() {
	var err error
	loadDuration, err = meter.Float64Histogram(
		"ontology.load.duration",
		metric.WithDescription("The duration of decoding and indexing a class hierarchy."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic("ontology: failed to init 'ontology.load.duration' instrument")
	}

	generationUnavailable, err = meter.Int64Counter(
		"ontology.generation.unavailable",
		metric.WithDescription("The number of synthetic-value requests for classes without bounds."),
	)
	if err != nil {
		panic("ontology: failed to init 'ontology.generation.unavailable' instrument")
	}
}

func measureLoad(ctx context.Context, succeeded bool, d time.Duration) {
	attrs := attribute.NewSet(attribute.Bool(loadSucceededKey, succeeded))
	loadDuration.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributeSet(attrs))
}

func countUnavailable(class string) {
	attrs := attribute.NewSet(attribute.String(sensorClassKey, class))
	// Generation is a synchronous in-memory computation without a caller context.
	generationUnavailable.Add(context.Background(), 1, metric.WithAttributeSet(attrs))
}
