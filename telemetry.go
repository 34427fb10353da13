package sensortwin

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-digitaltwin/sensortwin")
var meter = otel.Meter("github.com/go-digitaltwin/sensortwin")

const (
	// sensorTypeKey associates records with the sensor type of a reading, allowing
	// both collective and per-sensor analysis of ingestion.
	sensorTypeKey = "sensor"
	// rejectReasonKey associates rejected readings with the reason they were
	// rejected for.
	rejectReasonKey = "reason"
)

var (
	// readingsAccepted counts the readings appended to digital twins.
	//
	// Each record is associated with the sensorTypeKey.
	readingsAccepted metric.Int64Counter
	// readingsRejected counts the readings that were not appended to a digital
	// twin.
	//
	// Each record is associated with the sensorTypeKey and rejectReasonKey.
	readingsRejected metric.Int64Counter
	// updateConflicts counts the read-modify-write cycles of digital twins that
	// had to be retried because of a concurrent modification.
	updateConflicts metric.Int64Counter
	// simulationDuration measures the duration of generating synthetic readings
	// for a single digital twin, including storing them.
	simulationDuration metric.Float64Histogram
)

func init() {
	var err error
	readingsAccepted, err = meter.Int64Counter(
		"readings.accepted",
		metric.WithDescription("The number of sensor readings appended to digital twins."),
	)
	if err != nil {
		panic("sensortwin: failed to init 'readings.accepted' instrument")
	}

	readingsRejected, err = meter.Int64Counter(
		"readings.rejected",
		metric.WithDescription("The number of sensor readings rejected by digital twins."),
	)
	if err != nil {
		panic("sensortwin: failed to init 'readings.rejected' instrument")
	}

	updateConflicts, err = meter.Int64Counter(
		"twin.update.conflicts",
		metric.WithDescription("The number of digital twin updates retried due to concurrent modifications."),
	)
	if err != nil {
		panic("sensortwin: failed to init 'twin.update.conflicts' instrument")
	}

	simulationDuration, err = meter.Float64Histogram(
		"twin.simulation.duration",
		metric.WithDescription("The duration of generating and storing synthetic readings for a single digital twin."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic("sensortwin: failed to init 'twin.simulation.duration' instrument")
	}
}

// countReading records the outcome of a single reading. An empty reason means
// the reading was accepted.
func countReading(ctx context.Context, sensor, reason string) {
	if reason == "" {
		attrs := attribute.NewSet(attribute.String(sensorTypeKey, sensor))
		readingsAccepted.Add(ctx, 1, metric.WithAttributeSet(attrs))
		return
	}
	attrs := attribute.NewSet(
		attribute.String(sensorTypeKey, sensor),
		attribute.String(rejectReasonKey, reason),
	)
	readingsRejected.Add(ctx, 1, metric.WithAttributeSet(attrs))
}

func countConflict(ctx context.Context) {
	updateConflicts.Add(ctx, 1)
}

// measureSimulation records the duration of a successful simulation. Failed
// simulations are not recorded; their readings are counted as rejected instead.
func measureSimulation(ctx context.Context, succeeded bool, d time.Duration) {
	if !succeeded {
		return
	}
	// Floating-point division keeps sub-millisecond precision.
	simulationDuration.Record(ctx, float64(d)/float64(time.Millisecond))
}
