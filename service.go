package sensortwin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"sync"
	"time"

	"github.com/danielorbach/go-component"
	"github.com/go-digitaltwin/sensortwin/ontology"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gocloud.dev/pubsub"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize is the largest number of measurements IngestBatch accepts at
// once.
const MaxBatchSize = 1000

// simulationConcurrency bounds the digital twins SimulateAll works on at once.
const simulationConcurrency = 8

// publishConcurrency bounds the accepted readings notify sends at once.
const publishConcurrency = 16

// Measurement is a single reading reported for a digital twin.
type Measurement struct {
	// Timestamp defaults to the time the measurement is ingested.
	Timestamp     time.Time `json:"timestamp"`
	AttributeName string    `json:"attribute_name" validate:"required"`
	Value         float64   `json:"value"`
	// UnitMeasure, if set, must be the canonical unit of the attribute's class.
	UnitMeasure string `json:"unit_measure,omitempty"`
}

// BatchMeasurements groups the measurements of a single digital twin.
type BatchMeasurements struct {
	Measurements []Measurement `json:"measurements" validate:"min=1,max=1000,dive"`
}

// MeasurementResult reports the outcome of a single measurement of a batch.
type MeasurementResult struct {
	Index         int    `json:"index"`
	AttributeName string `json:"attribute_name"`
	Accepted      bool   `json:"accepted"`
	// Reason explains why the measurement was rejected.
	Reason string `json:"reason,omitempty"`
}

// Generated reports the synthetic readings added to a digital twin.
type Generated struct {
	TwinID    string             `json:"digital_twin_id"`
	Timestamp time.Time          `json:"timestamp"`
	Data      map[string]float64 `json:"data"`
}

// CompatibilityReport explains whether a digital twin accepts readings of a
// sensor type.
type CompatibilityReport struct {
	Compatible   bool                `json:"is_compatible"`
	SensorType   string              `json:"sensor_type"`
	TwinType     string              `json:"digital_twin_type"`
	Details      *ontology.ClassNode `json:"sensor_details,omitempty"`
	Superclasses []string            `json:"superclasses"`
	Subclasses   []string            `json:"subclasses"`
}

// Service implements the operations on devices and their digital twins. All of
// them consult the same ontology, which the Service shares and never modifies.
//
// A Service is safe for concurrent use.
type Service struct {
	ontology  *ontology.Manager
	store     *Store
	validator Validator
	now       func() time.Time
	// readings receives a ReadingAccepted message per stored reading, if set.
	readings *pubsub.Topic
}

// An Option configures a Service.
type Option func(*Service)

// WithClock sets the clock that stamps readings reported without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReadingsTopic publishes a ReadingAccepted message to topic for every
// reading stored in a digital twin.
func WithReadingsTopic(topic *pubsub.Topic) Option {
	return func(s *Service) { s.readings = topic }
}

// NewService returns a Service over the given ontology and store.
func NewService(m *ontology.Manager, st *Store, opts ...Option) *Service {
	s := &Service{
		ontology:  m,
		store:     st,
		validator: Validator{Ontology: m, Templates: st},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ontology returns the ontology the Service validates against.
func (s *Service) Ontology() *ontology.Manager { return s.ontology }

// Store returns the store the Service persists to.
func (s *Service) Store() *Store { return s.store }

// CreateDevice validates and stores a new device. Ontology-typed devices also
// get a digital twin; the returned device records its ID.
//
// A device without an ID is assigned a random one.
func (s *Service) CreateDevice(ctx context.Context, d Device) (_ Device, err error) {
	ctx, span := tracer.Start(ctx, "Service.CreateDevice")
	defer span.End()
	defer recordError(span, &err)

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if err := s.validator.ValidateDevice(ctx, d); err != nil {
		return Device{}, err
	}
	if err := s.store.CreateDevice(ctx, d); err != nil {
		return Device{}, err
	}
	if _, ok := d.Type.(OntologyType); ok {
		twin, err := s.CreateDigitalTwin(ctx, d)
		if err != nil {
			err = fmt.Errorf("create digital twin: %w", err)
			// An ontology-typed device without its twin cannot record readings.
			if delErr := s.store.DeleteDevice(ctx, d.ID); delErr != nil {
				err = errors.Join(err, delErr)
			}
			return Device{}, err
		}
		d.DigitalTwinID = twin.ID
	}

	component.Logger(ctx).Info("Device created",
		slog.String("device-id", d.ID),
		slog.String("device-type", d.Type.String()),
	)
	return d, nil
}

// CreateDigitalTwin creates and stores the digital twin of a stored
// ontology-typed device, and links the device to it.
//
// The twin accepts readings of every sensor compatible with the device's class.
// Its operations and dashboards are derived from the classes of those sensors;
// see DeriveCapabilities.
func (s *Service) CreateDigitalTwin(ctx context.Context, d Device) (_ DigitalTwin, err error) {
	ctx, span := tracer.Start(ctx, "Service.CreateDigitalTwin", trace.WithAttributes(
		attribute.String("device.id", d.ID),
	))
	defer span.End()
	defer recordError(span, &err)

	t, ok := d.Type.(OntologyType)
	if !ok {
		return DigitalTwin{}, &ValidationError{
			Subject:  "device",
			Problems: []string{fmt.Sprintf("device %q is not typed by an ontology class", d.ID)},
		}
	}
	if !s.ontology.Contains(t.Class) {
		return DigitalTwin{}, &ValidationError{
			Subject:  "device",
			Problems: []string{fmt.Sprintf("device type %q is not defined in the ontology", t.Class)},
		}
	}

	twin := newDigitalTwin(uuid.NewString(), s.ontology, d, t.Class)
	if err := s.store.CreateTwin(ctx, twin); err != nil {
		return DigitalTwin{}, err
	}
	if err := s.store.LinkTwin(ctx, d.ID, twin.ID); err != nil {
		// A twin without its device is unreachable.
		if delErr := s.store.DeleteTwin(ctx, twin.ID); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return DigitalTwin{}, err
	}

	component.Logger(ctx).Info("Digital twin created",
		slog.String("twin-id", twin.ID),
		slog.String("device-id", d.ID),
		slog.Int("compatible-sensors", len(twin.CompatibleSensors)),
	)
	return twin, nil
}

// AddSensorData appends a reading of the given sensor to a digital twin,
// stamped with the canonical unit of the sensor's class. A zero ts stands for
// the current time.
//
// The error wraps ErrTwinNotFound if the twin does not exist, and
// ErrIncompatibleSensor if the twin does not accept readings of the sensor.
func (s *Service) AddSensorData(ctx context.Context, twinID, sensor string, value float64, ts time.Time) (SensorData, error) {
	return s.Record(ctx, twinID, Measurement{Timestamp: ts, AttributeName: sensor, Value: value})
}

// Record is like AddSensorData, taking the reading as a Measurement. It returns
// a *ValidationError if the measurement declares a unit other than the
// canonical unit of its class.
func (s *Service) Record(ctx context.Context, twinID string, m Measurement) (_ SensorData, err error) {
	ctx, span := tracer.Start(ctx, "Service.Record", trace.WithAttributes(
		attribute.String("twin.id", twinID),
		attribute.String("sensor", m.AttributeName),
	))
	defer span.End()
	defer recordError(span, &err)

	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}
	var reading SensorData
	_, err = s.store.UpdateTwin(ctx, twinID, func(t *DigitalTwin) error {
		var err error
		reading, err = s.appendReading(t, m)
		return err
	})
	if err != nil {
		if reason := rejectReason(err); reason != "" {
			countReading(ctx, m.AttributeName, reason)
		}
		return SensorData{}, err
	}
	countReading(ctx, m.AttributeName, "")
	s.notify(ctx, ReadingAccepted{TwinID: twinID, Sensor: m.AttributeName, Reading: reading})
	return reading, nil
}

// IngestBatch appends a batch of measurements to a digital twin. Measurements
// the twin does not accept are skipped; the results report the outcome of each
// measurement, in order.
//
// It returns a *ValidationError if the batch is empty, holds more than
// MaxBatchSize measurements or holds a measurement without an attribute name.
func (s *Service) IngestBatch(ctx context.Context, twinID string, batch BatchMeasurements) (_ []MeasurementResult, err error) {
	ctx, span := tracer.Start(ctx, "Service.IngestBatch", trace.WithAttributes(
		attribute.String("twin.id", twinID),
		attribute.Int("batch.size", len(batch.Measurements)),
	))
	defer span.End()
	defer recordError(span, &err)

	problems := validationErrors{subject: "batch"}
	problems.addStruct(batch)
	if err := problems.err(); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		results  []MeasurementResult
		reasons  []string
		accepted []ReadingAccepted
	)
	_, err = s.store.UpdateTwin(ctx, twinID, func(t *DigitalTwin) error {
		results, reasons, accepted = results[:0], reasons[:0], accepted[:0]
		for i, m := range batch.Measurements {
			if m.Timestamp.IsZero() {
				m.Timestamp = now
			}
			result := MeasurementResult{Index: i, AttributeName: m.AttributeName}
			reading, err := s.appendReading(t, m)
			reason := rejectReason(err)
			switch {
			case err == nil:
				result.Accepted = true
				accepted = append(accepted, ReadingAccepted{TwinID: twinID, Sensor: m.AttributeName, Reading: reading})
			case reason != "":
				result.Reason = err.Error()
			default:
				return err
			}
			results = append(results, result)
			reasons = append(reasons, reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, r := range results {
		countReading(ctx, r.AttributeName, reasons[i])
	}
	s.notify(ctx, accepted...)
	return results, nil
}

// GenerateRandomSensorData appends a synthetic reading to a digital twin for
// each of its compatible sensors whose class declares bounds. All readings share
// the same timestamp.
func (s *Service) GenerateRandomSensorData(ctx context.Context, twinID string) (_ Generated, err error) {
	ctx, span := tracer.Start(ctx, "Service.GenerateRandomSensorData", trace.WithAttributes(
		attribute.String("twin.id", twinID),
	))
	defer span.End()
	defer recordError(span, &err)

	defer func(start time.Time) {
		measureSimulation(ctx, err == nil, time.Since(start))
	}(time.Now())

	g := Generated{TwinID: twinID, Timestamp: s.now()}
	var accepted []ReadingAccepted
	_, err = s.store.UpdateTwin(ctx, twinID, func(t *DigitalTwin) error {
		g.Data, accepted = make(map[string]float64), accepted[:0]
		for _, sensor := range t.CompatibleSensors {
			v, ok := s.ontology.GenerateValue(sensor)
			if !ok {
				continue
			}
			reading, err := s.appendReading(t, Measurement{
				Timestamp:     g.Timestamp,
				AttributeName: sensor,
				Value:         v,
			})
			if err != nil {
				return fmt.Errorf("append %s reading: %w", sensor, err)
			}
			g.Data[sensor] = v
			accepted = append(accepted, ReadingAccepted{TwinID: twinID, Sensor: sensor, Reading: reading})
		}
		return nil
	})
	if err != nil {
		return Generated{}, err
	}

	for sensor := range g.Data {
		countReading(ctx, sensor, "")
	}
	s.notify(ctx, accepted...)
	return g, nil
}

// SimulateAll generates synthetic readings for several digital twins
// concurrently. It stops at the first failure and returns its error.
func (s *Service) SimulateAll(ctx context.Context, twinIDs []string) (map[string]Generated, error) {
	var (
		mu        sync.Mutex
		generated = make(map[string]Generated, len(twinIDs))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(simulationConcurrency)
	for _, id := range twinIDs {
		g.Go(func() error {
			data, err := s.GenerateRandomSensorData(ctx, id)
			if err != nil {
				return fmt.Errorf("simulate digital twin %q: %w", id, err)
			}
			mu.Lock()
			defer mu.Unlock()
			generated[id] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return generated, nil
}

// SensorData returns the readings stored in a digital twin. If sensor is not
// empty, only the readings of that sensor are returned.
func (s *Service) SensorData(ctx context.Context, twinID, sensor string) (map[string][]SensorData, error) {
	t, err := s.store.Twin(ctx, twinID)
	if err != nil {
		return nil, err
	}
	if sensor == "" {
		return maps.Clone(t.Replica.SensorData), nil
	}
	data := make(map[string][]SensorData)
	if readings, ok := t.Replica.SensorData[sensor]; ok {
		data[sensor] = readings
	}
	return data, nil
}

// CheckCompatibility explains whether a digital twin accepts readings of the
// given sensor type, along with the sensor's place in the ontology.
func (s *Service) CheckCompatibility(ctx context.Context, twinID, sensor string) (CompatibilityReport, error) {
	t, err := s.store.Twin(ctx, twinID)
	if err != nil {
		return CompatibilityReport{}, err
	}
	report := CompatibilityReport{
		Compatible:   t.Accepts(sensor),
		SensorType:   sensor,
		TwinType:     t.DeviceType,
		Superclasses: s.ontology.AllSuperclasses(sensor),
		Subclasses:   s.ontology.AllSubclasses(sensor),
	}
	if c, ok := s.ontology.SensorDetails(sensor); ok {
		report.Details = &c
	}
	return report, nil
}

// appendReading validates a measurement against the digital twin and the
// ontology, and appends the resulting reading to the twin.
func (s *Service) appendReading(t *DigitalTwin, m Measurement) (SensorData, error) {
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return SensorData{}, &ValidationError{
			Subject:  "measurement",
			Problems: []string{fmt.Sprintf("value of %q is not finite", m.AttributeName)},
		}
	}
	if !t.Accepts(m.AttributeName) {
		return SensorData{}, fmt.Errorf("%w: digital twin %q does not accept %q readings", ErrIncompatibleSensor, t.ID, m.AttributeName)
	}
	c, ok := s.ontology.SensorDetails(m.AttributeName)
	if !ok {
		return SensorData{}, fmt.Errorf("%w: %q is not defined in the ontology", ErrIncompatibleSensor, m.AttributeName)
	}
	unit := c.CanonicalUnit()
	if m.UnitMeasure != "" && m.UnitMeasure != unit {
		return SensorData{}, &ValidationError{
			Subject:  "measurement",
			Problems: []string{fmt.Sprintf("%q readings are measured in %q, not %q", m.AttributeName, unit, m.UnitMeasure)},
		}
	}

	reading := SensorData{Timestamp: m.Timestamp, Value: m.Value, UnitMeasure: unit}
	if t.Replica.SensorData == nil {
		t.Replica.SensorData = make(map[string][]SensorData)
	}
	t.Replica.SensorData[m.AttributeName] = append(t.Replica.SensorData[m.AttributeName], reading)
	if m.Timestamp.After(t.Replica.LastUpdated) {
		t.Replica.LastUpdated = m.Timestamp
	}
	return reading, nil
}

// rejectReason classifies the errors that reject a single reading, as opposed
// to errors of the store. It returns an empty string for the latter.
func rejectReason(err error) string {
	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrIncompatibleSensor):
		return "incompatible"
	case errors.Is(err, ErrTwinNotFound):
		return "unknown_twin"
	case errors.As(err, &validationErr):
		return "invalid"
	default:
		return ""
	}
}

// notify publishes the accepted readings to the readings topic, if one is set.
// Failures are logged; the readings are stored regardless.
func (s *Service) notify(ctx context.Context, events ...ReadingAccepted) {
	if s.readings == nil || len(events) == 0 {
		return
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(publishConcurrency)
	for _, e := range events {
		g.Go(func() error {
			body, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode json: %w", err)
			}
			msg := &pubsub.Message{Body: body, Metadata: map[string]string{"twinID": e.TwinID}}
			if err := s.readings.Send(ctx, msg); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		component.Logger(ctx).Error("Couldn't publish accepted readings",
			slog.Any("error", err),
			slog.Int("readings", len(events)),
		)
	}
}

// recordError marks the span as failed if *err is not nil when the deferred
// call runs.
func recordError(span trace.Span, err *error) {
	if *err != nil {
		span.SetStatus(codes.Error, (*err).Error())
	}
}
