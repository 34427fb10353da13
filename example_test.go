package sensortwin_test

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielorbach/go-component"
	"github.com/go-digitaltwin/sensortwin"
	"github.com/go-digitaltwin/sensortwin/ontology"
)

func float(v float64) *float64 { return &v }

func ExampleService() {
	ctx := context.Background()

	// A tiny ontology: a thermometer is a kind of sensor.
	m := ontology.MustNew(ontology.Hierarchy{
		"Sensor": {},
		"Thermometer": {
			Superclass:  []string{"Sensor"},
			Min:         float(-40),
			Max:         float(60),
			UnitMeasure: []string{"C"},
		},
	})
	store, err := sensortwin.NewMemStore()
	if err != nil {
		panic(err)
	}
	defer store.Close()

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc := sensortwin.NewService(m, store, sensortwin.WithClock(func() time.Time { return now }))

	// Devices typed by an ontology class get a digital twin.
	d, err := svc.CreateDevice(ctx, sensortwin.Device{
		Name: "balcony",
		Type: sensortwin.OntologyType{Class: "Thermometer"},
	})
	if err != nil {
		panic(err)
	}
	twin, err := store.Twin(ctx, d.DigitalTwinID)
	if err != nil {
		panic(err)
	}
	fmt.Println(twin.Name, twin.CompatibleSensors)

	reading, err := svc.AddSensorData(ctx, twin.ID, "Thermometer", 18.5, time.Time{})
	if err != nil {
		panic(err)
	}
	fmt.Println(reading.Value, reading.UnitMeasure, reading.Timestamp.Format(time.RFC3339))

	// Readings of classes outside the twin's lineage are rejected.
	_, err = svc.AddSensorData(ctx, twin.ID, "Barometer", 1013, time.Time{})
	fmt.Println(err != nil)
	// Output:
	// DT_balcony [Sensor Thermometer]
	// 18.5 C 2024-03-01T12:00:00Z
	// true
}

// ExampleIngestReadings is an example [component.Descriptor] of a component
// that keeps digital twins up to date with the readings devices report.
func ExampleIngestReadings() {
	reportedInterest := "sensortwin.reading-reported"
	acceptedAspect := "sensortwin.reading-accepted"

	d := &component.Descriptor{
		Name: "sensortwin-ingest",
		Doc:  "....",
		Bootstrap: func(l *component.L, target component.Linker, options any) error {
			logger := component.Logger(l.Context())

			// Loading the ontology and opening the store are left out of this example.
			var svc *sensortwin.Service

			logger.Debug("Opening interest subscription...", slog.String("topic-name", reportedInterest))
			reported, err := target.LinkInterest(l.GraceContext(), reportedInterest)
			if err != nil {
				return fmt.Errorf("open interest %q: %w", reportedInterest, err)
			}
			l.CleanupBackground(reported.Shutdown)

			// The Service announces accepted readings on this aspect; see
			// sensortwin.WithReadingsTopic.
			logger.Debug("Opening aspect topic...", slog.String("topic-name", acceptedAspect))
			accepted, err := target.LinkAspect(l.GraceContext(), acceptedAspect)
			if err != nil {
				return fmt.Errorf("open aspect %q: %w", acceptedAspect, err)
			}
			l.CleanupContext(accepted.Shutdown)

			l.Fork("ingest readings", sensortwin.IngestReadings(reported, svc))
			return nil
		},
		Aspects:   []string{acceptedAspect},
		Interests: []string{reportedInterest},
	}

	fmt.Print(d)
}
