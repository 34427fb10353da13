package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/danielorbach/go-component"
	"github.com/go-digitaltwin/sensortwin"
	"github.com/spf13/cobra"
	"gocloud.dev/pubsub"
)

func newIngestCommand(a *app) *cobra.Command {
	var trackURL string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Append reported readings to digital twins until interrupted",
		Long: `Subscribe to the ReadingReported messages of reported_url and append each
reading to its digital twin. Accepted readings are published to readings_url,
if set.

With --track, accepted readings are also consumed from the given subscription
and the latest reading of every sensor is printed on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := component.Logger(ctx)
			if a.settings.ReportedURL == "" {
				return errors.New("reported_url is not set")
			}

			svc, closeService, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer closeService()

			reported, err := pubsub.OpenSubscription(ctx, a.settings.ReportedURL)
			if err != nil {
				return fmt.Errorf("open subscription %q: %w", a.settings.ReportedURL, err)
			}
			defer func() { _ = reported.Shutdown(context.Background()) }()

			var (
				latest  = sensortwin.NewLatestReadings()
				tracked *pubsub.Subscription
			)
			if trackURL != "" {
				tracked, err = pubsub.OpenSubscription(ctx, trackURL)
				if err != nil {
					return fmt.Errorf("open subscription %q: %w", trackURL, err)
				}
				defer func() { _ = tracked.Shutdown(context.Background()) }()
			}

			logger.Info("Ingesting readings", slog.String("subscription", a.settings.ReportedURL))
			component.RunProc(func(l *component.L) {
				l.Fork("ingest readings", sensortwin.IngestReadings(reported, svc))
				if tracked != nil {
					l.Fork("track readings", sensortwin.TrackReadings(latest, tracked))
				}
			})

			if tracked != nil {
				twins, err := svc.Store().Twins(context.Background(), "")
				if err != nil {
					return err
				}
				for _, t := range twins {
					readings := latest.Twin(t.ID)
					sensors := make([]string, 0, len(readings))
					for sensor := range readings {
						sensors = append(sensors, sensor)
					}
					slices.Sort(sensors)
					for _, sensor := range sensors {
						r := readings[sensor]
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%v %s\t%s\n", t.ID, sensor, r.Value, r.UnitMeasure, r.Timestamp.Format(time.RFC3339))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&trackURL, "track", "", "subscription URL of accepted readings to keep track of")
	return cmd
}

func newSimulateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate [TWIN_ID...]",
		Short: "Append a synthetic reading to digital twins",
		Long: `Append a synthetic reading of every bounded sensor to the given digital twins,
or to all stored digital twins if none are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeService, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer closeService()

			ids := args
			if len(ids) == 0 {
				twins, err := svc.Store().Twins(ctx, "")
				if err != nil {
					return err
				}
				for _, t := range twins {
					ids = append(ids, t.ID)
				}
			}
			generated, err := svc.SimulateAll(ctx, ids)
			if err != nil {
				return err
			}
			slices.Sort(ids)
			for _, id := range ids {
				g := generated[id]
				sensors := make([]string, 0, len(g.Data))
				for sensor := range g.Data {
					sensors = append(sensors, sensor)
				}
				slices.Sort(sensors)
				for _, sensor := range sensors {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%v\n", id, sensor, g.Data[sensor])
				}
			}
			return nil
		},
	}
}

// openService loads the ontology and opens the configured store and readings
// topic. The returned function releases them.
func (a *app) openService(ctx context.Context) (*sensortwin.Service, func(), error) {
	m, err := a.loadOntology(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := sensortwin.OpenStore(ctx, sensortwin.StoreURLs{
		Devices:   a.settings.DevicesURL,
		Twins:     a.settings.TwinsURL,
		Templates: a.settings.TemplatesURL,
	})
	if err != nil {
		return nil, nil, err
	}

	var opts []sensortwin.Option
	closers := []func(){func() { _ = store.Close() }}
	if a.settings.ReadingsURL != "" {
		topic, err := pubsub.OpenTopic(ctx, a.settings.ReadingsURL)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("open topic %q: %w", a.settings.ReadingsURL, err)
		}
		opts = append(opts, sensortwin.WithReadingsTopic(topic))
		closers = append(closers, func() { _ = topic.Shutdown(context.Background()) })
	}
	release := func() {
		for _, c := range slices.Backward(closers) {
			c()
		}
	}
	return sensortwin.NewService(m, store, opts...), release, nil
}
