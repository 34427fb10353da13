package sensortwin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielorbach/go-component"
	"gocloud.dev/pubsub"
)

// ReadingReported is the message devices publish to report a single reading of
// one of their sensors.
type ReadingReported struct {
	TwinID string `json:"digital_twin_id"`
	Measurement
}

// ReadingAccepted notifies that a reading was stored in a digital twin.
type ReadingAccepted struct {
	TwinID  string     `json:"digital_twin_id"`
	Sensor  string     `json:"sensor"`
	Reading SensorData `json:"reading"`
}

// IngestReadings returns a component.Proc that subscribes to ReadingReported
// messages and appends each reported reading to its digital twin.
//
// Readings the digital twin rejects, and messages that cannot be decoded, are
// logged and dropped. Any other failure stops the procedure.
func IngestReadings(sub *pubsub.Subscription, svc *Service) component.Proc {
	return NewEventSource[ReadingReported](sub).Stream(ingestReading(svc))
}

func ingestReading(svc *Service) EventHandler[ReadingReported] {
	return func(ctx context.Context, r ReadingReported) error {
		_, err := svc.Record(ctx, r.TwinID, r.Measurement)
		if err == nil || rejectReason(err) == "" {
			return err
		}
		component.Logger(ctx).Warn("Reported reading rejected",
			slog.String("twin-id", r.TwinID),
			slog.String("sensor", r.AttributeName),
			slog.Any("error", err),
		)
		return nil
	}
}

// EventSource wraps a pubsub subscription and decodes incoming messages into
// events of type E.
type EventSource[E any] struct {
	subscription *pubsub.Subscription
	decoder      func(p []byte, v any) error
}

// NewEventSource returns an EventSource decoding JSON messages received from sub.
func NewEventSource[E any](sub *pubsub.Subscription) EventSource[E] {
	return EventSource[E]{subscription: sub, decoder: json.Unmarshal}
}

// EventHandler is a function that processes a decoded event.
type EventHandler[E any] func(ctx context.Context, event E) error

// Stream returns a component.Proc that continuously receives messages from the
// subscription, decodes them using the configured decoder, and passes them to
// the provided EventHandler.
//
// Messages that cannot be decoded are logged and skipped. The procedure stops
// at the first error of the handler.
func (s EventSource[E]) Stream(h EventHandler[E]) component.Proc {
	return func(l *component.L) {
		logger := component.Logger(l.Context())
		for l.Continue() {
			msg, err := s.subscription.Receive(l.Context())
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					// we're shutting down
					return
				}
				l.Fatal(fmt.Errorf("receive: %w", err))
			}
			// always ack, even if we fail to decode.
			// otherwise, we might get stuck processing
			// the same failed message
			msg.Ack()

			var event E
			if err := s.decoder(msg.Body, &event); err != nil {
				logger.Error("Couldn't decode message, message skipped",
					slog.String("msg-id", msg.LoggableID),
					slog.Any("error", err),
				)
				continue
			}

			if err := h(l.Context(), event); err != nil {
				l.Fatal(fmt.Errorf("process: %w", err))
			}
		}
	}
}
