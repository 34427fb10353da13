package sensortwin

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"sync"

	"github.com/danielorbach/go-component"
	"gocloud.dev/pubsub"
)

// LatestReadings correlates digital twins with the latest reading of each of
// their sensors. It is a read-optimised view of the ReadingAccepted stream;
// the digital twins themselves keep the full history.
//
// Use Update to feed it and Find or Twin to query it. LatestReadings is safe for
// concurrent use.
type LatestReadings struct {
	mu sync.Mutex
	m  map[string]map[string]SensorData // twin ID -> sensor -> reading
}

// NewLatestReadings returns an empty view.
func NewLatestReadings() *LatestReadings {
	return &LatestReadings{m: make(map[string]map[string]SensorData)}
}

// Find returns the latest reading of the given sensor of a digital twin. If no
// reading is known, Find indicates that by returning ok == false.
func (r *LatestReadings) Find(twinID, sensor string) (d SensorData, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok = r.m[twinID][sensor]
	return d, ok
}

// Twin returns the latest reading of every sensor of a digital twin, or nil if
// no reading is known.
func (r *LatestReadings) Twin(twinID string) map[string]SensorData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.m[twinID])
}

// Update records an accepted reading, unless a reading of the same sensor with a
// later timestamp is already known. Readings may arrive out of order; the view
// keeps the one measured last rather than the one accepted last.
func (r *LatestReadings) Update(e ReadingAccepted) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sensors, ok := r.m[e.TwinID]
	if !ok {
		sensors = make(map[string]SensorData)
		r.m[e.TwinID] = sensors
	}
	if known, ok := sensors[e.Sensor]; ok && known.Timestamp.After(e.Reading.Timestamp) {
		return
	}
	sensors[e.Sensor] = e.Reading
}

// Forget removes every reading of a digital twin, e.g. after it was deleted.
func (r *LatestReadings) Forget(twinID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, twinID)
}

// TrackReadings returns a component.Proc that consumes ReadingAccepted
// notifications and keeps the given view up to date.
//
// This procedure handles one notification at a time. Notifications that cannot
// be decoded are reported and skipped.
func TrackReadings(r *LatestReadings, source *pubsub.Subscription) component.Proc {
	return func(l *component.L) {
		for l.Continue() {
			msg, err := source.Receive(l.GraceContext())
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				l.Errorf("receive: %v", err)
				continue
			}
			msg.Ack()

			var accepted ReadingAccepted
			if err := json.Unmarshal(msg.Body, &accepted); err != nil {
				l.Errorf("Failed to unmarshal accepted reading %s; skipping it: %v", msg.LoggableID, err)
				continue
			}
			r.Update(accepted)
		}
	}
}
