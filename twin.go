package sensortwin

import (
	"slices"
	"time"

	"github.com/go-digitaltwin/sensortwin/ontology"
)

// SensorData is a single reading stored in a digital twin.
type SensorData struct {
	Timestamp   time.Time `json:"timestamp" docstore:"timestamp"`
	Value       float64   `json:"value" docstore:"value"`
	UnitMeasure string    `json:"unit_measure,omitempty" docstore:"unit_measure"`
}

// DigitalReplica holds the readings reported by the physical device, per
// sensor, in the order they were accepted.
type DigitalReplica struct {
	SensorData  map[string][]SensorData `json:"sensor_data" docstore:"sensor_data"`
	LastUpdated time.Time               `json:"last_updated" docstore:"last_updated"`
	Metadata    map[string]any          `json:"metadata,omitempty" docstore:"metadata"`
}

// ServiceLayer describes the operations a digital twin offers on its data.
type ServiceLayer struct {
	AvailableOperations   []string       `json:"available_operations" docstore:"available_operations"`
	DataProcessingConfigs map[string]any `json:"data_processing_configs" docstore:"data_processing_configs"`
	AnalyticsConfigs      map[string]any `json:"analytics_configs,omitempty" docstore:"analytics_configs"`
}

// ApplicationLayer describes how a digital twin is presented.
type ApplicationLayer struct {
	Dashboards           []string       `json:"dashboards" docstore:"dashboards"`
	VisualizationConfigs map[string]any `json:"visualization_configs" docstore:"visualization_configs"`
	UserInterfaces       []string       `json:"user_interfaces,omitempty" docstore:"user_interfaces"`
}

// DigitalTwin mirrors an ontology-typed device. Its compatible sensors are
// fixed when it is created and decide which readings it accepts.
type DigitalTwin struct {
	ID                string           `json:"id" docstore:"id"`
	Name              string           `json:"name" docstore:"name"`
	DeviceID          string           `json:"device_id" docstore:"device_id"`
	DeviceType        string           `json:"device_type" docstore:"device_type"`
	Replica           DigitalReplica   `json:"digital_replica" docstore:"digital_replica"`
	Services          ServiceLayer     `json:"service_layer" docstore:"service_layer"`
	Application       ApplicationLayer `json:"application_layer" docstore:"application_layer"`
	CompatibleSensors []string         `json:"compatible_sensors" docstore:"compatible_sensors"`
	OwnerID           string           `json:"owner_id,omitempty" docstore:"owner_id"`

	DocstoreRevision any `json:"-"`
}

// Accepts reports whether the twin accepts readings of the given sensor.
func (t DigitalTwin) Accepts(sensor string) bool {
	return slices.Contains(t.CompatibleSensors, sensor)
}

// Capabilities are the operations and dashboards a digital twin offers.
type Capabilities struct {
	Operations []string
	Dashboards []string
}

// DeriveCapabilities derives the capabilities of a digital twin from the
// ontology classes of its compatible sensors. Every known class is tracked, has
// a history and a dashboard. Beyond that a class offers
//
//   - range analysis if it declares min and max, and statistics if it also
//     declares a mean;
//   - unit conversion if it declares units of measure;
//   - settings management and a primary dashboard if it is a root class;
//   - data aggregation and an aggregated view if it has subclasses;
//   - an integrated dashboard for each of its ancestors.
//
// Sensors that are not classes of the ontology contribute nothing. Both lists
// are sorted and free of duplicates.
func DeriveCapabilities(m *ontology.Manager, compatible []string) Capabilities {
	var ops, dashboards []string
	for _, sensor := range compatible {
		c, ok := m.SensorDetails(sensor)
		if !ok {
			continue
		}
		ops = append(ops, "track_"+sensor, "view_"+sensor+"_history")
		if c.Min != nil && c.Max != nil {
			ops = append(ops, "analyze_"+sensor+"_range")
			if c.Mean != nil {
				ops = append(ops, "compute_"+sensor+"_statistics")
			}
		}
		if len(c.UnitMeasure) > 0 {
			ops = append(ops, "convert_"+sensor+"_units")
		}
		if c.IsRoot() {
			ops = append(ops, "manage_"+sensor+"_settings")
			dashboards = append(dashboards, sensor+"_primary_dashboard")
		}
		if len(m.AllSubclasses(sensor)) > 0 {
			ops = append(ops, "aggregate_"+sensor+"_data")
			dashboards = append(dashboards, sensor+"_aggregated_view")
		}
		for _, super := range m.AllSuperclasses(sensor) {
			dashboards = append(dashboards, super+"_integrated_dashboard")
		}
		dashboards = append(dashboards, sensor+"_dashboard")
	}
	slices.Sort(ops)
	slices.Sort(dashboards)
	return Capabilities{
		Operations: slices.Compact(ops),
		Dashboards: slices.Compact(dashboards),
	}
}

// newDigitalTwin returns the digital twin of an ontology-typed device, with the
// default processing and visualization configuration.
func newDigitalTwin(id string, m *ontology.Manager, d Device, class string) DigitalTwin {
	compatible := m.CompatibleSensors(class)
	capabilities := DeriveCapabilities(m, compatible)
	return DigitalTwin{
		ID:         id,
		Name:       "DT_" + d.Name,
		DeviceID:   d.ID,
		DeviceType: class,
		Replica: DigitalReplica{
			SensorData: make(map[string][]SensorData),
		},
		Services: ServiceLayer{
			AvailableOperations: capabilities.Operations,
			DataProcessingConfigs: map[string]any{
				"enabled":             true,
				"sampling_rate":       "auto",
				"storage_policy":      "time_series",
				"aggregation_methods": []any{"avg", "min", "max"},
			},
		},
		Application: ApplicationLayer{
			Dashboards: capabilities.Dashboards,
			VisualizationConfigs: map[string]any{
				"default_view":       "time_series",
				"available_views":    []any{"time_series", "gauge", "numeric", "comparison"},
				"time_range_presets": []any{"last_hour", "last_day", "last_week", "last_month", "custom"},
			},
		},
		CompatibleSensors: compatible,
		OwnerID:           d.OwnerID,
	}
}
