package sensortwin

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeriveCapabilities(t *testing.T) {
	m := newTestOntology(t)

	tests := []struct {
		name       string
		compatible []string
		want       Capabilities
	}{
		{
			name:       "Temperature",
			compatible: m.CompatibleSensors("Temperature"),
			want: Capabilities{
				Operations: []string{
					"aggregate_Sensor_data",
					"aggregate_Temperature_data",
					"analyze_Temperature_range",
					"compute_Temperature_statistics",
					"convert_Temperature_units",
					"manage_Sensor_settings",
					"track_RoomTemperature",
					"track_Sensor",
					"track_Temperature",
					"view_RoomTemperature_history",
					"view_Sensor_history",
					"view_Temperature_history",
				},
				Dashboards: []string{
					"RoomTemperature_dashboard",
					"Sensor_aggregated_view",
					"Sensor_dashboard",
					"Sensor_integrated_dashboard",
					"Sensor_primary_dashboard",
					"Temperature_aggregated_view",
					"Temperature_dashboard",
					"Temperature_integrated_dashboard",
				},
			},
		},
		{
			name:       "Humidity",
			compatible: []string{"Humidity"},
			want: Capabilities{
				Operations: []string{
					"analyze_Humidity_range",
					"convert_Humidity_units",
					"track_Humidity",
					"view_Humidity_history",
				},
				Dashboards: []string{
					"Humidity_dashboard",
					"Sensor_integrated_dashboard",
				},
			},
		},
		{
			name:       "UnknownSensors",
			compatible: []string{"Foo"},
			want:       Capabilities{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveCapabilities(m, tt.compatible)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DeriveCapabilities() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDigitalTwin_Accepts(t *testing.T) {
	twin := newDigitalTwin("twin", newTestOntology(t), Device{ID: "dev", Name: "probe"}, "RoomTemperature")
	if twin.Name != "DT_probe" || twin.DeviceID != "dev" || twin.DeviceType != "RoomTemperature" {
		t.Errorf("newDigitalTwin() = %+v, want the twin of device dev", twin)
	}
	for _, sensor := range []string{"RoomTemperature", "Temperature", "Sensor"} {
		if !twin.Accepts(sensor) {
			t.Errorf("Accepts(%q) = false, want true", sensor)
		}
	}
	for _, sensor := range []string{"Humidity", "Pressure", "Foo"} {
		if twin.Accepts(sensor) {
			t.Errorf("Accepts(%q) = true, want false", sensor)
		}
	}
}
