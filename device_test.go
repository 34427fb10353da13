package sensortwin

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeviceTypeOf(t *testing.T) {
	tests := []struct {
		class      string
		templateID string
		want       DeviceType
	}{
		{class: "Temperature", want: OntologyType{Class: "Temperature"}},
		{templateID: "tmpl-1", want: TemplateType{TemplateID: "tmpl-1"}},
		{class: "Temperature", templateID: "tmpl-1", want: TemplateType{TemplateID: "tmpl-1"}},
		{want: Untyped{}},
	}
	for _, tt := range tests {
		if got := DeviceTypeOf(tt.class, tt.templateID); got != tt.want {
			t.Errorf("DeviceTypeOf(%q, %q) = %v, want %v", tt.class, tt.templateID, got, tt.want)
		}
	}
}

func TestDeviceDoc(t *testing.T) {
	devices := []Device{
		{ID: "1", Name: "thermo", Type: OntologyType{Class: "Temperature"}, OwnerID: "alice"},
		{ID: "2", Name: "custom", Type: TemplateType{TemplateID: "tmpl-1"}, DigitalTwinID: "twin-2"},
		{
			ID:         "3",
			Name:       "loose",
			Type:       Untyped{},
			Attributes: map[string]SensorAttribute{"Mode": {Value: "eco"}},
			Metadata:   map[string]any{"floor": 2.0},
		},
	}
	for _, d := range devices {
		t.Run(d.Name, func(t *testing.T) {
			if diff := cmp.Diff(d, newDeviceDoc(d).device()); diff != "" {
				t.Errorf("deviceDoc round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		v      any
		want   float64
		wantOK bool
	}{
		{v: 1.5, want: 1.5, wantOK: true},
		{v: float32(2), want: 2, wantOK: true},
		{v: 3, want: 3, wantOK: true},
		{v: int64(-4), want: -4, wantOK: true},
		{v: uint64(5), want: 5, wantOK: true},
		{v: true},
		{v: "6"},
		{v: nil},
	}
	for _, tt := range tests {
		got, ok := numeric(tt.v)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("numeric(%#v) = %v, %v; want %v, %v", tt.v, got, ok, tt.want, tt.wantOK)
		}
	}
}
