package sensortwin

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var thermostatTemplate = DeviceTemplate{
	ID:   "tmpl-thermostat",
	Name: "Thermostat",
	Attributes: map[string]AttributeDefinition{
		"Setpoint": {
			Name:         "Setpoint",
			Type:         AttributeNumber,
			UnitMeasure:  "C",
			Constraints:  &AttributeConstraint{MinValue: float(5), MaxValue: float(30), Required: true},
			DefaultValue: 21.0,
		},
		"Mode": {
			Name:         "Mode",
			Type:         AttributeString,
			Constraints:  &AttributeConstraint{EnumValues: []any{"eco", "comfort", "off"}},
			DefaultValue: "eco",
		},
		"Serial": {
			Name:        "Serial",
			Type:        AttributeString,
			Constraints: &AttributeConstraint{Pattern: `[A-Z]{2}\d+`},
		},
		"Enabled":  {Name: "Enabled", Type: AttributeBoolean},
		"Schedule": {Name: "Schedule", Type: AttributeArray},
		"Location": {Name: "Location", Type: AttributeObject},
		"Level": {
			Name:        "Level",
			Type:        AttributeNumber,
			Constraints: &AttributeConstraint{EnumValues: []any{1.0, 2.0, 3.0}},
		},
	},
}

func TestDeviceTemplate_ValidateAttributeValue(t *testing.T) {
	tests := []struct {
		name  string
		attr  string
		value any
		want  bool
	}{
		{name: "Number", attr: "Setpoint", value: 21.5, want: true},
		{name: "Integer", attr: "Setpoint", value: 21, want: true},
		{name: "AtMin", attr: "Setpoint", value: 5.0, want: true},
		{name: "BelowMin", attr: "Setpoint", value: 4.99, want: false},
		{name: "AboveMax", attr: "Setpoint", value: 30.5, want: false},
		{name: "NaN", attr: "Setpoint", value: math.NaN(), want: false},
		{name: "Infinity", attr: "Setpoint", value: math.Inf(-1), want: false},
		{name: "NaNEnum", attr: "Level", value: math.NaN(), want: false},
		{name: "BoolIsNotNumber", attr: "Setpoint", value: true, want: false},
		{name: "StringIsNotNumber", attr: "Setpoint", value: "21", want: false},
		{name: "Enum", attr: "Mode", value: "comfort", want: true},
		{name: "NotInEnum", attr: "Mode", value: "turbo", want: false},
		{name: "NumericEnum", attr: "Level", value: 2, want: true},
		{name: "NotInNumericEnum", attr: "Level", value: 4.0, want: false},
		{name: "Pattern", attr: "Serial", value: "AB123", want: true},
		{name: "PatternMatchesPrefix", attr: "Serial", value: "AB123-rev2", want: true},
		{name: "PatternAnchored", attr: "Serial", value: "xAB123", want: false},
		{name: "Boolean", attr: "Enabled", value: false, want: true},
		{name: "NotBoolean", attr: "Enabled", value: 0, want: false},
		{name: "Array", attr: "Schedule", value: []any{"08:00", "18:00"}, want: true},
		{name: "NotArray", attr: "Schedule", value: "08:00", want: false},
		{name: "Object", attr: "Location", value: map[string]any{"room": "kitchen"}, want: true},
		{name: "NotObject", attr: "Location", value: []any{"kitchen"}, want: false},
		{name: "Nil", attr: "Location", value: nil, want: false},
		{name: "Undefined", attr: "Humidity", value: 40.0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := thermostatTemplate.ValidateAttributeValue(tt.attr, tt.value); got != tt.want {
				t.Errorf("ValidateAttributeValue(%q, %#v) = %v, want %v", tt.attr, tt.value, got, tt.want)
			}
		})
	}
}

func TestDeviceTemplate_ValidateAttributeValue_BadPattern(t *testing.T) {
	tmpl := DeviceTemplate{Attributes: map[string]AttributeDefinition{
		"Code": {Name: "Code", Type: AttributeString, Constraints: &AttributeConstraint{Pattern: "("}},
	}}
	if tmpl.ValidateAttributeValue("Code", "(") {
		t.Error("ValidateAttributeValue() = true with an invalid pattern, want false")
	}
}

func TestDeviceTemplate_DefaultValues(t *testing.T) {
	want := map[string]any{"Setpoint": 21.0, "Mode": "eco"}
	if diff := cmp.Diff(want, thermostatTemplate.DefaultValues()); diff != "" {
		t.Errorf("DefaultValues() mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateFromOntology(t *testing.T) {
	m := newTestOntology(t)

	got, ok := TemplateFromOntology(m, "Temperature", "")
	if !ok {
		t.Fatal("TemplateFromOntology(Temperature) not ok")
	}
	want := DeviceTemplate{
		Name:        "Template from Temperature",
		Description: "Template automatically generated for sensor type Temperature",
		Attributes: map[string]AttributeDefinition{
			"Temperature": {
				Name:        "Temperature",
				Type:        AttributeNumber,
				UnitMeasure: "C",
				Description: "Value of Temperature sensor",
				Constraints: &AttributeConstraint{MinValue: float(0), MaxValue: float(100)},
			},
		},
		Metadata:      map[string]any{"source_ontology_type": "Temperature"},
		Version:       DefaultTemplateVersion,
		OntologyBased: true,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(DeviceTemplate{}, "ID")); diff != "" {
		t.Errorf("TemplateFromOntology() mismatch (-want +got):\n%s", diff)
	}
	if got.ID == "" {
		t.Error("TemplateFromOntology() returned a template without ID")
	}
	if !got.ValidateAttributeValue("Temperature", 42.0) || got.ValidateAttributeValue("Temperature", 142.0) {
		t.Error("Template from Temperature does not enforce the class bounds")
	}

	unbounded, ok := TemplateFromOntology(m, "RoomTemperature", "Rooms")
	if !ok || unbounded.Name != "Rooms" || unbounded.Attributes["RoomTemperature"].Constraints != nil {
		t.Errorf("TemplateFromOntology(RoomTemperature) = %+v, %v; want a named template without constraints", unbounded, ok)
	}

	if _, ok := TemplateFromOntology(m, "Foo", ""); ok {
		t.Error("TemplateFromOntology(Foo) ok for an unknown class")
	}
}
