package sensortwin

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"

	"github.com/go-digitaltwin/sensortwin/ontology"
	"github.com/google/uuid"
)

// AttributeType is the type of values an AttributeDefinition accepts.
type AttributeType string

const (
	AttributeNumber  AttributeType = "number"
	AttributeString  AttributeType = "string"
	AttributeBoolean AttributeType = "boolean"
	AttributeObject  AttributeType = "object"
	AttributeArray   AttributeType = "array"
)

// AttributeConstraint restricts the values of an attribute beyond its type.
// Bounds apply to numbers and patterns to strings; enumerations apply to any
// type.
type AttributeConstraint struct {
	MinValue *float64 `json:"min_value,omitempty" docstore:"min_value"`
	MaxValue *float64 `json:"max_value,omitempty" docstore:"max_value"`
	// Pattern is a regular expression that must match at the start of a string
	// value.
	Pattern    string `json:"pattern,omitempty" docstore:"pattern"`
	EnumValues []any  `json:"enum_values,omitempty" docstore:"enum_values"`
	// Required attributes must be reported by every device of the template.
	Required bool `json:"required,omitempty" docstore:"required"`
}

// AttributeDefinition defines a single attribute of a DeviceTemplate.
type AttributeDefinition struct {
	Name         string               `json:"name" docstore:"name" validate:"required"`
	Type         AttributeType        `json:"type" docstore:"type" validate:"oneof=number string boolean object array"`
	UnitMeasure  string               `json:"unit_measure,omitempty" docstore:"unit_measure"`
	Description  string               `json:"description,omitempty" docstore:"description"`
	Constraints  *AttributeConstraint `json:"constraints,omitempty" docstore:"constraints"`
	DefaultValue any                  `json:"default_value,omitempty" docstore:"default_value"`
	Metadata     map[string]any       `json:"metadata,omitempty" docstore:"metadata"`
}

// DeviceTemplate defines the structure of a family of devices: the attributes
// they report and the values those attributes accept.
type DeviceTemplate struct {
	ID            string                         `json:"id" docstore:"id" validate:"required"`
	Name          string                         `json:"name" docstore:"name" validate:"required"`
	Description   string                         `json:"description,omitempty" docstore:"description"`
	Attributes    map[string]AttributeDefinition `json:"attributes" docstore:"attributes" validate:"required,dive"`
	Metadata      map[string]any                 `json:"metadata,omitempty" docstore:"metadata"`
	Version       string                         `json:"version" docstore:"version"`
	OwnerID       string                         `json:"owner_id,omitempty" docstore:"owner_id"`
	OntologyBased bool                           `json:"is_ontology_based" docstore:"is_ontology_based"`

	DocstoreRevision any `json:"-"`
}

// DefaultTemplateVersion is the version of templates that do not declare one.
const DefaultTemplateVersion = "1.0.0"

// ValidateAttributeValue reports whether value is acceptable for the named
// attribute of the template. It is false for attributes the template does not
// define, and for numbers that are not finite.
func (t DeviceTemplate) ValidateAttributeValue(name string, value any) bool {
	def, ok := t.Attributes[name]
	if !ok || !def.Type.accepts(value) {
		return false
	}
	n, _ := numeric(value)
	if def.Type == AttributeNumber && (math.IsNaN(n) || math.IsInf(n, 0)) {
		return false
	}
	c := def.Constraints
	if c == nil {
		return true
	}
	switch def.Type {
	case AttributeNumber:
		if c.MinValue != nil && n < *c.MinValue {
			return false
		}
		if c.MaxValue != nil && n > *c.MaxValue {
			return false
		}
	case AttributeString:
		if c.Pattern != "" {
			re, err := regexp.Compile(`^(?:` + c.Pattern + `)`)
			if err != nil || !re.MatchString(value.(string)) {
				return false
			}
		}
	}
	if len(c.EnumValues) > 0 && !slices.ContainsFunc(c.EnumValues, func(e any) bool { return sameValue(e, value) }) {
		return false
	}
	return true
}

// DefaultValues returns the default value of every attribute that declares one.
func (t DeviceTemplate) DefaultValues() map[string]any {
	values := make(map[string]any)
	for name, def := range t.Attributes {
		if def.DefaultValue != nil {
			values[name] = def.DefaultValue
		}
	}
	return values
}

// accepts reports whether v has the Go representation of values of type t, as
// produced by decoding JSON.
func (t AttributeType) accepts(v any) bool {
	switch t {
	case AttributeNumber:
		_, ok := numeric(v)
		return ok
	case AttributeString:
		_, ok := v.(string)
		return ok
	case AttributeBoolean:
		_, ok := v.(bool)
		return ok
	case AttributeObject:
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
	case AttributeArray:
		rv := reflect.ValueOf(v)
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	default:
		return false
	}
}

// sameValue compares two attribute values, treating numbers of different Go
// types as equal when their values are.
func sameValue(a, b any) bool {
	x, aok := numeric(a)
	y, bok := numeric(b)
	if aok && bok {
		return x == y
	}
	return reflect.DeepEqual(a, b)
}

// TemplateFromOntology returns a template for devices of the given ontology
// class. The template has a single number attribute named after the class,
// bounded by the class's min and max (if it declares both) and measured in its
// canonical unit. The ok result is false if the class is unknown.
//
// An empty name defaults to "Template from <class>".
func TemplateFromOntology(m *ontology.Manager, class, name string) (t DeviceTemplate, ok bool) {
	c, ok := m.SensorDetails(class)
	if !ok {
		return DeviceTemplate{}, false
	}
	if name == "" {
		name = "Template from " + class
	}
	def := AttributeDefinition{
		Name:        class,
		Type:        AttributeNumber,
		UnitMeasure: c.CanonicalUnit(),
		Description: fmt.Sprintf("Value of %s sensor", class),
	}
	if lo, hi, ok := c.Bounds(); ok {
		def.Constraints = &AttributeConstraint{MinValue: &lo, MaxValue: &hi}
	}
	return DeviceTemplate{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   "Template automatically generated for sensor type " + class,
		Attributes:    map[string]AttributeDefinition{class: def},
		Metadata:      map[string]any{"source_ontology_type": class},
		Version:       DefaultTemplateVersion,
		OntologyBased: true,
	}, true
}
