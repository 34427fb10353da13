package sensortwin

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/go-digitaltwin/sensortwin/ontology"
)

// TemplateSource looks up device templates by ID. It returns an error wrapping
// ErrTemplateNotFound if there is no such template.
type TemplateSource interface {
	Template(ctx context.Context, id string) (DeviceTemplate, error)
}

// Validator checks devices at the boundary of the system, against the ontology
// for ontology-typed devices and against their template for template-typed
// ones.
type Validator struct {
	Ontology  *ontology.Manager
	Templates TemplateSource
}

// ValidateDevice returns a *ValidationError listing every problem with the
// device, or nil if it is valid. Other errors are returned as is when the
// device's template cannot be retrieved.
func (v Validator) ValidateDevice(ctx context.Context, d Device) error {
	problems := validationErrors{subject: "device"}
	problems.addStruct(d)

	// Attributes are reported in map order; sort them to keep messages stable.
	attrs := slices.Sorted(maps.Keys(d.Attributes))

	switch t := d.Type.(type) {
	case OntologyType:
		if !v.Ontology.Contains(t.Class) {
			problems.addf("device type %q is not defined in the ontology", t.Class)
			break
		}
		for _, name := range attrs {
			if !v.Ontology.IsSensorCompatible(t.Class, name) {
				problems.addf("attribute %q is not compatible with device type %q", name, t.Class)
				continue
			}
			if _, ok := numeric(d.Attributes[name].Value); !ok {
				problems.addf("attribute %q has non-numeric value %s", name, formatValue(d.Attributes[name].Value))
			}
		}

	case TemplateType:
		tmpl, err := v.Templates.Template(ctx, t.TemplateID)
		if errors.Is(err, ErrTemplateNotFound) {
			problems.addf("device template %q does not exist", t.TemplateID)
			break
		} else if err != nil {
			return fmt.Errorf("get template: %w", err)
		}
		for _, name := range attrs {
			if _, ok := tmpl.Attributes[name]; !ok {
				problems.addf("attribute %q is not defined by template %q", name, tmpl.Name)
				continue
			}
			if value := d.Attributes[name].Value; !tmpl.ValidateAttributeValue(name, value) {
				problems.addf("attribute %q has invalid value %s", name, formatValue(value))
			}
		}
		for _, name := range slices.Sorted(maps.Keys(tmpl.Attributes)) {
			c := tmpl.Attributes[name].Constraints
			if _, ok := d.Attributes[name]; !ok && c != nil && c.Required {
				problems.addf("required attribute %q is missing", name)
			}
		}

	case Untyped:
	case nil:
		problems.addf("device type is missing")
	}

	return problems.err()
}
