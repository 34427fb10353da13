package sensortwin

import (
	"fmt"
	"strconv"
)

// A DeviceType determines which attributes a Device may report and how they are
// validated. It is one of OntologyType, TemplateType or Untyped; no other
// implementations exist.
type DeviceType interface {
	fmt.Stringer
	// deviceType seals the interface; a Device is typed by exactly one of the
	// variants declared in this package.
	deviceType()
}

// OntologyType types a device by a class of the ontology. Such a device may
// report any attribute compatible with its class.
type OntologyType struct {
	Class string
}

// TemplateType types a device by a DeviceTemplate. Such a device may only report
// the attributes its template defines.
type TemplateType struct {
	TemplateID string
}

// Untyped devices are not checked against the ontology or any template.
type Untyped struct{}

func (OntologyType) deviceType() {}
func (TemplateType) deviceType() {}
func (Untyped) deviceType()      {}

func (t OntologyType) String() string { return t.Class }
func (t TemplateType) String() string { return "template:" + t.TemplateID }
func (Untyped) String() string        { return "untyped" }

// DeviceTypeOf returns the DeviceType described by the loosely-typed pair found
// in device documents: a template ID takes precedence over an ontology class,
// and a device with neither is Untyped.
func DeviceTypeOf(class, templateID string) DeviceType {
	switch {
	case templateID != "":
		return TemplateType{TemplateID: templateID}
	case class != "":
		return OntologyType{Class: class}
	default:
		return Untyped{}
	}
}

// SensorAttribute is a single reported attribute of a device.
type SensorAttribute struct {
	Value       any    `json:"value" docstore:"value"`
	UnitMeasure string `json:"unit_measure,omitempty" docstore:"unit_measure"`
}

// Device is a physical device registered with the system.
type Device struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
	Type DeviceType

	Attributes    map[string]SensorAttribute `validate:"dive,keys,required,endkeys"`
	Metadata      map[string]any
	DigitalTwinID string
	OwnerID       string
}

// deviceDoc is the stored form of a Device. Document stores cannot decode into
// the DeviceType interface, so the variant is flattened into two fields.
type deviceDoc struct {
	ID               string                     `docstore:"id"`
	Name             string                     `docstore:"name"`
	DeviceType       string                     `docstore:"device_type"`
	TemplateID       string                     `docstore:"template_id"`
	Attributes       map[string]SensorAttribute `docstore:"attributes"`
	Metadata         map[string]any             `docstore:"metadata"`
	DigitalTwinID    string                     `docstore:"digital_twin_id"`
	OwnerID          string                     `docstore:"owner_id"`
	DocstoreRevision any
}

func newDeviceDoc(d Device) *deviceDoc {
	doc := &deviceDoc{
		ID:            d.ID,
		Name:          d.Name,
		Attributes:    d.Attributes,
		Metadata:      d.Metadata,
		DigitalTwinID: d.DigitalTwinID,
		OwnerID:       d.OwnerID,
	}
	switch t := d.Type.(type) {
	case OntologyType:
		doc.DeviceType = t.Class
	case TemplateType:
		doc.TemplateID = t.TemplateID
	}
	return doc
}

func (doc *deviceDoc) device() Device {
	return Device{
		ID:            doc.ID,
		Name:          doc.Name,
		Type:          DeviceTypeOf(doc.DeviceType, doc.TemplateID),
		Attributes:    doc.Attributes,
		Metadata:      doc.Metadata,
		DigitalTwinID: doc.DigitalTwinID,
		OwnerID:       doc.OwnerID,
	}
}

// numeric returns v as a float64 if it holds a Go number. Booleans are not
// numbers.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// formatValue renders an attribute value for error messages.
func formatValue(v any) string {
	if f, ok := numeric(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
