package ontology

import (
	"fmt"
	"math"
	"slices"
)

// ClassNode describes a single class of the hierarchy.
//
// Only Name is mandatory. A class without superclasses is a root class. A class
// declaring both Min and Max supports synthetic-value generation.
type ClassNode struct {
	// Name uniquely identifies the class within its hierarchy.
	Name string `json:"-" yaml:"-" validate:"required"`
	// Superclass lists the direct superclasses of this class. Multiple
	// inheritance is allowed, and names may reference classes that are not part
	// of the hierarchy.
	Superclass []string `json:"superclass,omitempty" yaml:"superclass,omitempty" validate:"dive,required"`
	// Min, Max and Mean are the statistical parameters of readings for this
	// class. Each is optional.
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Mean *float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	// UnitMeasure lists the units of measure of readings of this class; the
	// first one is canonical.
	UnitMeasure []string `json:"unitMeasure,omitempty" yaml:"unitMeasure,omitempty" validate:"dive,required"`
	// Metadata holds every other field found in the source description.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IsRoot reports whether the class declares no superclass.
func (c ClassNode) IsRoot() bool { return len(c.Superclass) == 0 }

// Bounds returns the declared Min and Max of the class. The ok result is false
// unless both are declared.
func (c ClassNode) Bounds() (lo, hi float64, ok bool) {
	if c.Min == nil || c.Max == nil {
		return 0, 0, false
	}
	return *c.Min, *c.Max, true
}

// CanonicalUnit returns the first declared unit of measure, or the empty string.
func (c ClassNode) CanonicalUnit() string {
	if len(c.UnitMeasure) == 0 {
		return ""
	}
	return c.UnitMeasure[0]
}

// check enforces the constraints a class must satisfy on top of its struct tags:
// finite statistical parameters, and a lower bound not exceeding the upper one.
func (c ClassNode) check() error {
	for _, p := range []struct {
		field string
		value *float64
	}{{fieldMin, c.Min}, {fieldMax, c.Max}, {fieldMean, c.Mean}} {
		if p.value != nil && (math.IsNaN(*p.value) || math.IsInf(*p.value, 0)) {
			return fmt.Errorf("field %s: want a finite number, got %v", p.field, *p.value)
		}
	}
	if lo, hi, ok := c.Bounds(); ok && lo > hi {
		return fmt.Errorf("min %v exceeds max %v", lo, hi)
	}
	return nil
}

// Clone returns a deep copy of c so that callers cannot modify the hierarchy
// through shared slices and pointers.
func (c ClassNode) Clone() ClassNode {
	c.Superclass = slices.Clone(c.Superclass)
	c.UnitMeasure = slices.Clone(c.UnitMeasure)
	c.Min = cloneFloat(c.Min)
	c.Max = cloneFloat(c.Max)
	c.Mean = cloneFloat(c.Mean)
	if c.Metadata != nil {
		c.Metadata = cloneValue(c.Metadata).(map[string]any)
	}
	return c
}

// cloneValue copies the maps and lists of a decoded value recursively. Other
// values are immutable and returned as they are.
func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Hierarchy maps class names to their ClassNode.
type Hierarchy map[string]ClassNode

// Clone returns a deep copy of h.
func (h Hierarchy) Clone() Hierarchy {
	out := make(Hierarchy, len(h))
	for name, c := range h {
		out[name] = c.Clone()
	}
	return out
}

// Field names of the load schema.
const (
	fieldSuperclass  = "superclass"
	fieldMin         = "min"
	fieldMax         = "max"
	fieldMean        = "mean"
	fieldUnitMeasure = "unitMeasure"
)

// parseClass converts the loosely-typed fields of a class, as decoded from JSON
// or YAML, into a ClassNode. A nil fields map (i.e. a null class object) is
// malformed, whereas null field values are treated as absent.
func parseClass(name string, fields map[string]any) (ClassNode, error) {
	if fields == nil {
		return ClassNode{}, fmt.Errorf("class %q: not an object", name)
	}
	c := ClassNode{Name: name}
	for key, value := range fields {
		if value == nil {
			continue
		}
		var err error
		switch key {
		case fieldSuperclass:
			c.Superclass, err = stringList(value)
		case fieldUnitMeasure:
			c.UnitMeasure, err = stringList(value)
		case fieldMin:
			c.Min, err = number(value)
		case fieldMax:
			c.Max, err = number(value)
		case fieldMean:
			c.Mean, err = number(value)
		default:
			if c.Metadata == nil {
				c.Metadata = make(map[string]any)
			}
			c.Metadata[key] = value
		}
		if err != nil {
			return ClassNode{}, fmt.Errorf("class %q: field %s: %w", name, key, err)
		}
	}
	return c, nil
}

func stringList(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("want a list of strings, got %T", v)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("item %d: want a string, got %T", i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func number(v any) (*float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return nil, fmt.Errorf("want a number, got %T", v)
	}
	return &f, nil
}
