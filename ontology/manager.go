package ontology

import (
	"context"
	"fmt"
	"math"
	randv2 "math/rand/v2"
	"slices"
	"sync"

	"github.com/danielorbach/go-component"
	"github.com/go-playground/validator/v10"
)

// validate checks the struct tags of every ClassNode before it enters a
// Manager.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Manager answers queries about an immutable class hierarchy.
//
// Besides the hierarchy itself, a Manager keeps the inverse of the superclass
// edges (the subclass index) so that descendants are found without scanning
// the whole hierarchy.
//
// A Manager is safe for concurrent use. Queries about unknown classes never
// fail; they return empty results or false instead.
type Manager struct {
	classes    Hierarchy
	subclasses map[string][]string // Direct children, sorted, by superclass name.
	names      []string            // Sorted class names.
	roots      []string            // Sorted names of classes without superclasses.

	// The random source is the only mutable state of a Manager.
	mu   sync.Mutex
	rand *randv2.Rand
}

// New returns a Manager over a copy of the given hierarchy. It validates the
// hierarchy exactly like Load does, and returns a *LoadError if it is
// malformed.
//
// The key of each entry names the class; a ClassNode with an empty Name takes
// the name of its key.
func New(ctx context.Context, h Hierarchy, opts ...Option) (*Manager, error) {
	m, err := newManager(ctx, h.Clone(), newOptions(opts))
	if err != nil {
		return nil, &LoadError{Source: "hierarchy", Err: err}
	}
	return m, nil
}

// MustNew is like New but panics if the hierarchy is malformed. It simplifies
// the initialisation of package-level fixtures.
func MustNew(h Hierarchy, opts ...Option) *Manager {
	m, err := New(context.Background(), h, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// newManager validates h and builds the indexes of a Manager. It takes
// ownership of h.
func newManager(ctx context.Context, h Hierarchy, o options) (*Manager, error) {
	logger := component.Logger(ctx)

	m := &Manager{
		classes:    h,
		subclasses: make(map[string][]string),
		names:      make([]string, 0, len(h)),
		rand:       o.rand,
	}
	for name := range h {
		m.names = append(m.names, name)
	}
	// Iterating in sorted order keeps every index sorted without further work.
	slices.Sort(m.names)

	for _, name := range m.names {
		c := h[name]
		if c.Name == "" {
			c.Name = name
			h[name] = c
		} else if c.Name != name {
			return nil, malformed(fmt.Errorf("class %q is keyed as %q", c.Name, name))
		}
		if err := validate.Struct(c); err != nil {
			return nil, malformed(fmt.Errorf("class %q: %w", name, err))
		}
		if err := c.check(); err != nil {
			return nil, malformed(fmt.Errorf("class %q: %w", name, err))
		}

		if c.IsRoot() {
			m.roots = append(m.roots, name)
		}
		for _, super := range c.Superclass {
			if _, ok := h[super]; !ok {
				if o.strict {
					return nil, malformed(fmt.Errorf("class %q: unknown superclass %q", name, super))
				}
				logger.Warn("Class declares a superclass missing from the hierarchy",
					"class", name,
					"superclass", super,
				)
			}
			// A class may list the same superclass twice; the index is a set.
			if !slices.Contains(m.subclasses[super], name) {
				m.subclasses[super] = append(m.subclasses[super], name)
			}
		}
	}

	logger.Debug("Class hierarchy indexed",
		"classes", len(m.names),
		"roots", len(m.roots),
	)
	return m, nil
}

// SensorDetails returns the class with the given name. The ok result is false
// if the hierarchy has no such class.
func (m *Manager) SensorDetails(name string) (c ClassNode, ok bool) {
	c, ok = m.classes[name]
	if !ok {
		return ClassNode{}, false
	}
	return c.Clone(), true
}

// Contains reports whether the hierarchy has a class with the given name.
func (m *Manager) Contains(name string) bool {
	_, ok := m.classes[name]
	return ok
}

// SensorTypes returns the names of all classes, sorted.
func (m *Manager) SensorTypes() []string {
	return slices.Clone(m.names)
}

// RootClasses returns the names of all classes that declare no superclass,
// sorted.
func (m *Manager) RootClasses() []string {
	return slices.Clone(m.roots)
}

// Subclasses returns the names of the classes that declare the given class as a
// direct superclass, sorted.
//
// The given name need not be part of the hierarchy: classes may declare
// superclasses that are missing from it.
func (m *Manager) Subclasses(name string) []string {
	return slices.Clone(m.subclasses[name])
}

// AllSubclasses returns the names of all descendants of the given class, sorted
// and without duplicates.
//
// The class itself is part of the result only if the hierarchy is cyclic and the
// class descends from itself.
func (m *Manager) AllSubclasses(name string) []string {
	return closure(name, func(n string) []string { return m.subclasses[n] })
}

// AllSuperclasses returns the names of all ancestors of the given class, sorted
// and without duplicates. It returns nil if the class is unknown.
//
// Declared superclasses that are missing from the hierarchy are part of the
// result, but have no ancestors of their own.
func (m *Manager) AllSuperclasses(name string) []string {
	return closure(name, func(n string) []string { return m.classes[n].Superclass })
}

// closure returns the set of names reachable from start by repeatedly following
// the edges returned by next, excluding start unless it lies on a cycle.
//
// It expands every name at most once, so it terminates on cyclic graphs and
// never reports duplicates, however many paths lead to a name.
func closure(start string, next func(string) []string) []string {
	var (
		seen  = make(map[string]struct{})
		stack = slices.Clone(next(start))
		out   []string
	)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		stack = append(stack, next(n)...)
	}
	slices.Sort(out)
	return out
}

// IsSensorCompatible reports whether a device of the given type may report the
// given sensor attribute. That is the case when the sensor is the device's type
// itself, one of its ancestors, or one of its descendants.
//
// It returns false if the device type is unknown.
func (m *Manager) IsSensorCompatible(deviceType, sensorType string) bool {
	if !m.Contains(deviceType) {
		return false
	}
	if sensorType == deviceType {
		return true
	}
	if _, found := slices.BinarySearch(m.AllSuperclasses(deviceType), sensorType); found {
		return true
	}
	_, found := slices.BinarySearch(m.AllSubclasses(deviceType), sensorType)
	return found
}

// CompatibleSensors returns the names of all sensor attributes a device of the
// given type may report: the type itself, its ancestors and its descendants,
// sorted. It returns nil if the device type is unknown.
func (m *Manager) CompatibleSensors(deviceType string) []string {
	if !m.Contains(deviceType) {
		return nil
	}
	set := []string{deviceType}
	set = append(set, m.AllSuperclasses(deviceType)...)
	set = append(set, m.AllSubclasses(deviceType)...)
	slices.Sort(set)
	return slices.Compact(set)
}

// ClassTrees maps every root class to all of its descendants.
func (m *Manager) ClassTrees() map[string][]string {
	trees := make(map[string][]string, len(m.roots))
	for _, root := range m.roots {
		trees[root] = m.AllSubclasses(root)
	}
	return trees
}

// Hierarchy returns a copy of the underlying hierarchy.
func (m *Manager) Hierarchy() Hierarchy {
	return m.classes.Clone()
}

// GenerateValue draws a synthetic reading for the given class. The ok result is
// false unless the class declares both min and max.
//
// Values follow a normal distribution centred on the declared mean (or the
// midpoint of the bounds) with a standard deviation of a sixth of the range, so
// about 99.7% of draws fall within the bounds. Draws are clamped into
// [min, max] and rounded to 2 decimal places.
func (m *Manager) GenerateValue(name string) (v float64, ok bool) {
	lo, hi, ok := m.classes[name].Bounds()
	if !ok {
		countUnavailable(name)
		return 0, false
	}
	mean := (lo + hi) / 2
	if c := m.classes[name]; c.Mean != nil {
		mean = *c.Mean
	}

	m.mu.Lock()
	z := m.rand.NormFloat64()
	m.mu.Unlock()

	v = clamp(mean+z*(hi-lo)/6, lo, hi)
	// Rounding may step over a bound that has more than 2 decimal places.
	return clamp(math.Round(v*100)/100, lo, hi), true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
