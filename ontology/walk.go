package ontology

import (
	"fmt"
	"strings"
)

// A Visitor's Visit method is invoked for each class encountered by Walk. If the
// result visitor w is not nil, Walk visits each subclass of the class with the
// visitor w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(class *ClassNode) (w Visitor)
}

// Walk traverses the hierarchy in depth-first order: It calls WalkSubtree for
// each of the root classes, in sorted order.
//
// A class with several superclasses is visited once under each of them. Classes
// that only take part in a cycle are never reached from a root and so are never
// visited.
func Walk(v Visitor, m *Manager) {
	for _, root := range m.roots {
		WalkSubtree(v, m, root)
	}
}

// WalkSubtree traverses the subtree under the given class in depth-first order:
// It starts by calling v.Visit with the class. If the visitor w returned by
// v.Visit is not nil, WalkSubtree is invoked recursively with visitor w for each
// subclass, followed by a call of w.Visit(nil).
//
// A subclass that is already an ancestor on the current path is skipped, which
// guarantees termination on cyclic hierarchies. WalkSubtree does nothing if the
// class is unknown.
func WalkSubtree(v Visitor, m *Manager, name string) {
	walk(v, m, name, make(map[string]bool))
}

func walk(v Visitor, m *Manager, name string, path map[string]bool) {
	c, ok := m.classes[name]
	if !ok || path[name] {
		return
	}
	c = c.Clone()
	if v = v.Visit(&c); v == nil {
		return
	}
	path[name] = true
	for _, sub := range m.subclasses[name] {
		walk(v, m, sub, path)
	}
	delete(path, name)
	v.Visit(nil)
}

type inspector func(*ClassNode) bool

func (f inspector) Visit(class *ClassNode) Visitor {
	if f(class) {
		return f
	}
	return nil
}

// Inspect traverses the hierarchy in depth-first order: It starts by calling
// f(root) for every root class. If f returns true, Inspect invokes f
// recursively for each subclass, followed by a call of f(nil).
func Inspect(m *Manager, f func(class *ClassNode) bool) {
	Walk(inspector(f), m)
}

// printer renders each visited class on its own line, indented by depth.
type printer struct {
	b      *strings.Builder
	indent string
	depth  int
}

func (p printer) Visit(class *ClassNode) Visitor {
	if class == nil {
		return nil
	}
	fmt.Fprintf(p.b, "%s%s", strings.Repeat(p.indent, p.depth), class.Name)
	if lo, hi, ok := class.Bounds(); ok {
		fmt.Fprintf(p.b, " [%v, %v]", lo, hi)
	}
	if unit := class.CanonicalUnit(); unit != "" {
		fmt.Fprintf(p.b, " %s", unit)
	}
	p.b.WriteByte('\n')
	p.depth++
	return p
}

// FormatHierarchy returns a human-readable tree of the hierarchy, one class per
// line, each subclass indented once more than its superclass.
func FormatHierarchy(m *Manager, indent string) string {
	var b strings.Builder
	Walk(printer{b: &b, indent: indent}, m)
	return b.String()
}
