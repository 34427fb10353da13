// Package ontology maintains the class hierarchy that gives meaning to sensor
// readings; A class hierarchy (a.k.a. ontology or taxonomy) is a directed graph
// of named sensor and device categories related by superclass edges.
//
// A Manager is loaded once from a static description (see Load) and answers
// hierarchy traversals, compatibility checks and synthetic-value generation
// for the remainder of the process lifetime:
//
//   - Which attributes may a device of a given type report? Any class that is
//     the device's own type, one of its ancestors, or one of its descendants
//     (see Manager.IsSensorCompatible).
//   - What are the transitive super/sub-classes of a class? See
//     Manager.AllSuperclasses and Manager.AllSubclasses.
//   - What would a plausible reading look like? See Manager.GenerateValue.
//
// The hierarchy is never mutated after construction. Construct a single
// Manager at startup and share it between all callers; reloading the
// hierarchy means constructing a new Manager.
package ontology
