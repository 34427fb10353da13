package ontology

import (
	"errors"
)

var (
	// ErrMalformed classifies a LoadError caused by a source that cannot be
	// decoded, or that violates the load schema.
	ErrMalformed = errors.New("malformed hierarchy")
	// ErrNotFound classifies a LoadError caused by a missing source.
	ErrNotFound = errors.New("hierarchy source not found")
)

// A LoadError reports a failure to construct a Manager. It is fatal for any
// caller that depends on the hierarchy; there is no partial hierarchy to fall
// back to.
//
// Use errors.Is with ErrMalformed or ErrNotFound to classify the failure.
type LoadError struct {
	Source string // Path, URL or description of the source.
	Err    error
}

func (e *LoadError) Error() string {
	return "ontology: load " + e.Source + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// A malformedError wraps the underlying decode or schema error such that it
// matches ErrMalformed.
type malformedError struct{ err error }

func (e malformedError) Error() string { return e.err.Error() }

func (e malformedError) Unwrap() []error { return []error{ErrMalformed, e.err} }

func malformed(err error) error { return malformedError{err: err} }
