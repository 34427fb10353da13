package ontology

import (
	randv2 "math/rand/v2"
)

// Format identifies the encoding of a hierarchy description.
type Format int

const (
	// FormatAuto picks FormatYAML for sources named *.yaml or *.yml, and
	// FormatJSON otherwise.
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "auto"
	}
}

// An Option configures how a Manager is loaded.
type Option func(*options)

type options struct {
	format Format
	strict bool
	rand   *randv2.Rand
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = randv2.New(randv2.NewPCG(randv2.Uint64(), randv2.Uint64()))
	}
	return o
}

// WithFormat forces the encoding of the hierarchy description.
func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithStrictReferences rejects hierarchies in which a class declares a
// superclass that is not part of the hierarchy. By default, such dangling
// references are tolerated (and logged).
func WithStrictReferences() Option {
	return func(o *options) { o.strict = true }
}

// WithSeed seeds the random source used by Manager.GenerateValue, making the
// generated sequence reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.rand = randv2.New(randv2.NewPCG(seed, seed)) }
}

// WithRand sets the random source used by Manager.GenerateValue. The Manager
// takes ownership of r; do not use it elsewhere.
func WithRand(r *randv2.Rand) Option {
	return func(o *options) { o.rand = r }
}
