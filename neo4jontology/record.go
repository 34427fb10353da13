package neo4jontology

import (
	"errors"
	"reflect"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var errPropertyNotFound = errors.New("property not found")

// An unexpectedPropertyTypeError occurs when a property of a record has a
// runtime type that is different from the expected type. The error message
// contains the effective type of the property at runtime.
//
// When encountering this error, it most likely occurs when changing a Cypher
// query without modifying dependent code properly.
type unexpectedPropertyTypeError struct {
	Type reflect.Type // Effective type encountered at runtime.
}

func (e unexpectedPropertyTypeError) Error() string {
	if e.Type == nil {
		return "unexpected property type: null"
	}
	return "unexpected property type: " + e.Type.String()
}

// The recordProperty interface defines generic constraints for supported values
// by getRecordProperty.
//
// This is a subset of all types supported by the neo4j package. When a new type
// is necessary, add it to the list here.
type recordProperty interface {
	int64 | float64 | string | []any
}

func getRecordProperty[T recordProperty](record *neo4j.Record, key string) (value T, err error) {
	prop, exists := record.Get(key)
	if !exists {
		return value, errPropertyNotFound
	}
	v, ok := prop.(T)
	if !ok {
		return value, unexpectedPropertyTypeError{Type: reflect.TypeOf(prop)}
	}
	return v, nil
}

// getOptionalRecordProperty is like getRecordProperty, but reports a null
// property with ok == false instead of failing.
func getOptionalRecordProperty[T recordProperty](record *neo4j.Record, key string) (value T, ok bool, err error) {
	prop, exists := record.Get(key)
	if !exists {
		return value, false, errPropertyNotFound
	}
	if prop == nil {
		return value, false, nil
	}
	v, ok := prop.(T)
	if !ok {
		return value, false, unexpectedPropertyTypeError{Type: reflect.TypeOf(prop)}
	}
	return v, true, nil
}

// getNumberProperty returns a numeric property of a record, or nil if it is
// null. Neo4j keeps integers and floats apart; both are accepted.
func getNumberProperty(record *neo4j.Record, key string) (*float64, error) {
	prop, exists := record.Get(key)
	if !exists {
		return nil, errPropertyNotFound
	}
	switch v := prop.(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case int64:
		f := float64(v)
		return &f, nil
	default:
		return nil, unexpectedPropertyTypeError{Type: reflect.TypeOf(prop)}
	}
}

// stringList converts a list property into strings.
func stringList(list []any) ([]string, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]string, len(list))
	for i, v := range list {
		s, ok := v.(string)
		if !ok {
			return nil, unexpectedPropertyTypeError{Type: reflect.TypeOf(v)}
		}
		out[i] = s
	}
	return out, nil
}
