package sensortwin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrDeviceNotFound is returned when a device is missing from the store.
	ErrDeviceNotFound = errors.New("sensortwin: device not found")
	// ErrTwinNotFound is returned when a digital twin is missing from the store.
	ErrTwinNotFound = errors.New("sensortwin: digital twin not found")
	// ErrTemplateNotFound is returned when a device template is missing from the
	// store.
	ErrTemplateNotFound = errors.New("sensortwin: device template not found")
	// ErrIncompatibleSensor is returned when a reading names a sensor that the
	// digital twin does not accept.
	ErrIncompatibleSensor = errors.New("sensortwin: incompatible sensor")
)

// errTooManyConflicts is returned when a digital twin keeps changing under a
// read-modify-write cycle.
var errTooManyConflicts = errors.New("too many concurrent modifications")

// validate checks the struct tags of documents entering the system.
var validate = validator.New(validator.WithRequiredStructEnabled())

// A ValidationError lists every problem found with a document. It is returned by
// operations that reject their input before touching the store.
type ValidationError struct {
	// What was validated, e.g. "device" or "batch".
	Subject  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(e.Problems, "; "))
}

// validationErrors collects problems and turns them into a *ValidationError.
type validationErrors struct {
	subject  string
	problems []string
}

func (v *validationErrors) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// addStruct records the struct-tag violations of s, if any.
func (v *validationErrors) addStruct(s any) {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			if fe.Param() != "" {
				v.addf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
			} else {
				v.addf("%s: failed %s", fe.Namespace(), fe.Tag())
			}
		}
	default:
		v.addf("%v", err)
	}
}

func (v *validationErrors) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Subject: v.subject, Problems: v.problems}
}
