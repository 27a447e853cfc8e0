package jsonbind

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrAmbiguousCreator indicates more than one constructor or method was declared as creator.
	ErrAmbiguousCreator = errors.New("only one constructor or method can be the creator")

	// ErrConflictingConverters indicates more than one converter kind was declared on one site.
	ErrConflictingConverters = errors.New("conflicting converter declarations")

	// ErrAmbiguousProperty indicates two accessors resolved to the same wire name.
	ErrAmbiguousProperty = errors.New("ambiguous property")

	// ErrMissingCreatorValue indicates a creator argument was absent while strict creation is enabled.
	ErrMissingCreatorValue = errors.New("missing creator argument")

	// ErrCreatorTypeMismatch indicates a creator produced a value of the wrong type.
	ErrCreatorTypeMismatch = errors.New("creator produced wrong type")

	// ErrConstruction indicates the underlying creator invocation failed.
	ErrConstruction = errors.New("construction failed")

	// ErrInstantiate indicates an adapter, converter or codec could not be instantiated.
	ErrInstantiate = errors.New("instantiation failed")

	// ErrUnknownType indicates a tag referenced a name that was never registered.
	ErrUnknownType = errors.New("unknown registered type")

	// ErrInvalidAdapter indicates a registered adapter does not expose the adapter methods.
	ErrInvalidAdapter = errors.New("invalid adapter")

	// ErrInvalidConverter indicates a custom converter implements no known capability.
	ErrInvalidConverter = errors.New("invalid converter")

	// ErrInvalidCreator indicates a declared creator is not callable as declared.
	ErrInvalidCreator = errors.New("invalid creator")

	// ErrInvalidConfig indicates an engine configuration value is not recognized.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInstanceType indicates an accessor was used on an instance of another type.
	ErrInstanceType = errors.New("instance type mismatch")

	// ErrClosed indicates the engine was used after Close.
	ErrClosed = errors.New("engine closed")

	// ErrValueType indicates a value cannot be assigned to the accessor's type.
	ErrValueType = errors.New("value type mismatch")
)

// ConfigError represents a binding configuration error.
// It wraps a sentinel error with the type and property that declared it.
type ConfigError struct {
	Err      error        // Underlying sentinel error (ErrAmbiguousProperty, etc.)
	Type     reflect.Type // Type being resolved, may be nil
	Property string       // Property or parameter name, may be empty
	Detail   string       // Additional context (conflicting tags, registered name)
}

func (e *ConfigError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	switch {
	case e.Type != nil && e.Property != "":
		return fmt.Sprintf("%s (%s.%s)", msg, e.Type, e.Property)
	case e.Type != nil:
		return fmt.Sprintf("%s (%s)", msg, e.Type)
	case e.Property != "":
		return fmt.Sprintf("%s (%s)", msg, e.Property)
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ConstructionError represents a failed creator invocation.
// Both the sentinel and the original cause are reachable through errors.Is/As.
type ConstructionError struct {
	Err   error        // Underlying sentinel error (ErrConstruction, ErrCreatorTypeMismatch)
	Type  reflect.Type // Type being constructed
	Cause error        // Original error raised by the creator, may be nil
}

func (e *ConstructionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s for %s: %v", e.Err.Error(), e.Type, e.Cause)
	}
	return fmt.Sprintf("%s for %s", e.Err.Error(), e.Type)
}

func (e *ConstructionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// AccessError represents a failed property read or write.
type AccessError struct {
	Err      error  // Underlying sentinel error (ErrInstanceType, ErrValueType)
	Property string // Wire name of the accessor
	Cause    error  // Original error, may be nil
}

func (e *AccessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: property %s: %v", e.Err.Error(), e.Property, e.Cause)
	}
	return fmt.Sprintf("%s: property %s", e.Err.Error(), e.Property)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// newConfigError creates a ConfigError for declaration problems.
func newConfigError(sentinel error, t reflect.Type, property, detail string) error {
	return &ConfigError{
		Err:      sentinel,
		Type:     t,
		Property: property,
		Detail:   detail,
	}
}

// newConstructionError creates a ConstructionError for creator failures.
func newConstructionError(sentinel error, t reflect.Type, cause error) error {
	return &ConstructionError{
		Err:   sentinel,
		Type:  t,
		Cause: cause,
	}
}

// newAccessError creates an AccessError for read/write failures.
func newAccessError(sentinel error, property string, cause error) error {
	return &AccessError{
		Err:      sentinel,
		Property: property,
		Cause:    cause,
	}
}
