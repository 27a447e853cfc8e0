package jsonbind

import "reflect"

// Object codecs replace per-field mapping for a whole value. They operate on
// JSON value trees: map[string]any, []any, string, float64, bool and nil.

// ObjectWriter renders a value as a JSON value tree.
type ObjectWriter interface {
	// WriteObject returns the tree representation of v.
	WriteObject(v any) (any, error)
}

// ObjectReader builds a value from a JSON value tree.
type ObjectReader interface {
	// ReadObject builds a value of the target type from tree.
	ReadObject(tree any, target reflect.Type) (any, error)
}

// Codec is both an ObjectReader and an ObjectWriter.
type Codec interface {
	ObjectReader
	ObjectWriter
}
