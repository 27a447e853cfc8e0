// Package json provides an object codec that maps whole values through
// encoding/json. Register it under a name and reference that name from a
// jsonb.converter, jsonb.serializer or jsonb.deserializer tag.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/zoobzio/jsonbind"
)

// Codec implements jsonbind.Codec using encoding/json.
type Codec struct{}

// New returns a JSON object codec.
func New() jsonbind.Codec {
	return &Codec{}
}

// Register makes the codec available to tags under name.
func Register(name string) {
	jsonbind.RegisterType[Codec](name)
}

// ContentType returns the MIME type for JSON.
func (c *Codec) ContentType() string {
	return "application/json"
}

// WriteObject renders v as a JSON value tree. Numbers are float64.
func (c *Codec) WriteObject(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json: write %T: %w", v, err)
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("json: write %T: %w", v, err)
	}
	return tree, nil
}

// ReadObject builds a value of type target from a JSON value tree.
// Unknown object keys are rejected.
func (c *Codec) ReadObject(tree any, target reflect.Type) (any, error) {
	if target == nil {
		return nil, fmt.Errorf("json: nil target type")
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("json: read %s: %w", target, err)
	}

	out := reflect.New(target)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out.Interface()); err != nil {
		return nil, fmt.Errorf("json: read %s: %w", target, err)
	}
	return out.Elem().Interface(), nil
}
