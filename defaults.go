package jsonbind

import (
	"fmt"
	"math/big"
	"net/url"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConverterRegistry supplies converters for types that declare none.
type ConverterRegistry interface {
	// Lookup returns the converter between valueType and reprType.
	Lookup(valueType, reprType reflect.Type) (Converter, bool)
}

type defaultKey struct {
	value reflect.Type
	repr  reflect.Type
}

// Defaults is a ConverterRegistry keyed by (value type, representation type).
type Defaults struct {
	mu         sync.RWMutex
	converters map[defaultKey]Converter
}

// NewDefaults creates a registry holding the built-in string converters for
// time.Time, time.Duration, uuid.UUID, *url.URL and *big.Int.
func NewDefaults() *Defaults {
	d := &Defaults{converters: make(map[defaultKey]Converter)}

	d.Set(StringConverter(
		func(t time.Time) (string, error) { return t.Format(time.RFC3339Nano), nil },
		func(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) },
	))
	d.Set(StringConverter(
		func(v time.Duration) (string, error) { return v.String(), nil },
		time.ParseDuration,
	))
	d.Set(StringConverter(
		func(u uuid.UUID) (string, error) { return u.String(), nil },
		uuid.Parse,
	))
	d.Set(StringConverter(
		func(u *url.URL) (string, error) { return u.String(), nil },
		url.Parse,
	))
	d.Set(StringConverter(
		func(n *big.Int) (string, error) { return n.String(), nil },
		func(s string) (*big.Int, error) {
			n, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return nil, fmt.Errorf("invalid integer %q", s)
			}
			return n, nil
		},
	))
	return d
}

// Set registers c under its own From and To types, replacing any previous
// entry. Converters that are not TypeAware are ignored.
func (d *Defaults) Set(c Converter) *Defaults {
	ta, ok := c.(TypeAware)
	if !ok {
		return d
	}
	return d.SetFor(ta.From(), ta.To(), c)
}

// SetFor registers c for an explicit pair of types.
func (d *Defaults) SetFor(valueType, reprType reflect.Type, c Converter) *Defaults {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.converters[defaultKey{value: valueType, repr: reprType}] = c
	return d
}

// Lookup implements ConverterRegistry.
func (d *Defaults) Lookup(valueType, reprType reflect.Type) (Converter, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.converters[defaultKey{value: valueType, repr: reprType}]
	return c, ok
}

// typedConverter is a Converter between T and string built from two functions.
type typedConverter[T any] struct {
	format func(T) (string, error)
	parse  func(string) (T, error)
}

// StringConverter builds a TypeAware Converter between T and its string form.
func StringConverter[T any](format func(T) (string, error), parse func(string) (T, error)) Converter {
	return &typedConverter[T]{format: format, parse: parse}
}

func (c *typedConverter[T]) ToJSON(v any) (any, error) {
	t, ok := v.(T)
	if !ok {
		return nil, fmt.Errorf("%w: expected %s, got %T", ErrValueType, reflect.TypeFor[T](), v)
	}
	return c.format(t)
}

func (c *typedConverter[T]) FromJSON(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string, got %T", ErrValueType, v)
	}
	return c.parse(s)
}

func (c *typedConverter[T]) From() reflect.Type { return reflect.TypeFor[T]() }

func (c *typedConverter[T]) To() reflect.Type { return stringType }
