package jsonbind

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
)

// Accessor is the resolved metadata shared by readers and writers.
type Accessor struct {
	Name          string        // wire name
	Type          reflect.Type  // value type, optional wrappers unwrapped
	Owner         reflect.Type  // struct type the accessor belongs to
	Converter     Converter     // whole-value converter, may be nil
	ItemConverter Converter     // element converter, may be nil
	ConverterKind ConverterKind // rule that selected the converter
	Nillable      bool          // write null for absent values
	Source        Decorated     // discovered site, for tag queries
}

// Tag returns a tag declared on the accessor's site.
func (a *Accessor) Tag(kind TagKind) (Tag, bool) {
	return a.Source.Tag(kind)
}

// ClassOrPackageTag returns a tag declared on the accessor's type or package.
func (a *Accessor) ClassOrPackageTag(kind TagKind) (Tag, bool) {
	return a.Source.ClassOrPackageTag(kind)
}

// Reader reads one property from instances of its owner type.
type Reader struct {
	Accessor
	Codec ObjectWriter // encode side object codec, may be nil

	source ReadSource
	opt    *optional
}

// Read returns the property value of instance, which may be a value or a
// pointer. Absent optionals read as nil, or zero for the numeric wrappers.
func (r *Reader) Read(instance any) (any, error) {
	v, err := r.target(instance)
	if err != nil {
		return nil, err
	}
	out, err := r.source.Get(v)
	if err != nil {
		return nil, newAccessError(ErrInstanceType, r.Name, err)
	}
	if r.opt != nil {
		return r.opt.unwrap(out), nil
	}
	if !out.IsValid() {
		return nil, nil
	}
	return out.Interface(), nil
}

func (r *Reader) target(instance any) (reflect.Value, error) {
	v := reflect.ValueOf(instance)
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, newAccessError(ErrInstanceType, r.Name, fmt.Errorf("nil %s", v.Type()))
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != r.Owner {
		return reflect.Value{}, newAccessError(ErrInstanceType, r.Name, fmt.Errorf("got %T, want %s", instance, r.Owner))
	}
	return v, nil
}

// Writer writes one property into instances of its owner type.
type Writer struct {
	Accessor
	Codec ObjectReader // decode side object codec, may be nil

	source WriteSource
	opt    *optional
}

// Write sets the property of instance, which must be a non-nil pointer.
// A nil value clears the property; optionals become absent.
func (w *Writer) Write(instance any, value any) error {
	v := reflect.ValueOf(instance)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != w.Owner {
		return newAccessError(ErrInstanceType, w.Name, fmt.Errorf("got %T, want *%s", instance, w.Owner))
	}

	var (
		x   reflect.Value
		err error
	)
	if w.opt != nil {
		x, err = w.opt.wrap(value)
	} else {
		x, err = valueOf(value, w.source.Type())
	}
	if err != nil {
		return newAccessError(ErrValueType, w.Name, err)
	}
	if err := w.source.Set(v.Elem(), x); err != nil {
		return newAccessError(ErrInstanceType, w.Name, err)
	}
	return nil
}

// valueOf converts x to a reflect.Value of type t. Nil becomes the zero value;
// numbers convert between numeric kinds and named types convert to their
// underlying kind.
func valueOf(x any, t reflect.Type) (reflect.Value, error) {
	if x == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(x)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if v.CanConvert(t) && (v.Kind() == t.Kind() || (isNumberType(v.Type()) && isNumberType(t))) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrValueType, x, t)
}

// Properties is an ordered, read-only map of wire names to accessors.
type Properties[T any] struct {
	names       []string
	values      []T
	index       map[string]int
	insensitive bool
}

func newProperties[T any](insensitive bool) *Properties[T] {
	return &Properties[T]{index: make(map[string]int), insensitive: insensitive}
}

func (p *Properties[T]) key(name string) string {
	if p.insensitive {
		return foldName(name)
	}
	return name
}

// add appends an entry, reporting false if the name is already taken.
func (p *Properties[T]) add(name string, v T) bool {
	k := p.key(name)
	if _, dup := p.index[k]; dup {
		return false
	}
	p.index[k] = len(p.names)
	p.names = append(p.names, name)
	p.values = append(p.values, v)
	return true
}

// sort orders entries with c, keeping discovery order for ties.
func (p *Properties[T]) sort(c Comparator) {
	if c == nil || len(p.names) < 2 {
		return
	}
	order := make([]int, len(p.names))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return c(p.names[a], p.names[b])
	})

	names := make([]string, len(order))
	values := make([]T, len(order))
	for i, j := range order {
		names[i] = p.names[j]
		values[i] = p.values[j]
		p.index[p.key(names[i])] = i
	}
	p.names, p.values = names, values
}

// Len returns the number of properties.
func (p *Properties[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Get returns the accessor of a wire name. Lookups ignore case when the
// engine matches case-insensitively.
func (p *Properties[T]) Get(name string) (T, bool) {
	var zero T
	if p == nil {
		return zero, false
	}
	i, ok := p.index[p.key(name)]
	if !ok {
		return zero, false
	}
	return p.values[i], true
}

// Names returns the wire names in order.
func (p *Properties[T]) Names() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.names)
}

// All iterates over the properties in order.
func (p *Properties[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		if p == nil {
			return
		}
		for i, name := range p.names {
			if !yield(name, p.values[i]) {
				return
			}
		}
	}
}
