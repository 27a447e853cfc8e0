package jsonbind

import (
	"errors"
	"fmt"
	"reflect"
)

// Decorated is a site that can be queried for declared tags: a field, a
// getter or setter, a creator parameter or a whole type.
type Decorated interface {
	// Type returns the declared value type of the site.
	Type() reflect.Type

	// Tag returns the tag of the given kind declared directly on the site.
	Tag(kind TagKind) (Tag, bool)

	// ClassOrPackageTag returns the fallback tag declared on the enclosing
	// type or package.
	ClassOrPackageTag(kind TagKind) (Tag, bool)
}

// ReadSource is a Decorated site that can read a value from a struct.
type ReadSource interface {
	Decorated
	Get(v reflect.Value) (reflect.Value, error)
}

// WriteSource is a Decorated site that can write a value into a struct.
type WriteSource interface {
	Decorated
	Set(v reflect.Value, x reflect.Value) error
}

var errNotAddressable = errors.New("instance is not addressable, pass a pointer")

// scope resolves class-or-package fallback tags.
type scope struct {
	class *Declaration
	pkg   *Declaration
}

func scopeOf(owner reflect.Type, class *Declaration) scope {
	return scope{class: class, pkg: packageDeclaration(owner)}
}

func (s scope) lookup(kind TagKind) (Tag, bool) {
	if t, ok := s.class.tag(kind); ok {
		return t, true
	}
	return s.pkg.tag(kind)
}

// FieldSource is a struct field, possibly promoted from an embedded struct.
type FieldSource struct {
	Field reflect.StructField // Index is the full path from Owner
	Owner reflect.Type
	tags  tagSet
	scope scope
}

func (f *FieldSource) Type() reflect.Type { return f.Field.Type }

func (f *FieldSource) Tag(kind TagKind) (Tag, bool) { return f.tags.get(kind) }

func (f *FieldSource) ClassOrPackageTag(kind TagKind) (Tag, bool) { return f.scope.lookup(kind) }

func (f *FieldSource) Get(v reflect.Value) (reflect.Value, error) {
	return v.FieldByIndexErr(f.Field.Index)
}

func (f *FieldSource) Set(v reflect.Value, x reflect.Value) error {
	fv, err := v.FieldByIndexErr(f.Field.Index)
	if err != nil {
		return err
	}
	if !fv.CanSet() {
		return errNotAddressable
	}
	fv.Set(x)
	return nil
}

// MethodSource is a getter (GetX, IsX) or setter (SetX) method.
type MethodSource struct {
	Method    reflect.Method // from the pointer method set of Owner
	Owner     reflect.Type
	Setter    bool
	valueType reflect.Type
	tags      tagSet
	scope     scope
}

func (m *MethodSource) Type() reflect.Type { return m.valueType }

func (m *MethodSource) Tag(kind TagKind) (Tag, bool) { return m.tags.get(kind) }

func (m *MethodSource) ClassOrPackageTag(kind TagKind) (Tag, bool) { return m.scope.lookup(kind) }

func (m *MethodSource) Get(v reflect.Value) (reflect.Value, error) {
	out := addressable(v).Addr().MethodByName(m.Method.Name).Call(nil)
	if err := callError(out, 1); err != nil {
		return reflect.Value{}, err
	}
	return out[0], nil
}

func (m *MethodSource) Set(v reflect.Value, x reflect.Value) error {
	if !v.CanAddr() {
		return errNotAddressable
	}
	out := v.Addr().MethodByName(m.Method.Name).Call([]reflect.Value{x})
	return callError(out, 0)
}

// addressable returns v, or an addressable copy of it.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	tmp := reflect.New(v.Type()).Elem()
	tmp.Set(v)
	return tmp
}

// callError extracts a trailing error result at position idx, if present.
func callError(out []reflect.Value, idx int) error {
	if len(out) <= idx {
		return nil
	}
	if err, ok := out[idx].Interface().(error); ok && err != nil {
		return err
	}
	return nil
}

// CompositeSource pairs a field with its accessor method. Tags resolve from
// First, then Second.
type CompositeSource struct {
	First  Decorated
	Second Decorated
}

func (c *CompositeSource) Type() reflect.Type { return c.First.Type() }

func (c *CompositeSource) Tag(kind TagKind) (Tag, bool) {
	if t, ok := c.First.Tag(kind); ok {
		return t, true
	}
	return c.Second.Tag(kind)
}

func (c *CompositeSource) ClassOrPackageTag(kind TagKind) (Tag, bool) {
	if t, ok := c.First.ClassOrPackageTag(kind); ok {
		return t, true
	}
	return c.Second.ClassOrPackageTag(kind)
}

func (c *CompositeSource) Get(v reflect.Value) (reflect.Value, error) {
	if r, ok := c.First.(ReadSource); ok {
		return r.Get(v)
	}
	if r, ok := c.Second.(ReadSource); ok {
		return r.Get(v)
	}
	return reflect.Value{}, fmt.Errorf("composite source is not readable")
}

func (c *CompositeSource) Set(v reflect.Value, x reflect.Value) error {
	if w, ok := c.First.(WriteSource); ok {
		return w.Set(v, x)
	}
	if w, ok := c.Second.(WriteSource); ok {
		return w.Set(v, x)
	}
	return fmt.Errorf("composite source is not writable")
}

// ParamSource is one creator parameter.
type ParamSource struct {
	Index int
	typ   reflect.Type
	tags  tagSet
	scope scope
}

func (p *ParamSource) Type() reflect.Type { return p.typ }

func (p *ParamSource) Tag(kind TagKind) (Tag, bool) { return p.tags.get(kind) }

func (p *ParamSource) ClassOrPackageTag(kind TagKind) (Tag, bool) { return p.scope.lookup(kind) }

// TypeSource is a whole type; its fallback tags come from its package.
type TypeSource struct {
	typ  reflect.Type
	decl *Declaration
	pkg  *Declaration
}

func newTypeSource(t reflect.Type) *TypeSource {
	return &TypeSource{typ: t, decl: declarationOf(t), pkg: packageDeclaration(t)}
}

func (s *TypeSource) Type() reflect.Type { return s.typ }

func (s *TypeSource) Tag(kind TagKind) (Tag, bool) { return s.decl.tag(kind) }

func (s *TypeSource) ClassOrPackageTag(kind TagKind) (Tag, bool) { return s.pkg.tag(kind) }

// retyped overrides the value type of a site, keeping its tags.
type retyped struct {
	Decorated
	typ reflect.Type
}

func (r retyped) Type() reflect.Type { return r.typ }
