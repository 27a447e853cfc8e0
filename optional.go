package jsonbind

import (
	"database/sql"
	"reflect"
)

// Optional wrappers are the database/sql Null types: a value field followed
// by a Valid flag. Accessors expose the wrapped type instead of the wrapper.

// zeroWhenAbsent lists wrappers whose absent value reads as the zero number
// rather than nil.
var zeroWhenAbsent = map[reflect.Type]bool{
	reflect.TypeFor[sql.NullInt32]():   true,
	reflect.TypeFor[sql.NullInt64]():   true,
	reflect.TypeFor[sql.NullFloat64](): true,
}

// optional describes one wrapper type.
type optional struct {
	typ        reflect.Type
	elem       reflect.Type
	zeroAbsent bool
}

// optionalOf reports whether t is a database/sql Null wrapper, including the
// generic sql.Null[T].
func optionalOf(t reflect.Type) (*optional, bool) {
	if t == nil || t.Kind() != reflect.Struct || t.PkgPath() != "database/sql" || t.NumField() != 2 {
		return nil, false
	}
	valid := t.Field(1)
	if valid.Name != "Valid" || valid.Type.Kind() != reflect.Bool {
		return nil, false
	}
	return &optional{
		typ:        t,
		elem:       t.Field(0).Type,
		zeroAbsent: zeroWhenAbsent[t],
	}, true
}

// unwrap returns the wrapped value, nil, or the zero number when absent.
func (o *optional) unwrap(v reflect.Value) any {
	if v.Field(1).Bool() {
		return v.Field(0).Interface()
	}
	if o.zeroAbsent {
		return reflect.Zero(o.elem).Interface()
	}
	return nil
}

// wrap builds a wrapper holding x; nil yields an absent wrapper.
func (o *optional) wrap(x any) (reflect.Value, error) {
	out := reflect.New(o.typ).Elem()
	if x == nil {
		return out, nil
	}
	ev, err := valueOf(x, o.elem)
	if err != nil {
		return reflect.Value{}, err
	}
	out.Field(0).Set(ev)
	out.Field(1).SetBool(true)
	return out, nil
}
