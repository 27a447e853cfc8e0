package jsonbind

import "reflect"

// Method names of the Adapter capability.
const (
	adaptToMethod   = "AdaptToJSON"
	adaptFromMethod = "AdaptFromJSON"
)

var errorType = reflect.TypeFor[error]()

// adaptedTypes recovers the From and To types of an adapter-shaped type. The
// method set of t is consulted first, then the pointer method set, then the
// embedded fields in declaration order.
func adaptedTypes(t reflect.Type) (from, to reflect.Type, ok bool) {
	return walkAdapted(t, make(map[reflect.Type]bool))
}

func walkAdapted(t reflect.Type, seen map[reflect.Type]bool) (from, to reflect.Type, ok bool) {
	if t == nil || seen[t] {
		return nil, nil, false
	}
	seen[t] = true

	if from, to, ok := adaptShape(t); ok {
		return from, to, true
	}
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		if from, to, ok := adaptShape(reflect.PointerTo(t)); ok {
			return from, to, true
		}
	}

	base := indirectType(t)
	if base.Kind() != reflect.Struct {
		return nil, nil, false
	}
	for i := 0; i < base.NumField(); i++ {
		f := base.Field(i)
		if !f.Anonymous {
			continue
		}
		if from, to, ok := walkAdapted(f.Type, seen); ok {
			return from, to, true
		}
	}
	return nil, nil, false
}

// adaptShape reads From and To off the AdaptToJSON method of t.
func adaptShape(t reflect.Type) (from, to reflect.Type, ok bool) {
	m, ok := t.MethodByName(adaptToMethod)
	if !ok {
		return nil, nil, false
	}
	mt := m.Type
	// Methods of concrete types carry the receiver as first input.
	in := 1
	if t.Kind() == reflect.Interface {
		in = 0
	}
	if mt.NumIn() != in+1 || mt.NumOut() != 2 || mt.Out(1) != errorType {
		return nil, nil, false
	}
	return mt.In(in), mt.Out(0), true
}

// converterTypes reports the From and To types of a converter, if known.
// Wrapped converters are unwrapped; Reversed swaps the result.
func converterTypes(c Converter) (from, to reflect.Type, ok bool) {
	switch v := c.(type) {
	case TypeAware:
		return v.From(), v.To(), true
	case Reversed:
		from, to, ok := converterTypes(v.Converter)
		return to, from, ok
	}
	target := any(c)
	if u, ok := c.(interface{ Unwrap() any }); ok {
		target = u.Unwrap()
		if inner, ok := target.(Converter); ok {
			return converterTypes(inner)
		}
	}
	return adaptedTypes(reflect.TypeOf(target))
}

// isReversed reports whether c is declared the other way around for payload:
// its To side matches payload while its From side does not. Converters without
// type information are never reversed.
func isReversed(payload reflect.Type, c Converter) bool {
	from, to, ok := converterTypes(c)
	if !ok || payload == nil {
		return false
	}
	return !matchesType(payload, from) && matchesType(payload, to)
}

// matchesType reports whether values of t fit a slot of type slot.
func matchesType(t, slot reflect.Type) bool {
	if slot == nil || t == nil {
		return false
	}
	return t.AssignableTo(slot)
}
