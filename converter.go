package jsonbind

import (
	"fmt"
	"reflect"
)

// ConverterKind records which rule selected a converter.
type ConverterKind int

const (
	// ConverterDefault is a converter from the default registry, or none.
	ConverterDefault ConverterKind = iota
	// ConverterAdapter is a registered Adapter.
	ConverterAdapter
	// ConverterDate is a date layout converter.
	ConverterDate
	// ConverterNumber is a number pattern converter.
	ConverterNumber
	// ConverterCustom is a registered ValueConverter, Converter or object codec.
	ConverterCustom
)

func (k ConverterKind) String() string {
	switch k {
	case ConverterAdapter:
		return "adapter"
	case ConverterDate:
		return "date"
	case ConverterNumber:
		return "number"
	case ConverterCustom:
		return "custom"
	default:
		return "default"
	}
}

// Reversed swaps the directions of a converter declared the other way around.
type Reversed struct {
	Converter Converter
}

// ToJSON implements Converter.
func (r Reversed) ToJSON(v any) (any, error) { return r.Converter.FromJSON(v) }

// FromJSON implements Converter.
func (r Reversed) FromJSON(v any) (any, error) { return r.Converter.ToJSON(v) }

// Unwrap returns the wrapped converter.
func (r Reversed) Unwrap() any { return r.Converter }

// side selects which half of a property a resolution serves.
type side int

const (
	sideEncode side = iota
	sideDecode
)

// binding is the converter resolution of one site.
type binding struct {
	kind      ConverterKind
	converter Converter    // whole-value converter
	item      Converter    // element converter of a collection
	writer    ObjectWriter // encode side codec
	reader    ObjectReader // decode side codec
	custom    any          // instance behind a jsonb.converter reference
}

// converterResolver selects converters for decorated sites.
type converterResolver struct {
	instances *instanceTracker
	defaults  ConverterRegistry
}

// resolve applies the converter priority to d: adapter, date format, number
// format, custom converter, default registry. At most one converter kind may
// be declared directly on d.
func (r *converterResolver) resolve(owner reflect.Type, property string, d Decorated, s side) (binding, error) {
	if declared := declaredConverterTags(d); len(declared) > 1 {
		return binding{}, newConfigError(ErrConflictingConverters, owner, property, tagNames(declared))
	}

	b, err := r.valueConverter(owner, property, d)
	if err != nil {
		return binding{}, err
	}
	if err := r.codecs(owner, property, d, s, &b); err != nil {
		return binding{}, err
	}
	return b, nil
}

// resolveBoth resolves d once and attaches the codecs of both sides, so that
// declared instances are created a single time.
func (r *converterResolver) resolveBoth(owner reflect.Type, property string, d Decorated) (encode, decode binding, err error) {
	if declared := declaredConverterTags(d); len(declared) > 1 {
		return binding{}, binding{}, newConfigError(ErrConflictingConverters, owner, property, tagNames(declared))
	}

	b, err := r.valueConverter(owner, property, d)
	if err != nil {
		return binding{}, binding{}, err
	}
	encode, decode = b, b
	if err := r.codecs(owner, property, d, sideEncode, &encode); err != nil {
		return binding{}, binding{}, err
	}
	if err := r.codecs(owner, property, d, sideDecode, &decode); err != nil {
		return binding{}, binding{}, err
	}
	return encode, decode, nil
}

func (r *converterResolver) valueConverter(owner reflect.Type, property string, d Decorated) (binding, error) {
	t := d.Type()

	if tag, ok := d.Tag(TagAdapter); ok {
		c, err := r.adapter(owner, property, tag.Value)
		if err != nil {
			return binding{}, err
		}
		if _, ok := d.(*TypeSource); ok {
			return orientAdapter(t, c), nil
		}
		return classifyAdapter(t, c), nil
	}

	if isDateType(t) {
		tag, ok := d.Tag(TagDateFormat)
		if !ok {
			tag, ok = d.ClassOrPackageTag(TagDateFormat)
		}
		if ok {
			c, err := newDateConverter(tag)
			if err != nil {
				return binding{}, newConfigError(ErrInvalidConverter, owner, property, err.Error())
			}
			return binding{kind: ConverterDate, converter: c}, nil
		}
	} else if _, ok := d.Tag(TagDateFormat); ok {
		// A date layout on a value that is not a date yields no converter.
		return binding{kind: ConverterDate}, nil
	}

	if isNumberType(t) {
		tag, ok := d.Tag(TagNumberFormat)
		if !ok {
			tag, ok = d.ClassOrPackageTag(TagNumberFormat)
		}
		if ok {
			c, err := newNumberConverter(tag, t)
			if err != nil {
				return binding{}, newConfigError(ErrInvalidConverter, owner, property, err.Error())
			}
			return binding{kind: ConverterNumber, converter: c}, nil
		}
	}

	if tag, ok := d.Tag(TagConverter); ok {
		return r.custom(owner, property, t, tag.Value)
	}

	if r.defaults != nil {
		if c, ok := r.defaults.Lookup(t, stringType); ok {
			return binding{kind: ConverterDefault, converter: c}, nil
		}
	}
	return binding{}, nil
}

// classifyAdapter places an adapter as whole-value converter when its From or
// To side matches t, and as item converter otherwise.
func classifyAdapter(t reflect.Type, c Converter) binding {
	b := binding{kind: ConverterAdapter}
	from, to, ok := converterTypes(c)
	switch {
	case !ok || matchesType(t, from):
		b.converter = c
	case matchesType(t, to):
		b.converter = Reversed{Converter: c}
	default:
		b.item = c
	}
	return b
}

// orientAdapter places a type-level adapter as whole-value converter, reversed
// only when its To side is the one matching t. A type has no items.
func orientAdapter(t reflect.Type, c Converter) binding {
	if isReversed(t, c) {
		return binding{kind: ConverterAdapter, converter: Reversed{Converter: c}}
	}
	return binding{kind: ConverterAdapter, converter: c}
}

// custom resolves a jsonb.converter reference. Object codecs are handled by
// codecs; here only value-level capabilities become converters.
func (r *converterResolver) custom(owner reflect.Type, property string, t reflect.Type, name string) (binding, error) {
	inst, err := r.instantiate(owner, property, name)
	if err != nil {
		return binding{}, err
	}

	b := binding{kind: ConverterCustom, custom: inst}
	switch c := inst.(type) {
	case Converter:
		if isReversed(t, c) {
			b.converter = Reversed{Converter: c}
		} else {
			b.converter = c
		}
	case ValueConverter:
		b.converter = &stringConverter{vc: c}
	case ObjectWriter, ObjectReader:
	default:
		return binding{}, newConfigError(ErrInvalidConverter, owner, property,
			fmt.Sprintf("%s: %T implements no converter capability", name, inst))
	}
	return b, nil
}

// codecs attaches the object codec of the requested side. Explicit serializer
// and deserializer tags win over a codec-capable jsonb.converter.
func (r *converterResolver) codecs(owner reflect.Type, property string, d Decorated, s side, b *binding) error {
	kind := TagSerializer
	if s == sideDecode {
		kind = TagDeserializer
	}

	inst := b.custom
	tag, explicit := d.Tag(kind)
	if explicit {
		var err error
		if inst, err = r.instantiate(owner, property, tag.Value); err != nil {
			return err
		}
	}
	if inst == nil {
		return nil
	}

	switch s {
	case sideEncode:
		if w, ok := inst.(ObjectWriter); ok {
			b.writer = w
			b.kind = ConverterCustom
			return nil
		}
	case sideDecode:
		if rd, ok := inst.(ObjectReader); ok {
			b.reader = rd
			b.kind = ConverterCustom
			return nil
		}
	}
	if explicit {
		return newConfigError(ErrInvalidConverter, owner, property,
			fmt.Sprintf("%s: %T is not a %s", tag.Value, inst, kind))
	}
	return nil
}

// adapter instantiates a registered adapter and wraps it as a Converter.
func (r *converterResolver) adapter(owner reflect.Type, property, name string) (Converter, error) {
	inst, err := r.instantiate(owner, property, name)
	if err != nil {
		return nil, err
	}
	if c, ok := inst.(Converter); ok {
		return c, nil
	}
	c, err := newAdapterConverter(inst)
	if err != nil {
		return nil, newConfigError(ErrInvalidAdapter, owner, property, fmt.Sprintf("%s: %v", name, err))
	}
	return c, nil
}

// instantiate creates a tracked instance of a registered type.
func (r *converterResolver) instantiate(owner reflect.Type, property, name string) (any, error) {
	t, ok := Lookup(name)
	if !ok {
		return nil, newConfigError(ErrUnknownType, owner, property, name)
	}
	inst, err := r.instances.create(t)
	if err != nil {
		return nil, newConfigError(ErrInstantiate, owner, property, fmt.Sprintf("%s: %v", name, err))
	}
	return inst, nil
}

// adapterConverter calls the AdaptToJSON and AdaptFromJSON methods of an
// adapter instance.
type adapterConverter struct {
	inst     any
	from, to reflect.Type
	toJSON   reflect.Value
	fromJSON reflect.Value
}

func newAdapterConverter(inst any) (*adapterConverter, error) {
	v := reflect.ValueOf(inst)
	if !v.IsValid() {
		return nil, fmt.Errorf("nil adapter")
	}
	from, to, ok := adaptedTypes(v.Type())
	if !ok {
		return nil, fmt.Errorf("%T has no %s method", inst, adaptToMethod)
	}

	toJSON, ok := boundMethod(v, adaptToMethod)
	if !ok {
		return nil, fmt.Errorf("%T has no callable %s method", inst, adaptToMethod)
	}
	fromJSON, ok := boundMethod(v, adaptFromMethod)
	if !ok {
		return nil, fmt.Errorf("%T has no %s method", inst, adaptFromMethod)
	}
	ft := fromJSON.Type()
	if ft.NumIn() != 1 || ft.In(0) != to || ft.NumOut() != 2 || ft.Out(0) != from || ft.Out(1) != errorType {
		return nil, fmt.Errorf("%T: %s must be func(%s) (%s, error)", inst, adaptFromMethod, to, from)
	}

	return &adapterConverter{inst: inst, from: from, to: to, toJSON: toJSON, fromJSON: fromJSON}, nil
}

// boundMethod finds a method on v, its address, or its embedded fields.
func boundMethod(v reflect.Value, name string) (reflect.Value, bool) {
	if m := v.MethodByName(name); m.IsValid() {
		return m, true
	}
	if v.Kind() != reflect.Pointer && v.Kind() != reflect.Interface {
		if m := addressable(v).Addr().MethodByName(name); m.IsValid() {
			return m, true
		}
	}
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	for i := 0; i < v.NumField(); i++ {
		if !v.Type().Field(i).Anonymous {
			continue
		}
		if m, ok := boundMethod(v.Field(i), name); ok {
			return m, true
		}
	}
	return reflect.Value{}, false
}

func (a *adapterConverter) ToJSON(v any) (any, error) {
	return a.call(a.toJSON, v, a.from)
}

func (a *adapterConverter) FromJSON(v any) (any, error) {
	return a.call(a.fromJSON, v, a.to)
}

func (a *adapterConverter) call(fn reflect.Value, v any, in reflect.Type) (any, error) {
	arg, err := valueOf(v, in)
	if err != nil {
		return nil, err
	}
	out := fn.Call([]reflect.Value{arg})
	if err := callError(out, 1); err != nil {
		return nil, err
	}
	return out[0].Interface(), nil
}

func (a *adapterConverter) From() reflect.Type { return a.from }

func (a *adapterConverter) To() reflect.Type { return a.to }

// Unwrap returns the adapter instance.
func (a *adapterConverter) Unwrap() any { return a.inst }

var stringType = reflect.TypeFor[string]()

// stringConverter lifts a ValueConverter to a Converter with a string
// representation.
type stringConverter struct {
	vc ValueConverter
}

func (c *stringConverter) ToJSON(v any) (any, error) {
	return c.vc.ToString(v)
}

func (c *stringConverter) FromJSON(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string, got %T", ErrValueType, v)
	}
	return c.vc.FromString(s)
}

// Unwrap returns the wrapped ValueConverter.
func (c *stringConverter) Unwrap() any { return c.vc }
