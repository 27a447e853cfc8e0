package jsonbind

import (
	"fmt"
	"reflect"
)

// builder turns discovered accessors into resolved readers, writers and
// creators. It holds no per-type state; the Engine caches its results.
type builder struct {
	naming          NamingStrategy
	order           OrderStrategy
	caseInsensitive bool
	nillable        bool
	failOnMissing   bool
	visibility      VisibilityStrategy
	discoverer      Discoverer
	resolver        *converterResolver
}

// comparator returns the property ordering of t.
func (b *builder) comparator(t reflect.Type) Comparator {
	c := orderComparator(indirectType(t), b.naming, b.order)
	if b.caseInsensitive {
		return caseInsensitive(c)
	}
	return c
}

// readers builds the ordered readers of t.
func (b *builder) readers(t reflect.Type) (*Properties[*Reader], error) {
	base := indirectType(t)
	raw, err := b.discoverer.FindReaders(base)
	if err != nil {
		return nil, err
	}

	props := newProperties[*Reader](b.caseInsensitive)
	for _, rp := range raw {
		initial := rp.Source
		if isExcluded(initial, b.visibility) {
			continue
		}
		if _, ok := initial.Tag(TagAny); ok {
			continue
		}

		source, ok := readSourceOf(initial)
		if !ok {
			continue
		}
		acc, opt, err := b.accessor(base, rp.Name, initial, source.Type(), sideEncode)
		if err != nil {
			return nil, err
		}

		r := &Reader{Accessor: acc.Accessor, Codec: acc.writer, source: source, opt: opt}
		if !props.add(r.Name, r) {
			return nil, newConfigError(ErrAmbiguousProperty, base, r.Name, "")
		}
	}

	props.sort(b.comparator(base))
	return props, nil
}

// writers builds the ordered writers of t.
func (b *builder) writers(t reflect.Type) (*Properties[*Writer], error) {
	base := indirectType(t)
	raw, err := b.discoverer.FindWriters(base)
	if err != nil {
		return nil, err
	}

	props := newProperties[*Writer](b.caseInsensitive)
	for _, rp := range raw {
		initial := rp.Source
		if isExcluded(initial, b.visibility) {
			continue
		}
		if _, ok := initial.Tag(TagAny); ok {
			continue
		}

		source, ok := writeSourceOf(initial)
		if !ok {
			continue
		}
		acc, opt, err := b.accessor(base, rp.Name, initial, source.Type(), sideDecode)
		if err != nil {
			return nil, err
		}

		w := &Writer{Accessor: acc.Accessor, Codec: acc.reader, source: source, opt: opt}
		if !props.add(w.Name, w) {
			return nil, newConfigError(ErrAmbiguousProperty, base, w.Name, "")
		}
	}

	props.sort(b.comparator(base))
	return props, nil
}

// resolvedAccessor is an Accessor with the codecs of both sides.
type resolvedAccessor struct {
	Accessor
	writer ObjectWriter
	reader ObjectReader
}

// accessor resolves the shared metadata of one property. Tags come from the
// initial site; valueType is the type of the site that actually reads or writes.
func (b *builder) accessor(owner reflect.Type, raw string, initial Decorated, valueType reflect.Type, s side) (resolvedAccessor, *optional, error) {
	opt, isOpt := optionalOf(valueType)
	if isOpt {
		valueType = opt.elem
	}

	name := resolveName(initial, raw, b.naming)
	bd, err := b.resolver.resolve(owner, name, retyped{Decorated: initial, typ: valueType}, s)
	if err != nil {
		return resolvedAccessor{}, nil, err
	}

	return resolvedAccessor{
		Accessor: Accessor{
			Name:          name,
			Type:          valueType,
			Owner:         owner,
			Converter:     bd.converter,
			ItemConverter: bd.item,
			ConverterKind: bd.kind,
			Nillable:      b.isNillable(initial),
			Source:        initial,
		},
		writer: bd.writer,
		reader: bd.reader,
	}, opt, nil
}

// isNillable applies the explicit property option, then the type or package
// default, then the global setting.
func (b *builder) isNillable(d Decorated) bool {
	if t, ok := d.Tag(TagProperty); ok {
		if v, ok := t.nillable(); ok {
			return v
		}
	}
	if t, ok := d.ClassOrPackageTag(TagNillable); ok {
		return t.Bool()
	}
	return b.nillable
}

// readSourceOf unwraps a composite to its getter when it has one.
func readSourceOf(d Decorated) (ReadSource, bool) {
	if c, ok := d.(*CompositeSource); ok {
		if m, ok := c.Second.(*MethodSource); ok && !m.Setter {
			return m, true
		}
	}
	r, ok := d.(ReadSource)
	return r, ok
}

// writeSourceOf unwraps a composite to its setter when it has one.
func writeSourceOf(d Decorated) (WriteSource, bool) {
	if c, ok := d.(*CompositeSource); ok {
		if m, ok := c.Second.(*MethodSource); ok && m.Setter {
			return m, true
		}
	}
	w, ok := d.(WriteSource)
	return w, ok
}

// typeEntry resolves the converters and codecs declared on a type itself.
type typeEntry struct {
	encode binding
	decode binding
}

func (b *builder) typeEntry(t reflect.Type) (*typeEntry, error) {
	base := indirectType(t)
	if base == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnknownType)
	}
	encode, decode, err := b.resolver.resolveBoth(base, "", newTypeSource(base))
	if err != nil {
		return nil, err
	}
	return &typeEntry{encode: encode, decode: decode}, nil
}
