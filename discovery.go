package jsonbind

import (
	"maps"
	"reflect"
	"strings"

	"github.com/zoobzio/sentinel"
)

// RawProperty is one accessor found by a Discoverer, keyed by its Go name.
type RawProperty struct {
	Name   string
	Source Decorated
}

// Discoverer finds the raw accessors and default factory of a type.
// Read sources implement ReadSource and write sources implement WriteSource.
type Discoverer interface {
	FindReaders(t reflect.Type) ([]RawProperty, error)
	FindWriters(t reflect.Type) ([]RawProperty, error)
	FindFactory(t reflect.Type) (*Creator, error)
}

// FieldDiscovery binds struct fields. Untagged embedded structs are
// flattened; a shallower field hides a deeper one of the same name.
type FieldDiscovery struct{}

// FindReaders implements Discoverer.
func (FieldDiscovery) FindReaders(t reflect.Type) ([]RawProperty, error) {
	return fieldProperties(t), nil
}

// FindWriters implements Discoverer.
func (FieldDiscovery) FindWriters(t reflect.Type) ([]RawProperty, error) {
	return fieldProperties(t), nil
}

// FindFactory implements Discoverer.
func (FieldDiscovery) FindFactory(t reflect.Type) (*Creator, error) {
	return newDefaultCreator(t)
}

// MethodDiscovery binds GetX/IsX getters and SetX setters from the pointer
// method set, in method name order.
type MethodDiscovery struct{}

// FindReaders implements Discoverer.
func (MethodDiscovery) FindReaders(t reflect.Type) ([]RawProperty, error) {
	return methodProperties(t, false), nil
}

// FindWriters implements Discoverer.
func (MethodDiscovery) FindWriters(t reflect.Type) ([]RawProperty, error) {
	return methodProperties(t, true), nil
}

// FindFactory implements Discoverer.
func (MethodDiscovery) FindFactory(t reflect.Type) (*Creator, error) {
	return newDefaultCreator(t)
}

// FieldAndMethodDiscovery pairs each field with the accessor method of the
// same name. Paired accessors are CompositeSource values with the field first.
type FieldAndMethodDiscovery struct{}

// FindReaders implements Discoverer.
func (FieldAndMethodDiscovery) FindReaders(t reflect.Type) ([]RawProperty, error) {
	return pairProperties(fieldProperties(t), methodProperties(t, false)), nil
}

// FindWriters implements Discoverer.
func (FieldAndMethodDiscovery) FindWriters(t reflect.Type) ([]RawProperty, error) {
	return pairProperties(fieldProperties(t), methodProperties(t, true)), nil
}

// FindFactory implements Discoverer.
func (FieldAndMethodDiscovery) FindFactory(t reflect.Type) (*Creator, error) {
	return newDefaultCreator(t)
}

// scanType returns the field metadata of a struct type. Metadata cached by
// sentinel is used when it describes rt; types with unexported embedded
// structs, which sentinel omits, are read directly.
func scanType(rt reflect.Type) sentinel.Metadata {
	if !hasUnexportedEmbedded(rt) {
		if spec, ok := sentinel.Lookup(rt.Name()); ok && describes(spec, rt) {
			return spec
		}
	}

	spec := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}
		spec.Fields = append(spec.Fields, sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        rawTags(sf.Tag),
		})
	}
	return spec
}

// scan records sentinel metadata for T and the struct types it references
// within its module. Types that are not structs are left alone.
func scan[T any]() {
	_, _ = sentinel.TryScan[T]()
}

func hasUnexportedEmbedded(rt reflect.Type) bool {
	for i := 0; i < rt.NumField(); i++ {
		if sf := rt.Field(i); sf.Anonymous && !sf.IsExported() {
			return true
		}
	}
	return false
}

// describes reports whether spec was scanned from rt. Sentinel keys its
// cache by bare type name, so same-named types of other packages or scopes
// must be told apart.
func describes(spec sentinel.Metadata, rt reflect.Type) bool {
	if spec.TypeName != rt.Name() || spec.PackageName != rt.PkgPath() {
		return false
	}
	exported := 0
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).IsExported() {
			exported++
		}
	}
	if len(spec.Fields) != exported {
		return false
	}
	for _, f := range spec.Fields {
		sf, ok := fieldByIndex(rt, f.Index)
		if !ok || sf.Name != f.Name || sf.Type != f.ReflectType {
			return false
		}
	}
	return true
}

// fieldByIndex is reflect.Type.FieldByIndex that reports an index outside
// the type's fields instead of panicking.
func fieldByIndex(rt reflect.Type, index []int) (reflect.StructField, bool) {
	var sf reflect.StructField
	if len(index) == 0 {
		return sf, false
	}
	t := rt
	for i, x := range index {
		if i > 0 {
			t = sf.Type
			if t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
		}
		if t.Kind() != reflect.Struct || x < 0 || x >= t.NumField() {
			return reflect.StructField{}, false
		}
		sf = t.Field(x)
	}
	return sf, true
}

// fieldTags returns the tags of a scanned field. Sentinel drops keys declared
// with an empty value, so those are read back from the struct tag.
func fieldTags(fm sentinel.FieldMetadata, sf reflect.StructField) map[string]string {
	tags := fm.Tags
	cloned := false
	for _, key := range tagKeys {
		if _, ok := tags[key]; ok {
			continue
		}
		val, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		if !cloned {
			tags = maps.Clone(tags)
			if tags == nil {
				tags = make(map[string]string)
			}
			cloned = true
		}
		tags[key] = val
	}
	return tags
}

// fieldCandidate is a discovered field with its embedding depth.
type fieldCandidate struct {
	prop  RawProperty
	depth int
}

// fieldProperties lists the fields of t, flattening untagged embedded structs.
func fieldProperties(t reflect.Type) []RawProperty {
	base := indirectType(t)
	if base == nil || base.Kind() != reflect.Struct {
		return nil
	}
	sc := scopeOf(base, declarationOf(base))

	var found []fieldCandidate
	collectFields(base, base, sc, nil, 0, map[reflect.Type]bool{base: true}, &found)

	// Keep the shallowest field of each name; the first declared wins a tie.
	best := make(map[string]int, len(found))
	var order []string
	for i, c := range found {
		j, ok := best[c.prop.Name]
		if !ok {
			best[c.prop.Name] = i
			order = append(order, c.prop.Name)
			continue
		}
		if c.depth < found[j].depth {
			best[c.prop.Name] = i
		}
	}

	props := make([]RawProperty, 0, len(order))
	for _, name := range order {
		props = append(props, found[best[name]].prop)
	}
	return props
}

func collectFields(owner, rt reflect.Type, sc scope, parentIndex []int, depth int, visiting map[reflect.Type]bool, out *[]fieldCandidate) {
	spec := scanType(rt)
	for _, field := range spec.Fields {
		sf := rt.FieldByIndex(field.Index)
		fullIndex := append(append([]int{}, parentIndex...), field.Index...)
		tags := parseTags(fieldTags(field, sf))

		// Untagged embedded structs contribute their fields.
		if sf.Anonymous {
			if _, skip := tags.get(TagTransient); skip {
				continue
			}
			if _, named := tags.get(TagProperty); !named && sf.Type.Kind() == reflect.Struct {
				if et := sf.Type; !visiting[et] {
					visiting[et] = true
					collectFields(owner, et, sc, fullIndex, depth+1, visiting, out)
					delete(visiting, et)
				}
				continue
			}
			if !sf.IsExported() {
				continue
			}
		}

		sf.Index = fullIndex
		*out = append(*out, fieldCandidate{
			prop: RawProperty{
				Name:   sf.Name,
				Source: &FieldSource{Field: sf, Owner: owner, tags: tags, scope: sc},
			},
			depth: depth,
		})
	}
}

// Accessor method prefixes.
const (
	getterPrefix = "Get"
	boolPrefix   = "Is"
	setterPrefix = "Set"
)

// methodProperties lists the getters or setters of t.
func methodProperties(t reflect.Type, setters bool) []RawProperty {
	base := indirectType(t)
	if base == nil || base.Kind() == reflect.Interface {
		return nil
	}
	decl := declarationOf(base)
	sc := scopeOf(base, decl)

	pt := reflect.PointerTo(base)
	var props []RawProperty
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		var (
			name string
			vt   reflect.Type
			ok   bool
		)
		if setters {
			name, vt, ok = setterProperty(m)
		} else {
			name, vt, ok = getterProperty(m)
		}
		if !ok {
			continue
		}
		props = append(props, RawProperty{
			Name: name,
			Source: &MethodSource{
				Method:    m,
				Owner:     base,
				Setter:    setters,
				valueType: vt,
				tags:      decl.methodTags(m.Name),
				scope:     sc,
			},
		})
	}
	return props
}

// getterProperty matches func() T and func() (T, error) named GetX, or IsX
// returning bool.
func getterProperty(m reflect.Method) (string, reflect.Type, bool) {
	mt := m.Type
	if mt.NumIn() != 1 || mt.NumOut() == 0 || mt.NumOut() > 2 {
		return "", nil, false
	}
	if mt.NumOut() == 2 && mt.Out(1) != errorType {
		return "", nil, false
	}
	vt := mt.Out(0)
	if name, ok := accessorName(m.Name, getterPrefix); ok {
		return name, vt, true
	}
	if name, ok := accessorName(m.Name, boolPrefix); ok && vt.Kind() == reflect.Bool {
		return name, vt, true
	}
	return "", nil, false
}

// setterProperty matches func(T) and func(T) error named SetX.
func setterProperty(m reflect.Method) (string, reflect.Type, bool) {
	mt := m.Type
	if mt.NumIn() != 2 || mt.NumOut() > 1 {
		return "", nil, false
	}
	if mt.NumOut() == 1 && mt.Out(0) != errorType {
		return "", nil, false
	}
	name, ok := accessorName(m.Name, setterPrefix)
	if !ok {
		return "", nil, false
	}
	return name, mt.In(1), true
}

// accessorName strips prefix from a method name; "GetName" yields "Name".
func accessorName(method, prefix string) (string, bool) {
	name, ok := strings.CutPrefix(method, prefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// pairProperties merges fields with accessor methods of the same name.
// Unpaired methods follow the fields.
func pairProperties(fields, methods []RawProperty) []RawProperty {
	byName := make(map[string]RawProperty, len(methods))
	for _, m := range methods {
		byName[m.Name] = m
	}

	props := make([]RawProperty, 0, len(fields)+len(methods))
	for _, f := range fields {
		if m, ok := byName[f.Name]; ok {
			delete(byName, f.Name)
			props = append(props, RawProperty{
				Name:   f.Name,
				Source: &CompositeSource{First: f.Source, Second: m.Source},
			})
			continue
		}
		props = append(props, f)
	}
	for _, m := range methods {
		if _, ok := byName[m.Name]; ok {
			props = append(props, m)
		}
	}
	return props
}
