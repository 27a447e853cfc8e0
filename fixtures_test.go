package jsonbind

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
)

// Registered names of the test adapters, converters and codecs.
const (
	centsName      = "fixture.cents"
	kelvinName     = "fixture.kelvin"
	upperName      = "fixture.upper"
	codecName      = "fixture.codec"
	plainName      = "fixture.plain"
	badAdapterName = "fixture.bad-adapter"
	fromStringName = "fixture.from-string"
	closingName    = "fixture.closing"
	panickingName  = "fixture.panicking"
	floatName      = "fixture.float"
)

// registerFixtures registers every test type. Tests that call Reset must
// register again before resolving tagged types.
func registerFixtures() {
	RegisterType[centsAdapter](centsName)
	RegisterType[kelvinAdapter](kelvinName)
	RegisterType[upperConverter](upperName)
	RegisterType[mapCodec](codecName)
	RegisterType[plainType](plainName)
	RegisterType[badAdapter](badAdapterName)
	RegisterType[centsFromString](fromStringName)
	RegisterType[closingAdapter](closingName)
	RegisterType[panickingType](panickingName)
	RegisterType[floatAdapter](floatName)
}

type cents int64

func (cents) DeclareBinding(d *Declaration) { d.Tags(`jsonb.adapter:"fixture.cents"`) }

// centsAdapter renders cents as "150c".
type centsAdapter struct{}

func (centsAdapter) AdaptToJSON(c cents) (string, error) {
	return strconv.FormatInt(int64(c), 10) + "c", nil
}

func (centsAdapter) AdaptFromJSON(s string) (cents, error) {
	n, err := strconv.ParseInt(strings.TrimSuffix(s, "c"), 10, 64)
	return cents(n), err
}

type kelvin float64

func (kelvin) DeclareBinding(d *Declaration) { d.Tags(`jsonb.adapter:"fixture.kelvin"`) }

// kelvinAdapter is declared from the JSON side.
type kelvinAdapter struct{}

func (kelvinAdapter) AdaptToJSON(s string) (kelvin, error) {
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "K"), 64)
	return kelvin(f), err
}

func (kelvinAdapter) AdaptFromJSON(k kelvin) (string, error) {
	return strconv.FormatFloat(float64(k), 'f', -1, 64) + "K", nil
}

type celsius float64

func (celsius) DeclareBinding(d *Declaration) { d.Tags(`jsonb.adapter:"fixture.float"`) }

// floatAdapter is typed on float64, so neither of its sides matches celsius.
type floatAdapter struct{}

func (floatAdapter) AdaptToJSON(f float64) (string, error) {
	return strconv.FormatFloat(f, 'f', 1, 64), nil
}

func (floatAdapter) AdaptFromJSON(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// upperConverter is a ValueConverter.
type upperConverter struct{}

func (upperConverter) ToString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return strings.ToUpper(s), nil
}

func (upperConverter) FromString(s string) (any, error) {
	return strings.ToLower(s), nil
}

// mapCodec is an object codec wrapping values in {"value": ...}.
type mapCodec struct{}

func (mapCodec) WriteObject(v any) (any, error) {
	return map[string]any{"value": fmt.Sprint(v)}, nil
}

func (mapCodec) ReadObject(tree any, target reflect.Type) (any, error) {
	m, ok := tree.(map[string]any)
	if !ok {
		return nil, errors.New("expected object")
	}
	out := reflect.New(target).Elem()
	if s, ok := m["value"].(string); ok && target.Kind() == reflect.String {
		out.SetString(s)
	}
	return out.Interface(), nil
}

// plainType implements no capability.
type plainType struct{}

// badAdapter has an AdaptFromJSON that does not mirror AdaptToJSON.
type badAdapter struct{}

func (badAdapter) AdaptToJSON(cents) (string, error) { return "", nil }

func (badAdapter) AdaptFromJSON(int) (cents, error) { return 0, nil }

// centsFromString is a TypeAware Converter declared from string to cents.
type centsFromString struct{}

func (centsFromString) ToJSON(v any) (any, error) {
	s, _ := v.(string)
	n, err := strconv.ParseInt(s, 10, 64)
	return cents(n), err
}

func (centsFromString) FromJSON(v any) (any, error) {
	c, _ := v.(cents)
	return strconv.FormatInt(int64(c), 10), nil
}

func (centsFromString) From() reflect.Type { return reflect.TypeFor[string]() }

func (centsFromString) To() reflect.Type { return reflect.TypeFor[cents]() }

var closedAdapters atomic.Int64

// closingAdapter counts Close calls.
type closingAdapter struct {
	centsAdapter
}

func (*closingAdapter) Close() error {
	closedAdapters.Add(1)
	return nil
}

// panickingType makes countingProvider panic.
type panickingType struct{}

// site is a Decorated with fixed tags.
type site struct {
	typ   reflect.Type
	tags  tagSet
	class tagSet
}

func newSite(t reflect.Type, tag string) site {
	return site{typ: t, tags: parseStructTag(tag)}
}

func (s site) Type() reflect.Type { return s.typ }

func (s site) Tag(kind TagKind) (Tag, bool) { return s.tags.get(kind) }

func (s site) ClassOrPackageTag(kind TagKind) (Tag, bool) { return s.class.get(kind) }

// countingProvider counts created and released instances.
type countingProvider struct {
	created  atomic.Int64
	released atomic.Int64
}

func (p *countingProvider) Create(t reflect.Type) (Instance, error) {
	if t == reflect.TypeFor[panickingType]() {
		panic("cannot create")
	}
	inst, err := DefaultProvider{}.Create(t)
	if err != nil {
		return nil, err
	}
	p.created.Add(1)
	return NewInstance(inst.Value(), func() error {
		p.released.Add(1)
		return inst.Release()
	}), nil
}

func newTestResolver() *converterResolver {
	return &converterResolver{instances: newInstanceTracker(nil), defaults: NewDefaults()}
}

func newTestEngine(opts ...Option) (*Engine, *countingProvider) {
	registerFixtures()
	p := &countingProvider{}
	e, err := New(append([]Option{WithProvider(p)}, opts...)...)
	if err != nil {
		panic(err)
	}
	return e, p
}
