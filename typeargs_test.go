package jsonbind

import (
	"reflect"
	"testing"
)

type pointerAdapter struct{}

func (*pointerAdapter) AdaptToJSON(c cents) (int64, error) { return int64(c), nil }

func (*pointerAdapter) AdaptFromJSON(n int64) (cents, error) { return cents(n), nil }

type nestedAdapter struct {
	pointerAdapter
}

type wrongArity struct{}

func (wrongArity) AdaptToJSON(a, b cents) (string, error) { return "", nil }

type noErrorResult struct{}

func (noErrorResult) AdaptToJSON(c cents) (string, bool) { return "", true }

func TestAdaptedTypes(t *testing.T) {
	int64Type := reflect.TypeFor[int64]()
	centsType := reflect.TypeFor[cents]()

	tests := []struct {
		name     string
		typ      reflect.Type
		wantFrom reflect.Type
		wantTo   reflect.Type
		wantOK   bool
	}{
		{"value receiver", reflect.TypeFor[centsAdapter](), centsType, stringType, true},
		{"pointer to value receiver", reflect.TypeFor[*centsAdapter](), centsType, stringType, true},
		{"pointer receiver", reflect.TypeFor[pointerAdapter](), centsType, int64Type, true},
		{"embedded", reflect.TypeFor[nestedAdapter](), centsType, int64Type, true},
		{"interface", reflect.TypeFor[Adapter[cents, string]](), centsType, stringType, true},
		{"reversed declaration", reflect.TypeFor[kelvinAdapter](), stringType, reflect.TypeFor[kelvin](), true},
		{"wrong arity", reflect.TypeFor[wrongArity](), nil, nil, false},
		{"no error result", reflect.TypeFor[noErrorResult](), nil, nil, false},
		{"no method", reflect.TypeFor[plainType](), nil, nil, false},
		{"not a struct", stringType, nil, nil, false},
		{"nil", nil, nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, ok := adaptedTypes(tt.typ)
			if ok != tt.wantOK {
				t.Fatalf("adaptedTypes() ok = %v, want %v", ok, tt.wantOK)
			}
			if from != tt.wantFrom || to != tt.wantTo {
				t.Errorf("adaptedTypes() = %v, %v; want %v, %v", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestConverterTypes(t *testing.T) {
	adapter, _ := newAdapterConverter(centsAdapter{})

	tests := []struct {
		name     string
		c        Converter
		wantFrom reflect.Type
		wantOK   bool
	}{
		{"type aware", centsFromString{}, stringType, true},
		{"adapter", adapter, reflect.TypeFor[cents](), true},
		{"unwrapped value converter", &stringConverter{vc: upperConverter{}}, nil, false},
		{"reversed", Reversed{Converter: adapter}, stringType, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, _, ok := converterTypes(tt.c)
			if ok != tt.wantOK {
				t.Fatalf("converterTypes() ok = %v, want %v", ok, tt.wantOK)
			}
			if from != tt.wantFrom {
				t.Errorf("converterTypes() from = %v, want %v", from, tt.wantFrom)
			}
		})
	}
}

func TestIsReversed(t *testing.T) {
	centsType := reflect.TypeFor[cents]()

	tests := []struct {
		name    string
		payload reflect.Type
		c       Converter
		want    bool
	}{
		{"declared from payload", stringType, centsFromString{}, false},
		{"declared to payload", centsType, centsFromString{}, true},
		{"unrelated payload", reflect.TypeFor[bool](), centsFromString{}, false},
		{"no type information", stringType, &stringConverter{vc: upperConverter{}}, false},
		{"nil payload", nil, centsFromString{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReversed(tt.payload, tt.c); got != tt.want {
				t.Errorf("isReversed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesType(t *testing.T) {
	tests := []struct {
		t, slot reflect.Type
		want    bool
	}{
		{stringType, stringType, true},
		{reflect.TypeFor[cents](), reflect.TypeFor[int64](), false},
		{reflect.TypeFor[*centsAdapter](), reflect.TypeFor[Adapter[cents, string]](), true},
		{stringType, nil, false},
		{nil, stringType, false},
	}
	for _, tt := range tests {
		if got := matchesType(tt.t, tt.slot); got != tt.want {
			t.Errorf("matchesType(%v, %v) = %v, want %v", tt.t, tt.slot, got, tt.want)
		}
	}
}
