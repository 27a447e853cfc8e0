package jsonbind

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"
)

type account struct {
	Owner   string `json:"owner"`
	Balance int64  `json:"balance"`
	Tags    []string
}

func accountAccessors(t *testing.T) (*Properties[*Reader], *Properties[*Writer]) {
	t.Helper()
	e, _ := newTestEngine()
	t.Cleanup(func() { _ = e.Close() })

	readers, err := ReadersFor[account](e)
	if err != nil {
		t.Fatalf("FindReaders() error: %v", err)
	}
	writers, err := WritersFor[account](e)
	if err != nil {
		t.Fatalf("FindWriters() error: %v", err)
	}
	return readers, writers
}

func TestReader_Read(t *testing.T) {
	readers, _ := accountAccessors(t)
	r, ok := readers.Get("owner")
	if !ok {
		t.Fatal("Get(owner) found nothing")
	}

	a := account{Owner: "ada"}
	tests := []struct {
		name     string
		instance any
	}{
		{"value", a},
		{"pointer", &a},
		{"double pointer", func() any { p := &a; return &p }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Read(tt.instance)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if got != "ada" {
				t.Errorf("Read() = %v, want ada", got)
			}
		})
	}
}

func TestReader_ReadErrors(t *testing.T) {
	readers, _ := accountAccessors(t)
	r, _ := readers.Get("owner")

	tests := []struct {
		name     string
		instance any
	}{
		{"nil", nil},
		{"nil pointer", (*account)(nil)},
		{"other type", abc{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Read(tt.instance)
			if !errors.Is(err, ErrInstanceType) {
				t.Errorf("Read() error = %v, want ErrInstanceType", err)
			}
			var accErr *AccessError
			if !errors.As(err, &accErr) || accErr.Property != "owner" {
				t.Errorf("error = %#v, want AccessError for owner", err)
			}
		})
	}
}

func TestWriter_Write(t *testing.T) {
	_, writers := accountAccessors(t)

	var a account
	owner, _ := writers.Get("owner")
	if err := owner.Write(&a, "grace"); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	balance, _ := writers.Get("balance")
	if err := balance.Write(&a, 42); err != nil {
		t.Fatalf("Write(int) error: %v", err)
	}
	tags, _ := writers.Get("Tags")
	if err := tags.Write(&a, []string{"x"}); err != nil {
		t.Fatalf("Write(slice) error: %v", err)
	}

	if a.Owner != "grace" || a.Balance != 42 || !slices.Equal(a.Tags, []string{"x"}) {
		t.Errorf("account = %+v", a)
	}

	if err := owner.Write(&a, nil); err != nil {
		t.Fatalf("Write(nil) error: %v", err)
	}
	if a.Owner != "" {
		t.Errorf("Write(nil) left Owner = %q", a.Owner)
	}
}

func TestWriter_WriteErrors(t *testing.T) {
	_, writers := accountAccessors(t)
	owner, _ := writers.Get("owner")

	tests := []struct {
		name     string
		instance any
		value    any
		want     error
	}{
		{"value instance", account{}, "x", ErrInstanceType},
		{"nil pointer", (*account)(nil), "x", ErrInstanceType},
		{"other type", &abc{}, "x", ErrInstanceType},
		{"wrong value", &account{}, 12, ErrValueType},
		{"nil instance", nil, "x", ErrInstanceType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := owner.Write(tt.instance, tt.value)
			if !errors.Is(err, tt.want) {
				t.Errorf("Write() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAccessor_Tags(t *testing.T) {
	readers, _ := accountAccessors(t)
	r, _ := readers.Get("owner")

	tag, ok := r.Tag(TagProperty)
	if !ok || tag.Value != "owner" {
		t.Errorf("Tag(TagProperty) = %+v, %v", tag, ok)
	}
	if _, ok := r.ClassOrPackageTag(TagNillable); ok {
		t.Error("ClassOrPackageTag(TagNillable) should be absent")
	}
	if r.Owner != reflect.TypeFor[account]() {
		t.Errorf("Owner = %v, want account", r.Owner)
	}
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		typ     reflect.Type
		want    any
		wantErr bool
	}{
		{"nil", nil, stringType, "", false},
		{"assignable", "x", stringType, "x", false},
		{"numeric", 3, reflect.TypeFor[float64](), float64(3), false},
		{"float to int", 3.0, reflect.TypeFor[int](), 3, false},
		{"named kind", "EUR", reflect.TypeFor[currencyCode](), currencyCode("EUR"), false},
		{"named number", int64(5), reflect.TypeFor[cents](), cents(5), false},
		{"int to string", 65, stringType, nil, true},
		{"string to int", "5", reflect.TypeFor[int](), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := valueOf(tt.value, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("valueOf() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrValueType) {
					t.Errorf("valueOf() error = %v, want ErrValueType", err)
				}
				return
			}
			if got := v.Interface(); got != tt.want {
				t.Errorf("valueOf() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

type currencyCode string

func TestProperties(t *testing.T) {
	p := newProperties[int](false)
	for i, name := range []string{"b", "a", "c"} {
		if !p.add(name, i) {
			t.Fatalf("add(%s) reported duplicate", name)
		}
	}
	if p.add("a", 9) {
		t.Error("add(a) should report duplicate")
	}

	p.sort(strings.Compare)
	if got := p.Names(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Names() = %v, want [a b c]", got)
	}
	if v, ok := p.Get("b"); !ok || v != 0 {
		t.Errorf("Get(b) = %v, %v; want 0", v, ok)
	}
	if _, ok := p.Get("B"); ok {
		t.Error("Get(B) should not match case-sensitively")
	}

	var visited []string
	for name := range p.All() {
		visited = append(visited, name)
		if name == "b" {
			break
		}
	}
	if !slices.Equal(visited, []string{"a", "b"}) {
		t.Errorf("All() visited %v, want [a b]", visited)
	}
}

func TestProperties_CaseInsensitive(t *testing.T) {
	p := newProperties[int](true)
	p.add("Name", 1)
	if p.add("name", 2) {
		t.Error("add(name) should collide with Name")
	}
	if v, ok := p.Get("NAME"); !ok || v != 1 {
		t.Errorf("Get(NAME) = %v, %v; want 1", v, ok)
	}
}

func TestProperties_StableSort(t *testing.T) {
	p := newProperties[int](false)
	for i, name := range []string{"x", "y", "z"} {
		p.add(name, i)
	}
	p.sort(func(a, b string) int { return 0 })
	if got := p.Names(); !slices.Equal(got, []string{"x", "y", "z"}) {
		t.Errorf("Names() = %v, want declaration order", got)
	}
	p.sort(nil)
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
}

func TestProperties_Nil(t *testing.T) {
	var p *Properties[int]
	if p.Len() != 0 || p.Names() != nil {
		t.Error("nil Properties should be empty")
	}
	if _, ok := p.Get("a"); ok {
		t.Error("Get() on nil Properties should find nothing")
	}
	for range p.All() {
		t.Error("All() on nil Properties should not yield")
	}
}
