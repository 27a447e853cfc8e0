package jsonbind

import (
	"database/sql"
	"errors"
	"reflect"
	"slices"
	"testing"
)

type point struct {
	X int
	Y int
}

func newPoint(x, y int) point { return point{X: x, Y: y} }

func (point) DeclareBinding(d *Declaration) {
	d.Creator(newPoint, `json:"x"`, `json:"y"`)
}

type shape struct {
	Sides int
}

func (*shape) Build(sides int) *shape { return &shape{Sides: sides} }

func (shape) DeclareBinding(d *Declaration) { d.CreatorMethod("Build") }

var errNegative = errors.New("negative size")

type sized struct {
	Size int
}

func newSized(n int) (*sized, error) {
	if n < 0 {
		return nil, errNegative
	}
	if n > 100 {
		panic("too large")
	}
	return &sized{Size: n}, nil
}

func (sized) DeclareBinding(d *Declaration) { d.Creator(newSized) }

type liar struct{}

func (liar) DeclareBinding(d *Declaration) {
	d.Creator(func() any { return "not a liar" })
}

type nobody struct{}

func (nobody) DeclareBinding(d *Declaration) {
	d.Creator(func() any { return nil })
}

type optionalArgs struct {
	Label string
	Count int64
}

func newOptionalArgs(label sql.NullString, count sql.NullInt64) optionalArgs {
	return optionalArgs{Label: label.String, Count: count.Int64}
}

func (optionalArgs) DeclareBinding(d *Declaration) {
	d.Creator(newOptionalArgs, `json:"label"`)
}

type convertedArgs struct {
	Amount cents
	Items  []cents
}

func newConvertedArgs(amount cents, items []cents, raw string) convertedArgs {
	return convertedArgs{Amount: amount, Items: items}
}

func (convertedArgs) DeclareBinding(d *Declaration) {
	d.Creator(newConvertedArgs,
		`json:"amount" jsonb.adapter:"fixture.cents"`,
		`json:"items" jsonb.adapter:"fixture.cents"`,
		`json:"raw" jsonb.deserializer:"fixture.codec"`,
	)
}

type notAFunc struct{}

func (notAFunc) DeclareBinding(d *Declaration) { d.Creator(42) }

type variadic struct{}

func (variadic) DeclareBinding(d *Declaration) {
	d.Creator(func(xs ...int) variadic { return variadic{} })
}

type missingMethod struct{}

func (missingMethod) DeclareBinding(d *Declaration) { d.CreatorMethod("Nope") }

type tooManyParams struct{}

func (tooManyParams) DeclareBinding(d *Declaration) {
	d.Creator(func() tooManyParams { return tooManyParams{} }, `json:"a"`)
}

type badResult struct{}

func (badResult) DeclareBinding(d *Declaration) {
	d.Creator(func() (badResult, int) { return badResult{}, 0 })
}

func TestCreator_Function(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()

	c, err := FactoryFor[point](e)
	if err != nil {
		t.Fatalf("FindFactory() error: %v", err)
	}
	if c.Default() {
		t.Error("Default() should be false for a declared creator")
	}
	if !slices.Equal(c.ParamNames, []string{"x", "y"}) {
		t.Errorf("ParamNames = %v, want [x y]", c.ParamNames)
	}

	v, err := c.New(1, 2)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if v != (point{X: 1, Y: 2}) {
		t.Errorf("New() = %v, want {1 2}", v)
	}

	v, err = c.New(3)
	if err != nil {
		t.Fatalf("New(3) error: %v", err)
	}
	if v != (point{X: 3}) {
		t.Errorf("New(3) = %v, want {3 0}", v)
	}

	if _, err := c.New(1, 2, 3); !errors.Is(err, ErrConstruction) {
		t.Errorf("New() with too many args error = %v, want ErrConstruction", err)
	}
	if _, err := c.New("one", 2); !errors.Is(err, ErrConstruction) {
		t.Errorf("New(string) error = %v, want ErrConstruction", err)
	}
}

func TestCreator_Method(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()

	c, err := FactoryFor[shape](e)
	if err != nil {
		t.Fatalf("FindFactory() error: %v", err)
	}
	if !slices.Equal(c.ParamNames, []string{"arg0"}) {
		t.Errorf("ParamNames = %v, want [arg0]", c.ParamNames)
	}
	v, err := c.New(4)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	s, ok := v.(*shape)
	if !ok || s.Sides != 4 {
		t.Errorf("New() = %#v, want &shape{4}", v)
	}
}

func TestCreator_Failures(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()

	c, err := FactoryFor[sized](e)
	if err != nil {
		t.Fatalf("FindFactory() error: %v", err)
	}

	_, err = c.New(-1)
	if !errors.Is(err, ErrConstruction) || !errors.Is(err, errNegative) {
		t.Errorf("New(-1) error = %v, want ErrConstruction wrapping the cause", err)
	}
	var cerr *ConstructionError
	if !errors.As(err, &cerr) || cerr.Type != reflect.TypeFor[sized]() {
		t.Errorf("error = %#v, want ConstructionError for sized", err)
	}

	if _, err := c.New(1000); !errors.Is(err, ErrConstruction) {
		t.Errorf("New(1000) error = %v, want ErrConstruction from panic", err)
	}

	v, err := c.New(5)
	if err != nil {
		t.Fatalf("New(5) error: %v", err)
	}
	if s := v.(*sized); s.Size != 5 {
		t.Errorf("Size = %d, want 5", s.Size)
	}
}

func TestCreator_TypeMismatch(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()

	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"wrong type", reflect.TypeFor[liar]()},
		{"nil result", reflect.TypeFor[nobody]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := e.FindFactory(tt.typ)
			if err != nil {
				t.Fatalf("FindFactory() error: %v", err)
			}
			if _, err := c.New(); !errors.Is(err, ErrCreatorTypeMismatch) {
				t.Errorf("New() error = %v, want ErrCreatorTypeMismatch", err)
			}
		})
	}
}

func TestCreator_OptionalParams(t *testing.T) {
	e, _ := newTestEngine(WithFailOnMissingCreatorValues(false))
	defer e.Close()

	c, err := FactoryFor[optionalArgs](e)
	if err != nil {
		t.Fatalf("FindFactory() error: %v", err)
	}
	want := []reflect.Type{stringType, reflect.TypeFor[int64]()}
	if !slices.Equal(c.ParamTypes, want) {
		t.Errorf("ParamTypes = %v, want %v", c.ParamTypes, want)
	}
	if !slices.Equal(c.ParamNames, []string{"label", "arg1"}) {
		t.Errorf("ParamNames = %v, want [label arg1]", c.ParamNames)
	}

	v, err := c.New("tag", nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if v != (optionalArgs{Label: "tag"}) {
		t.Errorf("New() = %+v", v)
	}
}

func TestCreator_ParamConverters(t *testing.T) {
	e, p := newTestEngine()
	defer e.Close()

	c, err := FactoryFor[convertedArgs](e)
	if err != nil {
		t.Fatalf("FindFactory() error: %v", err)
	}
	if c.ParamConverters[0] == nil || c.ParamItemConverters[0] != nil {
		t.Error("amount should have a value converter")
	}
	if c.ParamConverters[1] != nil || c.ParamItemConverters[1] == nil {
		t.Error("items should have an item converter")
	}
	if c.ParamCodecs[2] == nil {
		t.Error("raw should have an object codec")
	}
	if got := p.created.Load(); got != 3 {
		t.Errorf("created = %d, want 3", got)
	}
}

func TestCreator_InvalidDeclarations(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()

	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"not a function", reflect.TypeFor[notAFunc]()},
		{"variadic", reflect.TypeFor[variadic]()},
		{"missing method", reflect.TypeFor[missingMethod]()},
		{"too many parameter declarations", reflect.TypeFor[tooManyParams]()},
		{"second result not error", reflect.TypeFor[badResult]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.FindFactory(tt.typ)
			if !errors.Is(err, ErrInvalidCreator) {
				t.Errorf("FindFactory() error = %v, want ErrInvalidCreator", err)
			}
		})
	}
}

func TestNewDefaultCreator(t *testing.T) {
	c, err := newDefaultCreator(reflect.TypeFor[*point]())
	if err != nil {
		t.Fatalf("newDefaultCreator() error: %v", err)
	}
	if c.Type != reflect.TypeFor[point]() {
		t.Errorf("Type = %v, want point", c.Type)
	}

	c, err = newDefaultCreator(reflect.TypeFor[Converter]())
	if err != nil || c != nil {
		t.Errorf("newDefaultCreator(interface) = %v, %v; want nil, nil", c, err)
	}
}
