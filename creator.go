package jsonbind

import (
	"fmt"
	"reflect"
	"strconv"
)

// Creator builds new instances of a type, either through a declared
// constructor or by allocating a zero value.
type Creator struct {
	Type                reflect.Type   // type being created
	ParamTypes          []reflect.Type // unwrapped parameter types
	ParamNames          []string
	ParamConverters     []Converter
	ParamItemConverters []Converter
	ParamCodecs         []ObjectReader

	params        []creatorParam
	invoke        func(in []reflect.Value) []reflect.Value
	declared      bool
	failOnMissing bool
}

type creatorParam struct {
	typ reflect.Type // declared parameter type
	opt *optional
}

// Default reports whether the creator allocates a zero value.
func (c *Creator) Default() bool {
	return !c.declared
}

// New invokes the creator. Arguments are matched to parameters by position;
// missing trailing arguments count as absent.
func (c *Creator) New(args ...any) (any, error) {
	if len(args) > len(c.params) {
		return nil, newConstructionError(ErrConstruction, c.Type,
			fmt.Errorf("%d arguments for %d parameters", len(args), len(c.params)))
	}

	in := make([]reflect.Value, len(c.params))
	for i, p := range c.params {
		var arg any
		if i < len(args) {
			arg = args[i]
		}
		v, err := c.argument(i, p, arg)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}
	return c.call(in)
}

// argument converts one argument. Absent arguments are rejected in strict
// mode and become the zero value otherwise.
func (c *Creator) argument(i int, p creatorParam, arg any) (reflect.Value, error) {
	if arg == nil && c.failOnMissing {
		return reflect.Value{}, newConfigError(ErrMissingCreatorValue, c.Type, c.ParamNames[i], "")
	}
	if p.opt != nil {
		v, err := p.opt.wrap(arg)
		if err != nil {
			return reflect.Value{}, newConstructionError(ErrConstruction, c.Type, err)
		}
		return v, nil
	}
	v, err := valueOf(arg, p.typ)
	if err != nil {
		return reflect.Value{}, newConstructionError(ErrConstruction, c.Type,
			fmt.Errorf("parameter %s: %w", c.ParamNames[i], err))
	}
	return v, nil
}

// call invokes the underlying function, turning returned errors and panics
// into construction errors.
func (c *Creator) call(in []reflect.Value) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = newConstructionError(ErrConstruction, c.Type, fmt.Errorf("panic: %v", r))
		}
	}()

	out := c.invoke(in)
	if cause := callError(out, 1); cause != nil {
		return nil, newConstructionError(ErrConstruction, c.Type, cause)
	}

	res := out[0]
	if res.Kind() == reflect.Interface {
		if res.IsNil() {
			return nil, newConstructionError(ErrCreatorTypeMismatch, c.Type, fmt.Errorf("creator returned nil"))
		}
		res = res.Elem()
	}
	if !res.Type().AssignableTo(c.Type) && !res.Type().AssignableTo(reflect.PointerTo(c.Type)) {
		return nil, newConstructionError(ErrCreatorTypeMismatch, c.Type, fmt.Errorf("got %s", res.Type()))
	}
	return res.Interface(), nil
}

// newDefaultCreator allocates a new *T. Interfaces have no default creator.
func newDefaultCreator(t reflect.Type) (*Creator, error) {
	base := indirectType(t)
	if base == nil || base.Kind() == reflect.Interface {
		return nil, nil
	}
	return &Creator{
		Type: base,
		invoke: func([]reflect.Value) []reflect.Value {
			return []reflect.Value{reflect.New(base)}
		},
	}, nil
}

// creatorSignature checks a creator function type. offset skips the receiver
// of method expressions.
func creatorSignature(ft reflect.Type, offset int) error {
	if ft.IsVariadic() {
		return fmt.Errorf("variadic creators are not supported")
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("second result must be error, got %s", ft.Out(1))
		}
	default:
		return fmt.Errorf("creator must return the value and an optional error")
	}
	if ft.NumIn() < offset {
		return fmt.Errorf("missing receiver")
	}
	return nil
}

// declaredCreator builds the Creator of one declaration, resolving parameter
// names and converters.
func (b *builder) declaredCreator(base reflect.Type, decl *Declaration, cd creatorDecl) (*Creator, error) {
	var (
		ft     reflect.Type
		offset int
		invoke func(in []reflect.Value) []reflect.Value
	)

	if cd.method != "" {
		m, ok := reflect.PointerTo(base).MethodByName(cd.method)
		if !ok {
			return nil, newConfigError(ErrInvalidCreator, base, "", "no method "+cd.method)
		}
		ft, offset = m.Type, 1
		invoke = func(in []reflect.Value) []reflect.Value {
			return m.Func.Call(append([]reflect.Value{reflect.New(base)}, in...))
		}
	} else {
		if !cd.fn.IsValid() || cd.fn.Kind() != reflect.Func || cd.fn.IsNil() {
			return nil, newConfigError(ErrInvalidCreator, base, "", "creator is not a function")
		}
		ft, invoke = cd.fn.Type(), cd.fn.Call
	}

	if err := creatorSignature(ft, offset); err != nil {
		return nil, newConfigError(ErrInvalidCreator, base, "", err.Error())
	}
	n := ft.NumIn() - offset
	if len(cd.params) > n {
		return nil, newConfigError(ErrInvalidCreator, base, "",
			fmt.Sprintf("%d parameter declarations for %d parameters", len(cd.params), n))
	}

	c := &Creator{
		Type:                base,
		ParamTypes:          make([]reflect.Type, n),
		ParamNames:          make([]string, n),
		ParamConverters:     make([]Converter, n),
		ParamItemConverters: make([]Converter, n),
		ParamCodecs:         make([]ObjectReader, n),
		params:              make([]creatorParam, n),
		invoke:              invoke,
		declared:            true,
		failOnMissing:       b.failOnMissing,
	}

	sc := scopeOf(base, decl)
	for i := 0; i < n; i++ {
		pt := ft.In(i + offset)
		var tags tagSet
		if i < len(cd.params) {
			tags = cd.params[i]
		}
		ps := &ParamSource{Index: i, typ: pt, tags: tags, scope: sc}

		name := "arg" + strconv.Itoa(i)
		if t, ok := ps.Tag(TagProperty); ok && t.Value != "" {
			name = t.Value
		}

		var site Decorated = ps
		valueType := pt
		opt, isOpt := optionalOf(pt)
		if isOpt {
			valueType = opt.elem
			site = retyped{Decorated: ps, typ: valueType}
		}

		bd, err := b.resolver.resolve(base, name, site, sideDecode)
		if err != nil {
			return nil, err
		}

		c.ParamTypes[i] = valueType
		c.ParamNames[i] = name
		c.ParamConverters[i] = bd.converter
		c.ParamItemConverters[i] = bd.item
		c.ParamCodecs[i] = bd.reader
		c.params[i] = creatorParam{typ: pt, opt: opt}
	}
	return c, nil
}

// creator resolves the Creator of t: the single declared creator, or the
// discoverer's default factory.
func (b *builder) creator(t reflect.Type) (*Creator, error) {
	base := indirectType(t)
	decl := declarationOf(base)
	switch len(decl.creators) {
	case 0:
		return b.discoverer.FindFactory(base)
	case 1:
		return b.declaredCreator(base, decl, decl.creators[0])
	default:
		return nil, newConfigError(ErrAmbiguousCreator, base, "", "")
	}
}
