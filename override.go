package jsonbind

import (
	"reflect"
	"strconv"
	"sync"
)

// Declarer lets a type describe its binding metadata without struct tags.
// Go has no tags on types, methods or function parameters, so anything that
// cannot be expressed on a struct field is declared here instead:
//
//	func (Point) DeclareBinding(d *jsonbind.Declaration) {
//	    d.Order("Y", "X").
//	        Nillable(true).
//	        Creator(NewPoint, `json:"x"`, `json:"y"`)
//	}
//
// DeclareBinding is called on a zero value and must not depend on instance state.
type Declarer interface {
	DeclareBinding(d *Declaration)
}

var declarerType = reflect.TypeFor[Declarer]()

// Declaration is the static declaration table of one type or package.
type Declaration struct {
	owner    reflect.Type
	tags     tagSet
	methods  map[string]tagSet
	creators []creatorDecl
}

// creatorDecl is one declared creator: a function or a method name.
type creatorDecl struct {
	fn     reflect.Value
	method string
	params []tagSet
}

func newDeclaration(owner reflect.Type) *Declaration {
	return &Declaration{
		owner:   owner,
		tags:    make(tagSet),
		methods: make(map[string]tagSet),
	}
}

// Tags merges type-level tags written in struct tag syntax, for example
// `jsonb.date:"2006-01-02" jsonb.adapter:"money"`.
func (d *Declaration) Tags(tag string) *Declaration {
	for kind, t := range parseStructTag(tag) {
		d.tags[kind] = t
	}
	return d
}

// Order declares the explicit property order using Go property names.
func (d *Declaration) Order(names ...string) *Declaration {
	d.tags[TagOrder] = Tag{Kind: TagOrder, Values: append([]string(nil), names...)}
	return d
}

// Nillable declares the type-level nillable default.
func (d *Declaration) Nillable(v bool) *Declaration {
	d.tags[TagNillable] = Tag{Kind: TagNillable, Value: strconv.FormatBool(v)}
	return d
}

// Method attaches struct-tag formatted metadata to a getter or setter method.
func (d *Declaration) Method(name, tag string) *Declaration {
	d.methods[name] = parseStructTag(tag)
	return d
}

// Creator designates a constructor function. Each entry of params is the
// struct-tag formatted metadata of the parameter at that position.
func (d *Declaration) Creator(fn any, params ...string) *Declaration {
	d.creators = append(d.creators, creatorDecl{
		fn:     reflect.ValueOf(fn),
		params: parseParamTags(params),
	})
	return d
}

// CreatorMethod designates an exported method of the type as factory.
func (d *Declaration) CreatorMethod(name string, params ...string) *Declaration {
	d.creators = append(d.creators, creatorDecl{
		method: name,
		params: parseParamTags(params),
	})
	return d
}

func parseParamTags(params []string) []tagSet {
	sets := make([]tagSet, len(params))
	for i, p := range params {
		sets[i] = parseStructTag(p)
	}
	return sets
}

func (d *Declaration) tag(kind TagKind) (Tag, bool) {
	if d == nil {
		return Tag{}, false
	}
	return d.tags.get(kind)
}

func (d *Declaration) methodTags(name string) tagSet {
	if d == nil {
		return nil
	}
	return d.methods[name]
}

// declarationOf builds the declaration of t by calling its Declarer, if any.
func declarationOf(t reflect.Type) *Declaration {
	base := indirectType(t)
	d := newDeclaration(base)
	if base == nil || base.Kind() == reflect.Interface {
		return d
	}
	if reflect.PointerTo(base).Implements(declarerType) {
		reflect.New(base).Interface().(Declarer).DeclareBinding(d)
	}
	return d
}

// indirectType strips pointer levels.
func indirectType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

var (
	packages   = make(map[string]*Declaration)
	packagesMu sync.RWMutex
)

// DeclarePackage registers package-level defaults, consulted when neither the
// property nor its type declares a tag. Only Tags and Nillable are meaningful
// at package level.
func DeclarePackage(pkgPath string, fn func(d *Declaration)) {
	d := newDeclaration(nil)
	fn(d)

	packagesMu.Lock()
	defer packagesMu.Unlock()
	packages[pkgPath] = d
}

// packageDeclaration returns the package declaration for t, or nil.
func packageDeclaration(t reflect.Type) *Declaration {
	base := indirectType(t)
	if base == nil || base.PkgPath() == "" {
		return nil
	}
	packagesMu.RLock()
	defer packagesMu.RUnlock()
	return packages[base.PkgPath()]
}

// ResetPackages clears package declarations.
// This is primarily useful for test isolation.
func ResetPackages() {
	packagesMu.Lock()
	defer packagesMu.Unlock()
	packages = make(map[string]*Declaration)
}
