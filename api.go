// Package jsonbind resolves the binding metadata of Go types for a JSON
// object mapper.
//
// Given a type, the Engine decides once how each property is read and
// written, which converter transforms its value, how properties are named and
// ordered, which creator builds new instances, and rejects ambiguous or
// conflicting declarations. Token-level JSON reading and writing belongs to the
// mapper that owns the engine; this package only answers metadata questions.
//
// # Tag Syntax
//
// Properties are declared via struct tags:
//
//	type Invoice struct {
//	    ID       uuid.UUID       `json:"id"`
//	    Total    float64         `json:"total" jsonb.number:"#,##0.00" jsonb.locale:"de"`
//	    Issued   time.Time       `json:"issued" jsonb.date:"2006-01-02"`
//	    Amount   Money           `json:"amount" jsonb.adapter:"money"`
//	    Note     sql.NullString  `json:"note,nillable"`
//	    Internal string          `json:"-"`
//	}
//
// Valid keys:
//
//	json:"name,nillable"        - wire name and explicit nillable flag
//	json:"-"                    - exclude the property
//	jsonb.transient:"true"      - exclude the property
//	jsonb.adapter:"name"        - registered Adapter
//	jsonb.date:"layout"         - Go time layout, or "unix-millis"
//	jsonb.number:"#,##0.00"     - number pattern
//	jsonb.locale:"de"           - locale of the date/number format
//	jsonb.converter:"name"      - registered ValueConverter or object codec
//	jsonb.serializer:"name"     - registered ObjectWriter
//	jsonb.deserializer:"name"   - registered ObjectReader
//	jsonb.any:"true"            - overflow property, skipped
//
// At most one of adapter, date, number and converter may be declared on one
// property.
//
// # Declarations
//
// Metadata that cannot live on a struct field (type-level converters, the
// property order, getter/setter tags, creators) is declared by implementing
// Declarer. Package-wide defaults are registered with DeclarePackage.
// Adapter, converter and codec types are registered by name with Register.
//
// # Basic Usage
//
//	jsonbind.RegisterType[MoneyAdapter]("money")
//
//	engine, _ := jsonbind.New(
//	    jsonbind.WithNaming(jsonbind.NamingLowerCamelCase),
//	    jsonbind.WithOrder(jsonbind.OrderLexicographical),
//	)
//	defer engine.Close()
//
//	readers, err := engine.FindReaders(reflect.TypeFor[Invoice]())
//	for name, r := range readers.All() {
//	    v, _ := r.Read(&invoice)
//	    ...
//	}
//
// # Caching
//
// Resolved readers, writers, creators and type-level converters are cached per
// type. Call AfterParsed to evict a type and Close to release every adapter
// instance the engine created.
package jsonbind

import "reflect"

// Converter is a bidirectional value transform between a domain value and its
// JSON representation.
type Converter interface {
	// ToJSON converts a domain value into its representation.
	ToJSON(v any) (any, error)

	// FromJSON converts a representation back into a domain value.
	FromJSON(v any) (any, error)
}

// TypeAware is implemented by converters that expose their own types.
type TypeAware interface {
	// From returns the domain type.
	From() reflect.Type

	// To returns the representation type.
	To() reflect.Type
}

// Adapter is the typed capability a registered adapter implements.
// The engine recovers From and To from the method signatures.
type Adapter[From, To any] interface {
	AdaptToJSON(v From) (To, error)
	AdaptFromJSON(v To) (From, error)
}

// ValueConverter is the string-based capability of a custom converter.
type ValueConverter interface {
	ToString(v any) (string, error)
	FromString(s string) (any, error)
}
