package jsonbind

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/vmihailenco/tagparser/v2"
	"github.com/zoobzio/sentinel"
)

// Struct tag keys understood by the engine.
const (
	tagJSON         = "json"
	tagTransient    = "jsonb.transient"
	tagAdapter      = "jsonb.adapter"
	tagDate         = "jsonb.date"
	tagNumber       = "jsonb.number"
	tagLocale       = "jsonb.locale"
	tagConverter    = "jsonb.converter"
	tagSerializer   = "jsonb.serializer"
	tagDeserializer = "jsonb.deserializer"
	tagAny          = "jsonb.any"
)

// tagKeys lists every key scanned from a struct tag.
var tagKeys = []string{
	tagJSON,
	tagTransient,
	tagAdapter,
	tagDate,
	tagNumber,
	tagLocale,
	tagConverter,
	tagSerializer,
	tagDeserializer,
	tagAny,
}

func init() {
	// Register jsonb tags with sentinel so scanned metadata carries them.
	for _, key := range tagKeys {
		sentinel.Tag(key)
	}
}

// TagKind identifies one kind of declared metadata.
type TagKind int

const (
	// TagProperty carries an explicit wire name and the nillable option.
	TagProperty TagKind = iota
	// TagTransient excludes the property.
	TagTransient
	// TagAdapter references a registered adapter type.
	TagAdapter
	// TagDateFormat carries a date layout.
	TagDateFormat
	// TagNumberFormat carries a number pattern.
	TagNumberFormat
	// TagConverter references a registered value converter or codec.
	TagConverter
	// TagSerializer references a registered object writer.
	TagSerializer
	// TagDeserializer references a registered object reader.
	TagDeserializer
	// TagAny marks an overflow property handled outside this package.
	TagAny
	// TagNillable is the type or package level nillable default.
	TagNillable
	// TagOrder is the type level explicit property order.
	TagOrder
)

var tagKindNames = map[TagKind]string{
	TagProperty:     tagJSON,
	TagTransient:    tagTransient,
	TagAdapter:      tagAdapter,
	TagDateFormat:   tagDate,
	TagNumberFormat: tagNumber,
	TagConverter:    tagConverter,
	TagSerializer:   tagSerializer,
	TagDeserializer: tagDeserializer,
	TagAny:          tagAny,
	TagNillable:     "nillable",
	TagOrder:        "order",
}

func (k TagKind) String() string {
	if name, ok := tagKindNames[k]; ok {
		return name
	}
	return "tag(" + strconv.Itoa(int(k)) + ")"
}

// converterKinds are the tag kinds that each select a converter; at most one
// may be declared on a single site.
var converterKinds = []TagKind{TagAdapter, TagDateFormat, TagNumberFormat, TagConverter}

// Tag is one declared piece of metadata.
type Tag struct {
	Kind    TagKind
	Value   string
	Values  []string          // order lists
	Options map[string]string // json options, locale
}

// Option returns a named option of the tag.
func (t Tag) Option(name string) (string, bool) {
	v, ok := t.Options[name]
	return v, ok
}

// Bool interprets the tag value as a boolean. An empty value is true and an
// unparsable value is false.
func (t Tag) Bool() bool {
	if t.Value == "" {
		return true
	}
	b, err := strconv.ParseBool(t.Value)
	return err == nil && b
}

// nillable reports the explicit nillable option of a property tag.
func (t Tag) nillable() (value, ok bool) {
	v, ok := t.Options["nillable"]
	if !ok {
		return false, false
	}
	if v == "" {
		return true, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true, true
	}
	return b, true
}

// tagSet holds at most one tag per kind.
type tagSet map[TagKind]Tag

func (s tagSet) get(kind TagKind) (Tag, bool) {
	t, ok := s[kind]
	return t, ok
}

// rawTags extracts the known keys from a struct tag.
func rawTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	for _, key := range tagKeys {
		if val, ok := tag.Lookup(key); ok {
			tags[key] = val
		}
	}
	return tags
}

// parseTags turns raw key/value pairs into a tag set.
func parseTags(raw map[string]string) tagSet {
	set := make(tagSet)
	locale := raw[tagLocale]

	if val, ok := raw[tagJSON]; ok {
		if val == "-" {
			set[TagTransient] = Tag{Kind: TagTransient, Value: val}
		} else {
			parsed := tagparser.Parse(val)
			set[TagProperty] = Tag{Kind: TagProperty, Value: parsed.Name, Options: parsed.Options}
		}
	}
	if val, ok := raw[tagTransient]; ok {
		t := Tag{Kind: TagTransient, Value: val}
		if t.Bool() {
			set[TagTransient] = t
		}
	}
	if val, ok := raw[tagAny]; ok {
		t := Tag{Kind: TagAny, Value: val}
		if t.Bool() {
			set[TagAny] = t
		}
	}

	named := map[string]TagKind{
		tagAdapter:      TagAdapter,
		tagConverter:    TagConverter,
		tagSerializer:   TagSerializer,
		tagDeserializer: TagDeserializer,
	}
	for key, kind := range named {
		if val, ok := raw[key]; ok {
			set[kind] = Tag{Kind: kind, Value: val}
		}
	}

	formats := map[string]TagKind{
		tagDate:   TagDateFormat,
		tagNumber: TagNumberFormat,
	}
	for key, kind := range formats {
		if val, ok := raw[key]; ok {
			t := Tag{Kind: kind, Value: val}
			if locale != "" {
				t.Options = map[string]string{"locale": locale}
			}
			set[kind] = t
		}
	}
	return set
}

// parseStructTag parses a struct-tag formatted string used in declarations.
func parseStructTag(tag string) tagSet {
	return parseTags(rawTags(reflect.StructTag(tag)))
}

// declaredConverterTags returns the converter-selecting tags present on d, in
// a stable order.
func declaredConverterTags(d Decorated) []Tag {
	var found []Tag
	for _, kind := range converterKinds {
		if t, ok := d.Tag(kind); ok {
			found = append(found, t)
		}
	}
	return found
}

// tagNames renders tag kinds for error details.
func tagNames(tags []Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Kind.String())
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
