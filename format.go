package jsonbind

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DateUnixMillis is the date format value that renders epoch milliseconds.
const DateUnixMillis = "unix-millis"

var timeType = reflect.TypeFor[time.Time]()

// isDateType reports whether date layouts apply to t.
func isDateType(t reflect.Type) bool {
	return t == timeType
}

// isNumberType reports whether number patterns apply to t.
func isNumberType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// dateConverter formats time.Time with a Go layout. The locale option is
// accepted but Go layouts carry no localized month or day names.
type dateConverter struct {
	layout string
	millis bool
}

func newDateConverter(tag Tag) (*dateConverter, error) {
	if tag.Value == "" {
		return nil, errors.New("empty date format")
	}
	if tag.Value == DateUnixMillis {
		return &dateConverter{millis: true}, nil
	}
	return &dateConverter{layout: tag.Value}, nil
}

func (c *dateConverter) ToJSON(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("%w: expected time.Time, got %T", ErrValueType, v)
	}
	if c.millis {
		return t.UnixMilli(), nil
	}
	return t.Format(c.layout), nil
}

func (c *dateConverter) FromJSON(v any) (any, error) {
	if c.millis {
		ms, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string, got %T", ErrValueType, v)
	}
	return time.Parse(c.layout, s)
}

func (c *dateConverter) From() reflect.Type { return timeType }

func (c *dateConverter) To() reflect.Type {
	if c.millis {
		return reflect.TypeFor[int64]()
	}
	return stringType
}

// toInt64 accepts the numeric shapes a JSON tree may carry.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, fmt.Errorf("%w: expected number, got nil", ErrValueType)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return rv.Int(), nil
	case rv.CanUint():
		return int64(rv.Uint()), nil
	case rv.CanFloat():
		return int64(rv.Float()), nil
	}
	return 0, fmt.Errorf("%w: expected number, got %T", ErrValueType, v)
}

// numberConverter formats numbers with a decimal pattern such as "#,##0.00"
// in a locale. Zeros after the decimal point are required fraction digits,
// hashes optional ones; a comma in the integer part enables grouping.
type numberConverter struct {
	typ     reflect.Type
	lang    language.Tag
	opts    []number.Option
	group   string
	decimal string
}

func newNumberConverter(tag Tag, t reflect.Type) (*numberConverter, error) {
	lang := language.Und
	if loc, ok := tag.Option("locale"); ok && loc != "" {
		parsed, err := language.Parse(loc)
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", loc, err)
		}
		lang = parsed
	}

	c := &numberConverter{
		typ:  t,
		lang: lang,
		opts: numberOptions(tag.Value),
	}
	c.group, c.decimal = separators(lang)
	return c, nil
}

// numberOptions derives x/text number options from a decimal pattern.
func numberOptions(pattern string) []number.Option {
	if pattern == "" {
		return nil
	}
	intPart, frac, hasFrac := strings.Cut(pattern, ".")

	var opts []number.Option
	if !strings.Contains(intPart, ",") {
		opts = append(opts, number.NoSeparator())
	}
	if minInt := strings.Count(intPart, "0"); minInt > 0 {
		opts = append(opts, number.MinIntegerDigits(minInt))
	}

	minFrac, maxFrac := 0, 0
	if hasFrac {
		for _, r := range frac {
			switch r {
			case '0':
				minFrac++
				maxFrac++
			case '#':
				maxFrac++
			}
		}
	}
	return append(opts, number.MinFractionDigits(minFrac), number.MaxFractionDigits(maxFrac))
}

// separators finds the group and decimal separators of a locale by formatting
// a probe value.
func separators(lang language.Tag) (group, decimal string) {
	probe := message.NewPrinter(lang).Sprint(number.Decimal(1234567.5, number.MinFractionDigits(1)))
	runes := []rune(probe)

	last := -1
	for i := len(runes) - 1; i >= 0; i-- {
		if !unicode.IsDigit(runes[i]) {
			last = i
			break
		}
	}
	if last < 0 {
		return ",", "."
	}
	decimal = string(runes[last])
	for i := 0; i < last; i++ {
		if !unicode.IsDigit(runes[i]) {
			group = string(runes[i])
			break
		}
	}
	return group, decimal
}

func (c *numberConverter) ToJSON(v any) (any, error) {
	rv := reflect.ValueOf(v)
	var n any
	switch {
	case !rv.IsValid():
		return nil, fmt.Errorf("%w: expected number, got nil", ErrValueType)
	case rv.CanInt():
		n = rv.Int()
	case rv.CanUint():
		n = rv.Uint()
	case rv.CanFloat():
		n = rv.Float()
	default:
		return nil, fmt.Errorf("%w: expected number, got %T", ErrValueType, v)
	}
	// Printers buffer output and are not safe for concurrent use.
	return message.NewPrinter(c.lang).Sprint(number.Decimal(n, c.opts...)), nil
}

func (c *numberConverter) FromJSON(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: expected string, got %T", ErrValueType, v)
	}

	s = strings.TrimSpace(s)
	if c.group != "" {
		s = strings.ReplaceAll(s, c.group, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if c.decimal != "." {
		s = strings.ReplaceAll(s, c.decimal, ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", v, err)
	}

	out := reflect.New(c.typ).Elem()
	switch {
	case out.CanInt():
		if f != math.Trunc(f) || out.OverflowInt(int64(f)) {
			return nil, fmt.Errorf("%w: %q does not fit %s", ErrValueType, v, c.typ)
		}
		out.SetInt(int64(f))
	case out.CanUint():
		if f < 0 || f != math.Trunc(f) || out.OverflowUint(uint64(f)) {
			return nil, fmt.Errorf("%w: %q does not fit %s", ErrValueType, v, c.typ)
		}
		out.SetUint(uint64(f))
	default:
		out.SetFloat(f)
	}
	return out.Interface(), nil
}

func (c *numberConverter) From() reflect.Type { return c.typ }

func (c *numberConverter) To() reflect.Type { return stringType }
