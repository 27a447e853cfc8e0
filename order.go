package jsonbind

import (
	"cmp"
	"reflect"

	"golang.org/x/text/cases"
)

// OrderStrategy is the global property ordering policy.
type OrderStrategy string

const (
	// OrderAny keeps declaration order.
	OrderAny OrderStrategy = "any"

	// OrderLexicographical sorts wire names in natural string order.
	OrderLexicographical OrderStrategy = "lexicographical"

	// OrderReverse sorts wire names in reverse string order.
	OrderReverse OrderStrategy = "reverse"
)

// validOrderStrategies contains all valid order strategies for config validation.
var validOrderStrategies = map[OrderStrategy]bool{
	"":                   true,
	OrderAny:             true,
	OrderLexicographical: true,
	OrderReverse:         true,
}

// IsValidOrderStrategy returns true if s is a known order strategy.
func IsValidOrderStrategy(s OrderStrategy) bool {
	return validOrderStrategies[s]
}

// Comparator orders two wire names, returning a negative number, zero or a
// positive number. A nil Comparator means declaration order.
type Comparator func(a, b string) int

// strategyComparator returns the comparator of a global strategy, or nil.
func strategyComparator(order OrderStrategy) Comparator {
	switch order {
	case OrderLexicographical:
		return cmp.Compare[string]
	case OrderReverse:
		return func(a, b string) int { return cmp.Compare(b, a) }
	default:
		return nil
	}
}

// orderComparator builds the base comparator for t from its declared order
// list, falling back to the global strategy.
func orderComparator(t reflect.Type, naming NamingStrategy, order OrderStrategy) Comparator {
	fallback := strategyComparator(order)

	tag, ok := declarationOf(t).tag(TagOrder)
	if !ok || len(tag.Values) == 0 {
		return fallback
	}

	// Order lists use Go property names; translate them to wire names.
	index := make(map[string]int, len(tag.Values))
	for i, name := range tag.Values {
		if naming != nil {
			name = naming.TranslateName(name)
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	return func(a, b string) int {
		if a == b {
			return 0
		}
		i1, ok1 := index[a]
		i2, ok2 := index[b]
		switch {
		case ok1 && ok2:
			return cmp.Compare(i1, i2)
		case ok1:
			return -1
		case ok2:
			return 1
		case fallback != nil:
			return fallback(a, b)
		default:
			// Unlisted names keep their relative declaration order under a stable sort.
			return 0
		}
	}
}

// caseInsensitive wraps c so names differing only in case compare equal.
func caseInsensitive(c Comparator) Comparator {
	if c == nil {
		return nil
	}
	return func(a, b string) int {
		if foldName(a) == foldName(b) {
			return 0
		}
		return c(a, b)
	}
}

// foldName returns the case-folded form of a wire name.
// A Caser is not safe for concurrent use, so one is created per call.
func foldName(s string) string {
	return cases.Fold().String(s)
}
