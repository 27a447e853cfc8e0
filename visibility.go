package jsonbind

import "reflect"

// VisibilityStrategy decides whether discovered fields and methods are exposed.
type VisibilityStrategy interface {
	FieldVisible(f reflect.StructField) bool
	MethodVisible(m reflect.Method) bool
}

// DefaultVisibility exposes every exported field and method.
type DefaultVisibility struct{}

// FieldVisible implements VisibilityStrategy.
func (DefaultVisibility) FieldVisible(f reflect.StructField) bool { return f.IsExported() }

// MethodVisible implements VisibilityStrategy.
func (DefaultVisibility) MethodVisible(m reflect.Method) bool { return m.IsExported() }

// isExcluded reports whether a candidate accessor is hidden from binding.
// An explicit exclusion on either side of a composite excludes it; otherwise
// a composite stays visible while one side is visible.
func isExcluded(d Decorated, visibility VisibilityStrategy) bool {
	c, ok := d.(*CompositeSource)
	if !ok {
		return isTransient(d) || !isVisible(d, visibility)
	}
	if isTransient(c.First) || isTransient(c.Second) {
		return true
	}
	return !isVisible(c.First, visibility) && !isVisible(c.Second, visibility)
}

func isTransient(d Decorated) bool {
	_, ok := d.Tag(TagTransient)
	return ok
}

// isVisible consults the strategy for fields and methods; other sites are visible.
func isVisible(d Decorated, visibility VisibilityStrategy) bool {
	if visibility == nil {
		return true
	}
	switch src := d.(type) {
	case *FieldSource:
		return visibility.FieldVisible(src.Field)
	case *MethodSource:
		return visibility.MethodVisible(src.Method)
	default:
		return true
	}
}
