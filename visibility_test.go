package jsonbind

import (
	"reflect"
	"slices"
	"strings"
	"testing"
)

// noSecrets hides fields and methods whose name contains "Secret".
type noSecrets struct{}

func (noSecrets) FieldVisible(f reflect.StructField) bool {
	return f.IsExported() && !strings.Contains(f.Name, "Secret")
}

func (noSecrets) MethodVisible(m reflect.Method) bool {
	return !strings.Contains(m.Name, "Secret")
}

type vault struct {
	Label      string
	SecretCode string
	PIN        string
}

func (v *vault) GetSecretCode() string { return "****" }

func (v *vault) GetPIN() string { return v.PIN }

func (vault) DeclareBinding(d *Declaration) {
	d.Method("GetPIN", `json:"-"`)
}

func TestIsExcluded(t *testing.T) {
	typ := reflect.TypeFor[vault]()
	fields := fieldProperties(typ)
	methods := methodProperties(typ, false)
	pairs := pairProperties(fields, methods)

	find := func(props []RawProperty, name string) Decorated {
		for _, p := range props {
			if p.Name == name {
				return p.Source
			}
		}
		t.Fatalf("property %s not found", name)
		return nil
	}

	tests := []struct {
		name       string
		source     Decorated
		visibility VisibilityStrategy
		want       bool
	}{
		{"visible field", find(fields, "Label"), noSecrets{}, false},
		{"hidden field", find(fields, "SecretCode"), noSecrets{}, true},
		{"hidden method", find(methods, "SecretCode"), noSecrets{}, true},
		{"composite with both hidden", find(pairs, "SecretCode"), noSecrets{}, true},
		{"composite with visible sides", find(pairs, "SecretCode"), DefaultVisibility{}, false},
		{"transient method excludes composite", find(pairs, "PIN"), DefaultVisibility{}, true},
		{"transient method", find(methods, "PIN"), DefaultVisibility{}, true},
		{"nil strategy", find(fields, "SecretCode"), nil, false},
		{"other sites", newSite(stringType, ``), noSecrets{}, false},
		{"transient site", newSite(stringType, `json:"-"`), noSecrets{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isExcluded(tt.source, tt.visibility); got != tt.want {
				t.Errorf("isExcluded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsExcluded_OneSideVisible(t *testing.T) {
	hiddenField := &FieldSource{Field: reflect.StructField{Name: "secret", PkgPath: "x"}}
	visibleMethod := &MethodSource{Method: reflect.Method{Name: "GetSecret"}}
	c := &CompositeSource{First: hiddenField, Second: visibleMethod}

	if isExcluded(c, DefaultVisibility{}) {
		t.Error("a composite with a visible method should stay visible")
	}
}

func TestEngine_Visibility(t *testing.T) {
	e, _ := newTestEngine(WithVisibility(noSecrets{}), WithDiscoverer(FieldAndMethodDiscovery{}))
	defer e.Close()

	readers, err := ReadersFor[vault](e)
	if err != nil {
		t.Fatalf("FindReaders() error: %v", err)
	}
	if got := readers.Names(); !slices.Equal(got, []string{"Label"}) {
		t.Errorf("Names() = %v, want [Label]", got)
	}
}
