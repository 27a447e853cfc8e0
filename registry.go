package jsonbind

import (
	"reflect"
	"sort"
	"sync"
)

// Tags reference adapters, converters and codecs by name; the registry maps
// those names to the types the Provider instantiates.
var (
	registry   = make(map[string]reflect.Type)
	registryMu sync.RWMutex
)

// Register associates name with an adapter, converter or codec type.
// Re-registering a name replaces the previous type.
func Register(name string, t reflect.Type) {
	if name == "" || t == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = t
}

// RegisterType registers T under name.
func RegisterType[T any](name string) {
	Register(name, reflect.TypeFor[T]())
}

// Lookup returns the type registered under name.
func Lookup(name string) (reflect.Type, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[name]
	return t, ok
}

// RegisteredNames returns the sorted registered names.
func RegisteredNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears the type registry.
// This is primarily useful for test isolation.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]reflect.Type)
}
