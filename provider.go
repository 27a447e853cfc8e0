package jsonbind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
)

// Provider creates adapter, converter and codec instances for registered types.
type Provider interface {
	Create(t reflect.Type) (Instance, error)
}

// Instance is a created object together with its release hook.
type Instance interface {
	Value() any
	Release() error
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(t reflect.Type) (Instance, error)

// Create implements Provider.
func (f ProviderFunc) Create(t reflect.Type) (Instance, error) {
	return f(t)
}

// DefaultProvider allocates instances with reflect.New. Pointer types are
// allocated through their element; released values implementing io.Closer
// are closed.
type DefaultProvider struct{}

// Create implements Provider.
func (DefaultProvider) Create(t reflect.Type) (Instance, error) {
	if t == nil {
		return nil, errors.New("nil type")
	}
	switch t.Kind() {
	case reflect.Interface, reflect.Func, reflect.Chan:
		return nil, fmt.Errorf("cannot instantiate %s", t)
	case reflect.Pointer:
		return &closingInstance{value: reflect.New(t.Elem()).Interface()}, nil
	}
	// Methods declared on the pointer receiver stay reachable.
	return &closingInstance{value: reflect.New(t).Interface()}, nil
}

// NewInstance wraps a value with an optional release hook.
func NewInstance(v any, release func() error) Instance {
	return &funcInstance{value: v, release: release}
}

type closingInstance struct {
	value any
}

func (i *closingInstance) Value() any { return i.value }

func (i *closingInstance) Release() error {
	if c, ok := i.value.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type funcInstance struct {
	value   any
	release func() error
}

func (i *funcInstance) Value() any { return i.value }

func (i *funcInstance) Release() error {
	if i.release == nil {
		return nil
	}
	return i.release()
}

// instanceTracker creates instances through a Provider and remembers them
// until they are released together.
type instanceTracker struct {
	provider Provider

	mu       sync.Mutex
	live     []Instance
	released bool
}

func newInstanceTracker(p Provider) *instanceTracker {
	if p == nil {
		p = DefaultProvider{}
	}
	return &instanceTracker{provider: p}
}

// create asks the provider for an instance of t. Panics raised by the
// provider are reported as errors.
func (t *instanceTracker) create(typ reflect.Type) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	inst, err := t.provider.Create(typ)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, errors.New("provider returned no instance")
	}

	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		return nil, errors.Join(ErrClosed, inst.Release())
	}
	t.live = append(t.live, inst)
	t.mu.Unlock()

	emitAdapterCreated(context.Background(), typ)
	return inst.Value(), nil
}

// releaseAll releases every tracked instance once and joins their errors.
func (t *instanceTracker) releaseAll() error {
	t.mu.Lock()
	live := t.live
	t.live = nil
	t.released = true
	t.mu.Unlock()

	var errs []error
	for _, inst := range live {
		if err := inst.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	emitAdaptersReleased(context.Background(), len(live), err)
	return err
}

// count returns the number of live instances.
func (t *instanceTracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}
