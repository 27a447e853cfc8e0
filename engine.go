package jsonbind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
)

// settings collects the options of an Engine.
type settings struct {
	naming          NamingStrategy
	order           OrderStrategy
	caseInsensitive bool
	nillable        bool
	failOnMissing   bool
	visibility      VisibilityStrategy
	discoverer      Discoverer
	provider        Provider
	defaults        ConverterRegistry
	cacheSize       int
}

// Option configures an Engine.
type Option func(*settings) error

// WithNaming sets the naming strategy. The default is identity.
func WithNaming(n NamingStrategy) Option {
	return func(s *settings) error {
		if n == nil {
			return newConfigError(ErrInvalidConfig, nil, "naming", "nil naming strategy")
		}
		s.naming = n
		return nil
	}
}

// WithOrder sets the global property order strategy.
func WithOrder(o OrderStrategy) Option {
	return func(s *settings) error {
		if !IsValidOrderStrategy(o) {
			return newConfigError(ErrInvalidConfig, nil, "order", fmt.Sprintf("unknown order strategy %q", o))
		}
		s.order = o
		return nil
	}
}

// WithVisibility sets the visibility strategy.
func WithVisibility(v VisibilityStrategy) Option {
	return func(s *settings) error {
		s.visibility = v
		return nil
	}
}

// WithCaseInsensitive makes wire names match and order case-insensitively.
func WithCaseInsensitive(v bool) Option {
	return func(s *settings) error {
		s.caseInsensitive = v
		return nil
	}
}

// WithNillable sets the global nillable default.
func WithNillable(v bool) Option {
	return func(s *settings) error {
		s.nillable = v
		return nil
	}
}

// WithFailOnMissingCreatorValues rejects absent creator arguments.
func WithFailOnMissingCreatorValues(v bool) Option {
	return func(s *settings) error {
		s.failOnMissing = v
		return nil
	}
}

// WithDiscoverer replaces the accessor discovery. The default is FieldDiscovery.
func WithDiscoverer(d Discoverer) Option {
	return func(s *settings) error {
		if d == nil {
			return newConfigError(ErrInvalidConfig, nil, "discoverer", "nil discoverer")
		}
		s.discoverer = d
		return nil
	}
}

// WithProvider replaces the instance provider. The default is DefaultProvider.
func WithProvider(p Provider) Option {
	return func(s *settings) error {
		if p == nil {
			return newConfigError(ErrInvalidConfig, nil, "provider", "nil provider")
		}
		s.provider = p
		return nil
	}
}

// WithDefaults replaces the default converter registry. Nil disables it.
func WithDefaults(r ConverterRegistry) Option {
	return func(s *settings) error {
		s.defaults = r
		return nil
	}
}

// WithCacheSize bounds the number of cached metadata entries.
func WithCacheSize(n int) Option {
	return func(s *settings) error {
		if n <= 0 {
			return newConfigError(ErrInvalidConfig, nil, "cache_size", fmt.Sprintf("cache size must be positive, got %d", n))
		}
		s.cacheSize = n
		return nil
	}
}

// WithConfig applies a parsed Config.
func WithConfig(c *Config) Option {
	return func(s *settings) error {
		if c == nil {
			return nil
		}
		if err := c.Validate(); err != nil {
			return err
		}
		for _, opt := range c.options() {
			if err := opt(s); err != nil {
				return err
			}
		}
		return nil
	}
}

// Engine resolves and caches the binding metadata of types.
// It is safe for concurrent use.
type Engine struct {
	builder   *builder
	cache     *metadataCache
	instances *instanceTracker
	closer    io.Closer

	closeOnce sync.Once
	closeErr  error
}

// New creates an Engine.
func New(opts ...Option) (*Engine, error) {
	s := settings{
		naming:     NamingFunc(identityName),
		order:      OrderAny,
		visibility: DefaultVisibility{},
		discoverer: FieldDiscovery{},
		provider:   DefaultProvider{},
		defaults:   NewDefaults(),
		cacheSize:  DefaultCacheSize,
	}
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return nil, err
		}
	}

	cache, err := newMetadataCache(s.cacheSize)
	if err != nil {
		return nil, err
	}
	instances := newInstanceTracker(s.provider)

	e := &Engine{
		builder: &builder{
			naming:          s.naming,
			order:           s.order,
			caseInsensitive: s.caseInsensitive,
			nillable:        s.nillable,
			failOnMissing:   s.failOnMissing,
			visibility:      s.visibility,
			discoverer:      s.discoverer,
			resolver:        &converterResolver{instances: instances, defaults: s.defaults},
		},
		cache:     cache,
		instances: instances,
	}
	if c, ok := s.discoverer.(io.Closer); ok {
		e.closer = c
	}

	emitEngineCreated(context.Background(), s.cacheSize)
	return e, nil
}

// FindReaders returns the ordered readers of t.
func (e *Engine) FindReaders(t reflect.Type) (*Properties[*Reader], error) {
	t = indirectType(t)
	return loadAs(e.cache, t, partReaders, func() (*Properties[*Reader], error) {
		return e.builder.readers(t)
	})
}

// FindWriters returns the ordered writers of t.
func (e *Engine) FindWriters(t reflect.Type) (*Properties[*Writer], error) {
	t = indirectType(t)
	return loadAs(e.cache, t, partWriters, func() (*Properties[*Writer], error) {
		return e.builder.writers(t)
	})
}

// FindFactory returns the creator of t. Interfaces have none.
func (e *Engine) FindFactory(t reflect.Type) (*Creator, error) {
	t = indirectType(t)
	return loadAs(e.cache, t, partCreator, func() (*Creator, error) {
		return e.builder.creator(t)
	})
}

func (e *Engine) typeEntry(t reflect.Type) (*typeEntry, error) {
	t = indirectType(t)
	return loadAs(e.cache, t, partType, func() (*typeEntry, error) {
		return e.builder.typeEntry(t)
	})
}

// FindReader returns the object reader declared on t itself, or nil.
func (e *Engine) FindReader(t reflect.Type) (ObjectReader, error) {
	entry, err := e.typeEntry(t)
	if err != nil {
		return nil, err
	}
	return entry.decode.reader, nil
}

// FindWriter returns the object writer declared on t itself, or nil.
func (e *Engine) FindWriter(t reflect.Type) (ObjectWriter, error) {
	entry, err := e.typeEntry(t)
	if err != nil {
		return nil, err
	}
	return entry.encode.writer, nil
}

// FindAdapter returns the converter declared on t itself, oriented so that
// ToJSON accepts values of t. It returns nil when none applies.
func (e *Engine) FindAdapter(t reflect.Type) (Converter, error) {
	entry, err := e.typeEntry(t)
	if err != nil {
		return nil, err
	}
	return entry.encode.converter, nil
}

// FieldComparator returns the property ordering of t, or nil for
// declaration order.
func (e *Engine) FieldComparator(t reflect.Type) Comparator {
	return e.builder.comparator(t)
}

// AfterParsed evicts every cached entry of t.
func (e *Engine) AfterParsed(t reflect.Type) {
	e.cache.evict(indirectType(t))
}

// Close releases every instance created by the engine and closes the
// discoverer when it is an io.Closer. Close is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		var errs []error
		if err := e.instances.releaseAll(); err != nil {
			errs = append(errs, err)
		}
		if e.closer != nil {
			if err := e.closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		e.cache.purge()
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}

// ReadersFor returns the readers of T. T is scanned with sentinel first, so
// its metadata and that of the types it references is shared process-wide.
func ReadersFor[T any](e *Engine) (*Properties[*Reader], error) {
	scan[T]()
	return e.FindReaders(reflect.TypeFor[T]())
}

// WritersFor returns the writers of T, scanning T like ReadersFor.
func WritersFor[T any](e *Engine) (*Properties[*Writer], error) {
	scan[T]()
	return e.FindWriters(reflect.TypeFor[T]())
}

// FactoryFor returns the creator of T, scanning T like ReadersFor.
func FactoryFor[T any](e *Engine) (*Creator, error) {
	scan[T]()
	return e.FindFactory(reflect.TypeFor[T]())
}
