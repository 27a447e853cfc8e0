package jsonbind

import (
	"context"
	"reflect"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for binding events.
var (
	SignalEngineCreated    = capitan.NewSignal("jsonbind.engine.created", "Engine instantiated")
	SignalTypeResolved     = capitan.NewSignal("jsonbind.type.resolved", "Type metadata resolved")
	SignalTypeFailed       = capitan.NewSignal("jsonbind.type.failed", "Type metadata resolution failed")
	SignalCacheEvicted     = capitan.NewSignal("jsonbind.cache.evicted", "Cached type metadata evicted")
	SignalAdapterCreated   = capitan.NewSignal("jsonbind.adapter.created", "Adapter instance created")
	SignalAdaptersReleased = capitan.NewSignal("jsonbind.adapters.released", "Adapter instances released")
)

// Keys for typed event data.
var (
	KeyTypeName = capitan.NewStringKey("type_name")
	KeyPart     = capitan.NewStringKey("part")
	KeyAdapter  = capitan.NewStringKey("adapter")
	KeyCount    = capitan.NewIntKey("count")
	KeyDuration = capitan.NewDurationKey("duration")
	KeyError    = capitan.NewErrorKey("error")
)

// typeName renders a type for event data, tolerating nil.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// emitEngineCreated emits an event when an engine is created.
func emitEngineCreated(ctx context.Context, cacheSize int) {
	capitan.Emit(ctx, SignalEngineCreated,
		KeyCount.Field(cacheSize),
	)
}

// emitTypeResolved emits an event when a cache part is built, or a failure event on error.
func emitTypeResolved(ctx context.Context, t reflect.Type, p part, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName(t)),
		KeyPart.Field(p.String()),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalTypeFailed, fields...)
		return
	}
	capitan.Emit(ctx, SignalTypeResolved, fields...)
}

// emitCacheEvicted emits an event when a cache entry leaves the cache.
func emitCacheEvicted(ctx context.Context, t reflect.Type, p part) {
	capitan.Emit(ctx, SignalCacheEvicted,
		KeyTypeName.Field(typeName(t)),
		KeyPart.Field(p.String()),
	)
}

// emitAdapterCreated emits an event when the provider hands out a new instance.
func emitAdapterCreated(ctx context.Context, t reflect.Type) {
	capitan.Emit(ctx, SignalAdapterCreated,
		KeyAdapter.Field(typeName(t)),
	)
}

// emitAdaptersReleased emits an event when the release set is drained.
func emitAdaptersReleased(ctx context.Context, count int, err error) {
	fields := []capitan.Field{
		KeyCount.Field(count),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalAdaptersReleased, fields...)
		return
	}
	capitan.Emit(ctx, SignalAdaptersReleased, fields...)
}
