// Package inject defines the service-provider boundary used to fill the
// injected parameters of business object methods.
//
// The data portal does not own a dependency-injection container. It only
// asks a Provider for a value of a given type, once per injected parameter
// per invocation. The provider is ambient: it travels in the
// context.Context passed to the invocation.
package inject

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrProviderPanic is returned when a provider panics while resolving a type.
var ErrProviderPanic = errors.New("provider: panic during Resolve")

// Provider resolves services by type.
type Provider interface {
	// Resolve returns the value registered for t. The second result is false
	// when the provider has nothing for t.
	Resolve(t reflect.Type) (any, bool)
}

// ProviderFunc adapts an ordinary function to the Provider interface.
type ProviderFunc func(t reflect.Type) (any, bool)

// Resolve implements Provider.
func (f ProviderFunc) Resolve(t reflect.Type) (any, bool) {
	return f(t)
}

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// MapProvider is a simple in-memory provider keyed by type.
//
// Lookup prefers a value registered under exactly the requested type; when
// there is none and the requested type is an interface, the first
// registered value implementing it is returned, in registration order.
type MapProvider struct {
	mu    sync.RWMutex
	items map[reflect.Type]any
	order []reflect.Type
}

// NewMapProvider creates an empty MapProvider.
func NewMapProvider() *MapProvider {
	return &MapProvider{items: map[reflect.Type]any{}}
}

// Provide stores val under t and returns the provider for chaining.
// It panics if val is not assignable to t.
func (p *MapProvider) Provide(t reflect.Type, val any) *MapProvider {
	if val != nil && !reflect.TypeOf(val).AssignableTo(t) {
		panic(fmt.Errorf("inject: value of type %T is not assignable to %s", val, t))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.items[t]; !ok {
		p.order = append(p.order, t)
	}
	p.items[t] = val
	return p
}

// Provide stores val under the type T.
func Provide[T any](p *MapProvider, val T) *MapProvider {
	return p.Provide(TypeOf[T](), val)
}

// Resolve implements Provider.
func (p *MapProvider) Resolve(t reflect.Type) (any, bool) {
	if t == nil {
		return nil, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if v, ok := p.items[t]; ok {
		return v, true
	}
	if t.Kind() != reflect.Interface {
		return nil, false
	}
	for _, registered := range p.order {
		if registered.Implements(t) {
			return p.items[registered], true
		}
	}
	return nil, false
}

// Resolve asks p for a value of type t and converts a panic inside the
// provider into an error. A nil provider resolves nothing.
func Resolve(p Provider, t reflect.Type) (val any, ok bool, err error) {
	if p == nil {
		return nil, false, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			val, ok = nil, false
			err = fmt.Errorf("%w: %s: %v", ErrProviderPanic, t, rec)
		}
	}()

	val, ok = p.Resolve(t)
	return val, ok, nil
}

type providerKey struct{}

// WithProvider returns a copy of ctx carrying p as the ambient provider.
func WithProvider(ctx context.Context, p Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext returns the ambient provider carried by ctx, if any.
func FromContext(ctx context.Context) (Provider, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(providerKey{}).(Provider)
	return p, ok && p != nil
}
