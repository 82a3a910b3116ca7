package reflect

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/anoideaopen/dataportal/core/operation"
	"github.com/anoideaopen/dataportal/core/routing"
)

// Registry errors.
var (
	ErrNilType             = errors.New("nil reflect.Type provided")
	ErrInvalidKind         = errors.New("invalid operation kind")
	ErrMethodNotFound      = errors.New("method not found")
	ErrInjectOutOfRange    = errors.New("inject index out of range")
	ErrMethodAlreadyMarked = errors.New("method has already marked")
)

// Registry is the capability registry of business types: which methods
// handle which operation kind, which parameters are injected, and which types
// delegate to a factory.
//
// Marks are recorded against the type that declares the method. When a type
// embeds another, each level of the embedding chain contributes only its own
// marks. Pointer types are normalized to their element type, so *Widget and
// Widget share one entry.
//
// A Registry is safe for concurrent use. Every write bumps its generation,
// which invalidates the caches of routers built on it.
type Registry struct {
	mu        sync.RWMutex
	marks     map[reflect.Type][]mark
	injected  map[reflect.Type]map[string]map[int]struct{}
	factories map[reflect.Type]routing.FactoryDescriptor
	gen       atomic.Uint64
}

type mark struct {
	kind   operation.Kind
	method string
}

// MarkOption configures a mark.
type MarkOption func(t reflect.Type, method string, r *Registry) error

// Inject marks the parameters at the given indexes (receiver excluded) as
// injected from the service provider.
func Inject(idx ...int) MarkOption {
	return func(t reflect.Type, method string, r *Registry) error {
		return r.inject(t, method, idx...)
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		marks:     make(map[reflect.Type][]mark),
		injected:  make(map[reflect.Type]map[string]map[int]struct{}),
		factories: make(map[reflect.Type]routing.FactoryDescriptor),
	}
}

// Mark records that method of t handles kind. A type may mark several
// methods for the same kind; they compete during resolution.
func (r *Registry) Mark(t reflect.Type, kind operation.Kind, method string, opts ...MarkOption) error {
	if t == nil {
		return ErrNilType
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}
	t = baseType(t)
	if _, ok := reflect.PointerTo(t).MethodByName(method); !ok {
		return fmt.Errorf("%w: %s.%s", ErrMethodNotFound, t, method)
	}

	for _, opt := range opts {
		if err := opt(t, method, r); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.marks[t] {
		if m.kind == kind && m.method == method {
			return fmt.Errorf("%w: %s.%s for %s", ErrMethodAlreadyMarked, t, method, kind)
		}
	}
	r.marks[t] = append(r.marks[t], mark{kind: kind, method: method})
	r.gen.Add(1)
	return nil
}

// MustMark is like Mark but panics on error.
func (r *Registry) MustMark(t reflect.Type, kind operation.Kind, method string, opts ...MarkOption) *Registry {
	if err := r.Mark(t, kind, method, opts...); err != nil {
		panic(err)
	}
	return r
}

// Inject marks parameters of any method of t as injected. It is the way to
// mark injected parameters of legacy-named and factory methods, which carry
// no operation mark.
func (r *Registry) Inject(t reflect.Type, method string, idx ...int) error {
	if t == nil {
		return ErrNilType
	}
	return r.inject(baseType(t), method, idx...)
}

func (r *Registry) inject(t reflect.Type, method string, idx ...int) error {
	m, ok := reflect.PointerTo(t).MethodByName(method)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrMethodNotFound, t, method)
	}
	numIn := m.Type.NumIn() - 1
	for _, i := range idx {
		if i < 0 || i >= numIn {
			return fmt.Errorf("%w: %s.%s has %d parameters, got %d", ErrInjectOutOfRange, t, method, numIn, i)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.gen.Add(1)

	byMethod, ok := r.injected[t]
	if !ok {
		byMethod = make(map[string]map[int]struct{})
		r.injected[t] = byMethod
	}
	set, ok := byMethod[method]
	if !ok {
		set = make(map[int]struct{})
		byMethod[method] = set
	}
	for _, i := range idx {
		set[i] = struct{}{}
	}
	return nil
}

// Factory records that t delegates its persistence to the factory described
// by d. It takes precedence over a FactoryMarker implemented by t.
func (r *Registry) Factory(t reflect.Type, d routing.FactoryDescriptor) error {
	if t == nil {
		return ErrNilType
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.gen.Add(1)

	r.factories[baseType(t)] = d
	return nil
}

// Generation returns a counter that changes on every write.
func (r *Registry) Generation() uint64 {
	return r.gen.Load()
}

// Marked returns the names of the methods declared on t for kind, in the
// order they were marked.
func (r *Registry) Marked(t reflect.Type, kind operation.Kind) []string {
	if t == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, m := range r.marks[baseType(t)] {
		if m.kind == kind {
			names = append(names, m.method)
		}
	}
	return names
}

// InjectedParams returns the sorted injected parameter indexes of method.
func (r *Registry) InjectedParams(t reflect.Type, method string) []int {
	if t == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.injected[baseType(t)][method]
	idx := make([]int, 0, len(set))
	for i := range set {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// describes reports whether anything is registered for t itself.
func (r *Registry) describes(t reflect.Type) bool {
	t = baseType(t)

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, marked := r.marks[t]
	_, injected := r.injected[t]
	_, factory := r.factories[t]
	return marked || injected || factory
}

// factoryOf returns the factory descriptor registered for t or declared by
// t through routing.FactoryMarker.
func (r *Registry) factoryOf(t reflect.Type) (d routing.FactoryDescriptor, ok bool) {
	t = baseType(t)

	r.mu.RLock()
	d, ok = r.factories[t]
	r.mu.RUnlock()
	if ok {
		return d, true
	}

	if !reflect.PointerTo(t).Implements(factoryMarkerType) {
		return routing.FactoryDescriptor{}, false
	}
	marker, ok := reflect.New(t).Interface().(routing.FactoryMarker)
	if !ok {
		return routing.FactoryDescriptor{}, false
	}

	// A marker promoted through a nil embedded pointer may panic.
	defer func() {
		if rec := recover(); rec != nil {
			d, ok = routing.FactoryDescriptor{}, false
		}
	}()
	return marker.ObjectFactory(), true
}

// baseType strips pointer indirections.
func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
