// Package factory defines how the data portal obtains factory objects for
// business types that delegate their persistence to a separate factory.
package factory

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var (
	// ErrFactoryNotFound is returned when no factory is registered under a name.
	ErrFactoryNotFound = errors.New("factory not found")
	// ErrFactoryAlreadyRegistered is returned when a name is registered twice.
	ErrFactoryAlreadyRegistered = errors.New("factory has already registered")
	// ErrInvalidConstructor is returned for a constructor returning nil.
	ErrInvalidConstructor = errors.New("invalid factory constructor")
)

// Loader loads factory types and instances by name.
type Loader interface {
	// Type returns the type of the factory registered under name.
	Type(name string) (reflect.Type, error)
	// Load returns a factory instance for name.
	Load(name string) (any, error)
}

// Constructor builds a new factory instance.
type Constructor func() any

type entry struct {
	typ reflect.Type
	ctr Constructor
}

// Registry is an in-memory Loader of named factory constructors.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a constructor under name. The factory type is taken from a
// sample instance produced by the constructor.
func (r *Registry) Register(name string, ctr Constructor) error {
	if ctr == nil {
		return fmt.Errorf("%w: '%s': nil constructor", ErrInvalidConstructor, name)
	}
	sample := ctr()
	if sample == nil {
		return fmt.Errorf("%w: '%s': constructor returned nil", ErrInvalidConstructor, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: '%s'", ErrFactoryAlreadyRegistered, name)
	}
	r.entries[name] = entry{typ: reflect.TypeOf(sample), ctr: ctr}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, ctr Constructor) *Registry {
	if err := r.Register(name, ctr); err != nil {
		panic(err)
	}
	return r
}

// Type implements Loader.
func (r *Registry) Type(name string) (reflect.Type, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.typ, nil
}

// Load implements Loader. Every call constructs a fresh instance.
func (r *Registry) Load(name string) (any, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.ctr(), nil
}

// Names returns the registered factory names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return entry{}, fmt.Errorf("%w: '%s'", ErrFactoryNotFound, name)
	}
	return e, nil
}
