package mux

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/anoideaopen/dataportal/core/operation"
	"github.com/anoideaopen/dataportal/core/routing"
)

var (
	// ErrRouterAlreadyDefined is returned when the same router is given more than once.
	ErrRouterAlreadyDefined = errors.New("router has already defined")

	// ErrNoRouters is returned when the multiplexer is built without routers.
	ErrNoRouters = errors.New("no routers provided")

	// ErrUnsupportedHandle is returned when a handle was not produced by any of the routers.
	ErrUnsupportedHandle = errors.New("unsupported handle")
)

var _ routing.Router = (*Router)(nil)

// Router is a multiplexer that resolves through several routers in order.
type Router struct {
	routers []routing.Router
}

// NewRouter creates a new Router with the provided routing.Router instances.
// Routers are consulted in the given order.
func NewRouter(router ...routing.Router) (*Router, error) {
	if len(router) == 0 {
		return nil, ErrNoRouters
	}

	for i, r := range router {
		if r == nil {
			return nil, fmt.Errorf("%w: nil router", ErrNoRouters)
		}
		for _, prev := range router[:i] {
			if same(prev, r) {
				return nil, ErrRouterAlreadyDefined
			}
		}
	}

	return &Router{routers: router}, nil
}

// Resolve asks each router in turn. A router reporting routing.ErrNotFound
// passes the resolution to the next one; any other error ends it. When no
// router knows the type the last not-found error is returned.
func (r *Router) Resolve(targetType reflect.Type, kind operation.Kind, criteria ...any) (*routing.Handle, error) {
	var notFound error
	for _, router := range r.routers {
		h, err := router.Resolve(targetType, kind, criteria...)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, routing.ErrNotFound) {
			return nil, err
		}
		notFound = err
	}
	return nil, notFound
}

// Invoke delegates to the router that produced h.
func (r *Router) Invoke(ctx context.Context, target any, h *routing.Handle, criteria ...any) (any, error) {
	if h == nil || h.Method() == nil {
		return nil, routing.ErrNotImplemented
	}

	owner := h.Owner()
	for _, router := range r.routers {
		if same(router, owner) {
			return router.Invoke(ctx, target, h, criteria...)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedHandle, h)
}

// Routers returns the underlying routers in resolution order.
func (r *Router) Routers() []routing.Router {
	return append([]routing.Router(nil), r.routers...)
}

// same reports whether a and b are the same router. Routers of a
// non-comparable dynamic type are never the same.
func same(a, b routing.Router) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
