package routing

import (
	"reflect"

	"github.com/anoideaopen/dataportal/core/operation"
)

// Handle is the result of a successful resolution: a pre-bound reference to
// exactly one method. Handles are immutable and safe to share between
// goroutines.
type Handle struct {
	owner  Router
	method *Method
	fn     reflect.Value
}

// NewHandle binds m to fn, a function value taking the receiver as its first
// argument (a method expression). owner is the Router able to invoke it.
func NewHandle(owner Router, m *Method, fn reflect.Value) *Handle {
	return &Handle{owner: owner, method: m, fn: fn}
}

// Owner returns the Router that produced the handle.
func (h *Handle) Owner() Router {
	return h.owner
}

// Method returns the resolved method descriptor.
func (h *Handle) Method() *Method {
	return h.method
}

// Kind returns the operation kind the handle was resolved for.
func (h *Handle) Kind() operation.Kind {
	return h.method.Kind
}

// Func returns the bound method expression.
func (h *Handle) Func() reflect.Value {
	return h.fn
}

func (h *Handle) String() string {
	if h == nil || h.method == nil {
		return "<unresolved>"
	}
	return h.method.String()
}
