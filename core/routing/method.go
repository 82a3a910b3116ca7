package routing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/anoideaopen/dataportal/core/operation"
)

// Parameter describes one declared parameter of a method. It is derived once
// from the method signature and never changes afterwards.
type Parameter struct {
	Index    int          // Position in the declared parameter list, receiver excluded.
	Type     reflect.Type // Declared type.
	Injected bool         // Resolved from the service provider instead of the criteria.
}

// ReturnShape is the return convention of a method, resolved once at discovery.
type ReturnShape int

// Return shapes.
const (
	ReturnNone          ReturnShape = iota // No value, synchronously.
	ReturnValue                            // A value, synchronously.
	ReturnDeferred                         // No value, asynchronously (async.Task or <-chan error).
	ReturnDeferredValue                    // A value, asynchronously (async.Future).
)

func (s ReturnShape) String() string {
	switch s {
	case ReturnNone:
		return "none"
	case ReturnValue:
		return "value"
	case ReturnDeferred:
		return "deferred"
	case ReturnDeferredValue:
		return "deferred-value"
	default:
		return fmt.Sprintf("ReturnShape(%d)", int(s))
	}
}

// Method is a candidate method of a target type for one operation kind.
type Method struct {
	Kind          operation.Kind
	DeclaringType reflect.Type // Type the method is declared on (a level of the embedding chain, or the factory).
	Name          string
	Params        []Parameter
	Variadic      bool        // The last parameter is a ...any catch-all.
	Return        ReturnShape // Return convention.
	ReturnsError  bool        // The last result is an error.
	Path          []int       // Field index path from the target to the declaring level.
	Factory       bool        // Declared on a factory type rather than the target.
	FactoryName   string      // Name of the factory for the factory loader.
}

// Injected returns the injected parameters in declared order.
func (m *Method) Injected() []Parameter {
	return m.filter(true)
}

// Positional returns the criteria-bound parameters in declared order.
func (m *Method) Positional() []Parameter {
	return m.filter(false)
}

func (m *Method) filter(injected bool) []Parameter {
	out := make([]Parameter, 0, len(m.Params))
	for _, p := range m.Params {
		if p.Injected == injected {
			out = append(out, p)
		}
	}
	return out
}

// Signature returns the method name and parameter types, e.g.
// "FetchByID(int, *app.Repo)". Two methods with equal signatures are
// interchangeable for resolution.
func (m *Method) Signature() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		if m.Variadic && i == len(m.Params)-1 {
			params[i] = "..." + p.Type.Elem().String()
			continue
		}
		params[i] = p.Type.String()
	}
	return m.Name + "(" + strings.Join(params, ", ") + ")"
}

func (m *Method) String() string {
	return TypeName(m.DeclaringType) + "." + m.Signature()
}

// Scored pairs a candidate with its score. Scores are comparable only
// within a single resolution.
type Scored struct {
	Method *Method
	Score  int
}

// TypeName returns the type name without pointer indirections, e.g.
// "app.Widget" for *app.Widget.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
