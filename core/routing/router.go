package routing

import (
	"context"
	"reflect"

	"github.com/anoideaopen/dataportal/core/operation"
)

// Router defines the interface for resolving and invoking business object methods.
type Router interface {
	// Resolve selects the method of targetType that handles kind for the
	// given criteria. It returns a *ResolutionError if no single method fits.
	Resolve(targetType reflect.Type, kind operation.Kind, criteria ...any) (*Handle, error)

	// Invoke calls the method behind h on target with the given criteria.
	// It returns the normalized result of the call, or nil when the method
	// produces no value.
	Invoke(ctx context.Context, target any, h *Handle, criteria ...any) (any, error)
}

// FactoryDescriptor redirects the data portal from a business type to a
// separate factory type. The method fields name the factory method used for
// each operation; empty fields fall back to the operation name.
type FactoryDescriptor struct {
	Name          string // Name of the factory for the factory loader.
	CreateMethod  string
	FetchMethod   string
	UpdateMethod  string
	DeleteMethod  string
	ExecuteMethod string
}

// MethodName returns the factory method name configured for kind.
// Insert, Update and DeleteSelf all map onto the update method, and child
// kinds use the method of their root kind.
func (d FactoryDescriptor) MethodName(kind operation.Kind) string {
	pick := func(name, fallback string) string {
		if name != "" {
			return name
		}
		return fallback
	}

	switch kind.Root() {
	case operation.Create:
		return pick(d.CreateMethod, "Create")
	case operation.Fetch:
		return pick(d.FetchMethod, "Fetch")
	case operation.Insert, operation.Update, operation.DeleteSelf:
		return pick(d.UpdateMethod, "Update")
	case operation.Delete:
		return pick(d.DeleteMethod, "Delete")
	case operation.Execute:
		return pick(d.ExecuteMethod, "Execute")
	default:
		return ""
	}
}

// FactoryMarker is implemented by business types whose persistence is
// delegated to a factory. Embedding a type that implements it makes the
// embedding type delegate as well.
type FactoryMarker interface {
	ObjectFactory() FactoryDescriptor
}
