// Package routing defines the data model and the Router interface used by the
// data portal to dispatch business object lifecycle operations.
//
// A Router answers two questions. [Router.Resolve] finds the single method of
// a target type that should handle an [operation.Kind] for a given criteria
// vector, and returns it as a [Handle]. [Router.Invoke] calls the method
// behind a Handle on a target instance, filling injected parameters from the
// ambient service provider and normalizing synchronous and asynchronous
// return conventions into a plain value.
//
// Router interface implementations include:
//   - [github.com/anoideaopen/dataportal/core/routing/reflect]: the default
//     implementation, built on a capability registry and Go reflection.
//   - [github.com/anoideaopen/dataportal/core/routing/mux]: chains several
//     routers and falls through to the next one when a router does not know
//     the requested method.
//
// Resolution failures are reported as [*ResolutionError] values matching one
// of [ErrNotFound], [ErrParameterMismatch] or [ErrAmbiguous]. Invocation
// failures match [ErrNotImplemented] (no handle) or [ErrCallFailed]; the
// latter is a [*CallError] whose Unwrap returns the innermost cause raised
// by the business method.
//
// # Example
//
//	router := reflect.MustNewRouter()
//	router.Registry().MustMark(reflect.TypeOf(&Widget{}), operation.Fetch, "FetchByID")
//
//	h, err := router.Resolve(reflect.TypeOf(&Widget{}), operation.Fetch, 42)
//	if err != nil {
//	    return err
//	}
//	result, err := router.Invoke(ctx, &Widget{}, h, 42)
package routing
