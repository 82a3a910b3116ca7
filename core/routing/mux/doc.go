// Package mux provides a multiplexer that lets several
// [github.com/anoideaopen/dataportal/core/routing.Router] instances serve one
// data portal. This is useful when business types of one application follow
// different conventions, for example when a reflection router with marked
// methods is combined with a router dedicated to legacy types.
//
// Resolution asks the routers in order. A router that does not know the
// target type for the operation (its error matches routing.ErrNotFound)
// hands the request over to the next router. Any other resolution error,
// such as routing.ErrAmbiguous or routing.ErrParameterMismatch, is final:
// the router knew the type and rejected the criteria.
//
// Invocation is delegated to the router that produced the handle.
//
// Example usage:
//
//	marked := reflect.MustNewRouter(reflect.WithLegacyNames(false))
//	legacy := reflect.MustNewRouter(reflect.WithRegistry(legacyRegistry))
//
//	muxRouter, err := mux.NewRouter(marked, legacy)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	portal, err := core.NewPortal(core.WithRouter(muxRouter))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// NewRouter returns ErrNoRouters when called without routers and
// ErrRouterAlreadyDefined when the same router is given twice. Invoke
// returns ErrUnsupportedHandle for a handle none of the routers produced.
package mux
