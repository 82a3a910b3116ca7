// Package core provides the data portal: the entry point that performs
// create, fetch, update, delete and execute operations on business objects
// by locating and calling the method each object declares for the operation.
//
// A business type declares its operation methods in a capability registry,
// or follows the legacy naming convention (DataPortalFetch, ChildUpdate, ...),
// or delegates persistence to a factory type. The Portal resolves the method
// matching the operation and the criteria values given by the caller,
// supplies injected services from an inject.Provider, and normalizes the
// synchronous or asynchronous result:
//
//	type Order struct {
//	    ID   int
//	    Code string
//	}
//
//	func (o *Order) FetchByID(repo OrderRepo, id int) error { ... }
//	func (o *Order) FetchByCode(code string) *async.Promise[*Order] { ... }
//
//	registry := reflect.NewRegistry().
//	    MustMark(reflect.TypeOf(Order{}), operation.Fetch, "FetchByID", reflect.Inject(0)).
//	    MustMark(reflect.TypeOf(Order{}), operation.Fetch, "FetchByCode")
//
//	portal, err := core.NewPortal(
//	    core.WithRegistry(registry),
//	    core.WithProvider(inject.Provide[OrderRepo](inject.NewMapProvider(), repo)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	order := &Order{}
//	_, err = portal.Fetch(ctx, order, 42)      // FetchByID
//	_, err = portal.Fetch(ctx, order, "A-17")  // FetchByCode
//
// Resolution and invocation are implemented by
// [github.com/anoideaopen/dataportal/core/routing/reflect]; several routers
// can be combined with WithRouters. Every dispatch gets a call id that is
// attached to its log entries and to the "dataportal.dispatch" span.
//
// # Errors
//
// Dispatch errors match the kinds of
// [github.com/anoideaopen/dataportal/core/routing] with errors.Is:
// ErrNotFound, ErrParameterMismatch and ErrAmbiguous when no single method
// can be resolved, ErrNotImplemented when there is nothing to invoke, and
// ErrCallFailed when the invoked method fails. A failed call unwraps to the
// innermost error raised by the method.
package core
