// Package reflect provides the default routing.Router of the data portal,
// built on a capability registry and Go reflection.
//
// Declaring Methods:
//
// Go has neither method attributes nor overloading, so a business type
// declares its data portal methods in a [Registry]. Several differently named
// methods may be marked for the same operation kind; they compete as
// overloads during resolution.
//
//	type Widget struct{ ID int }
//
//	func (w *Widget) FetchByID(id int) error            { ... }
//	func (w *Widget) FetchByCode(code string) error     { ... }
//	func (w *Widget) Insert(repo Repo) (*Widget, error) { ... }
//
//	reg := reflect.NewRegistry()
//	reg.MustMark(reflect.TypeOf(&Widget{}), operation.Fetch, "FetchByID")
//	reg.MustMark(reflect.TypeOf(&Widget{}), operation.Fetch, "FetchByCode")
//	reg.MustMark(reflect.TypeOf(&Widget{}), operation.Insert, "Insert", reflect.Inject(0))
//
// [Inject] marks parameters that are resolved from the service provider
// instead of the caller's criteria. Marking is the only signal: the type,
// name and position of a parameter never make it injected.
//
// Embedding as Inheritance:
//
// A struct's base is one of its exported embedded struct fields: the first
// that carries marks, a factory descriptor or legacy-named methods, or else
// the first one. Unexported embedded fields are skipped. Discovery walks the
// embedding chain from the most-derived type to the innermost base; each
// level contributes the methods marked on that level type. Methods of a
// base level are invoked on the embedded value, even when the derived type
// shadows them.
//
// Legacy Names:
//
// When nothing is marked for a kind, methods named after the kind are used:
// "DataPortal" + kind for root objects (DataPortalFetch, DataPortalUpdate)
// and "Child" + kind for child kinds (ChildFetch for FetchChild). Along the
// chain a method whose signature was already captured at a more derived
// level is not added again.
//
// Factories:
//
// A type that implements routing.FactoryMarker, or that is registered with
// [Registry.Factory], delegates to a factory loaded through a factory.Loader.
// Only the factory method named for the requested kind is considered, and
// neither marks nor legacy names of the business type are searched.
//
// Scoring:
//
// Each candidate whose positional parameter count equals the criteria length
// is scored slot by slot (see [Score]): exact dynamic type 2, assignable 1,
// nil into `any` 1, nil into another nillable type 0; anything else rules
// the candidate out. Only when no candidate survives and criteria is not
// empty, methods ending in a ...any catch-all are accepted with a score of 1.
// [Pick] then adds the number of injected parameters of each candidate and
// requires a single top score.
//
// Invocation:
//
// [Router.Invoke] assembles arguments in declared order, taking injected
// values from the provider carried by the context (see inject.WithProvider)
// or from the router's default provider, and positional values from the
// criteria. Return conventions are normalized as described in [Call].
//
// Error Handling:
//
// Resolution returns a *routing.ResolutionError matching routing.ErrNotFound,
// routing.ErrParameterMismatch or routing.ErrAmbiguous. Invocation returns
// routing.ErrNotImplemented for a nil handle and a *routing.CallError for
// anything the invoked method raised. No operation is retried.
//
// Caching:
//
// Candidate sets and resolved handles are memoized per registry generation;
// any write to the registry invalidates them. Resolution depends only on the
// target type, the kind and the dynamic types of the criteria, so cached
// results are identical to fresh ones.
package reflect
