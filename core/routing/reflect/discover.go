package reflect

import (
	"context"
	"reflect"

	"github.com/anoideaopen/dataportal/core/async"
	"github.com/anoideaopen/dataportal/core/operation"
	"github.com/anoideaopen/dataportal/core/routing"
)

var (
	anyType           = reflect.TypeOf((*any)(nil)).Elem()
	anySliceType      = reflect.TypeOf([]any(nil))
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
	contextType       = reflect.TypeOf((*context.Context)(nil)).Elem()
	futureType        = reflect.TypeOf((*async.Future)(nil)).Elem()
	taskType          = reflect.TypeOf((*async.Task)(nil)).Elem()
	errorChanType     = reflect.TypeOf((<-chan error)(nil))
	factoryMarkerType = reflect.TypeOf((*routing.FactoryMarker)(nil)).Elem()
)

// Strategy names the discovery strategy that produced a candidate set.
type Strategy string

// Discovery strategies, in priority order.
const (
	StrategyFactory Strategy = "factory"
	StrategyMarked  Strategy = "marked"
	StrategyLegacy  Strategy = "legacy"
	StrategyNone    Strategy = "none"
)

// level is one type of the embedding chain and the field index path that
// reaches it from the most-derived type.
type level struct {
	typ  reflect.Type
	path []int
}

// Chain returns the embedding chain of t from the most-derived type to the
// innermost base, as seen by r. Non-struct types form a chain of one.
//
// The base of a struct is one of its exported embedded fields of struct or
// pointer-to-struct type. The first such field that carries capabilities,
// directly or through its own embedded fields, wins: registry marks, a
// factory descriptor, or a legacy-named method while legacy names are
// enabled. When none does, the first such field is the base. Unexported
// embedded fields are never part of the chain.
func (r *Router) Chain(t reflect.Type) []reflect.Type {
	levels := r.chain(t)
	types := make([]reflect.Type, len(levels))
	for i, l := range levels {
		types[i] = l.typ
	}
	return types
}

func (r *Router) chain(t reflect.Type) []level {
	t = baseType(t)
	levels := []level{{typ: t}}
	seen := map[reflect.Type]bool{t: true}

	for cur := levels[0]; cur.typ.Kind() == reflect.Struct; {
		next, ok := r.embeddedBase(cur, seen)
		if !ok {
			break
		}
		seen[next.typ] = true
		levels = append(levels, next)
		cur = next
	}
	return levels
}

func (r *Router) embeddedBase(l level, seen map[reflect.Type]bool) (level, bool) {
	var (
		first level
		found bool
	)
	for i, ft := range embedded(l.typ) {
		if ft == nil || seen[ft] {
			continue
		}
		path := make([]int, len(l.path)+1)
		copy(path, l.path)
		path[len(l.path)] = i
		next := level{typ: ft, path: path}

		if r.carries(ft, map[reflect.Type]bool{l.typ: true}) {
			return next, true
		}
		if !found {
			first, found = next, true
		}
	}
	return first, found
}

// embedded returns the struct types of the exported embedded fields of t,
// indexed by field. Other fields are nil.
func embedded(t reflect.Type) []reflect.Type {
	types := make([]reflect.Type, t.NumField())
	for i := range types {
		f := t.Field(i)
		if !f.Anonymous || !f.IsExported() {
			continue
		}
		if ft := baseType(f.Type); ft.Kind() == reflect.Struct {
			types[i] = ft
		}
	}
	return types
}

// carries reports whether t or one of its embedded bases declares
// anything discovery can use.
func (r *Router) carries(t reflect.Type, visited map[reflect.Type]bool) bool {
	if visited[t] {
		return false
	}
	visited[t] = true

	if r.registry.describes(t) {
		return true
	}
	if _, ok := r.registry.factoryOf(t); ok {
		return true
	}
	if r.legacyNames {
		pt := reflect.PointerTo(t)
		for _, k := range operation.Kinds() {
			if _, ok := pt.MethodByName(k.LegacyName()); ok {
				return true
			}
		}
	}
	for _, ft := range embedded(t) {
		if ft != nil && r.carries(ft, visited) {
			return true
		}
	}
	return false
}

// Discover returns the candidate methods of targetType for kind and the
// strategy that produced them. It never fails: a type without candidates
// yields an empty slice and StrategyNone.
//
// Strategies are tried in order:
//  1. Factory delegation: when targetType has a factory descriptor, only the
//     factory method configured for kind is considered. A factory that
//     cannot be loaded or lacks the method yields no candidates.
//  2. Marked methods: every level of the embedding chain, most-derived first,
//     contributes the methods marked for kind on that level.
//  3. Legacy names: when nothing is marked, methods named kind.LegacyName()
//     are collected along the chain, skipping a method whose signature was
//     already captured at a more derived level.
func (r *Router) Discover(targetType reflect.Type, kind operation.Kind) ([]*routing.Method, Strategy) {
	if targetType == nil || !kind.Valid() {
		return nil, StrategyNone
	}

	if d, ok := r.registry.factoryOf(targetType); ok {
		return r.discoverFactory(targetType, kind, d), StrategyFactory
	}

	levels := r.chain(targetType)
	if found := r.discoverMarked(levels, kind); len(found) > 0 {
		return found, StrategyMarked
	}
	if !r.legacyNames {
		return nil, StrategyNone
	}
	if found := r.discoverLegacy(levels, kind); len(found) > 0 {
		return found, StrategyLegacy
	}
	return nil, StrategyNone
}

func (r *Router) discoverFactory(targetType reflect.Type, kind operation.Kind, d routing.FactoryDescriptor) []*routing.Method {
	log := r.log.WithField("type", routing.TypeName(targetType)).WithField("kind", kind.String())

	if r.loader == nil {
		log.Warnf("factory '%s' declared but no factory loader configured", d.Name)
		return nil
	}
	ft, err := r.loader.Type(d.Name)
	if err != nil {
		log.WithError(err).Warn("loading factory type")
		return nil
	}

	name := d.MethodName(kind)
	m, ok := r.describe(level{typ: baseType(ft)}, kind, name)
	if !ok {
		return nil
	}
	m.Factory = true
	m.FactoryName = d.Name
	return []*routing.Method{m}
}

func (r *Router) discoverMarked(levels []level, kind operation.Kind) []*routing.Method {
	var found []*routing.Method
	for _, l := range levels {
		for _, name := range r.registry.Marked(l.typ, kind) {
			if m, ok := r.describe(l, kind, name); ok {
				found = append(found, m)
			}
		}
	}
	return found
}

func (r *Router) discoverLegacy(levels []level, kind operation.Kind) []*routing.Method {
	var (
		found []*routing.Method
		seen  = make(map[string]bool)
		name  = kind.LegacyName()
	)
	for _, l := range levels {
		m, ok := r.describe(l, kind, name)
		if !ok {
			continue
		}
		if sig := m.Signature(); !seen[sig] {
			seen[sig] = true
			found = append(found, m)
		}
	}
	return found
}

// describe builds the method descriptor of name on the level type,
// classifying its parameters and return convention.
func (r *Router) describe(l level, kind operation.Kind, name string) (*routing.Method, bool) {
	rm, ok := reflect.PointerTo(l.typ).MethodByName(name)
	if !ok {
		return nil, false
	}

	mt := rm.Type
	params := make([]reflect.Type, mt.NumIn()-1)
	for i := range params {
		params[i] = mt.In(i + 1)
	}

	m := &routing.Method{
		Kind:          kind,
		DeclaringType: l.typ,
		Name:          name,
		Params:        Classify(params, r.registry.InjectedParams(l.typ, name)),
		Variadic:      mt.IsVariadic() && params[len(params)-1] == anySliceType,
		Path:          l.path,
	}
	m.Return, m.ReturnsError = returnShape(mt)
	return m, true
}

// returnShape derives the return convention of a method type.
func returnShape(mt reflect.Type) (routing.ReturnShape, bool) {
	n := mt.NumOut()
	returnsError := n > 0 && mt.Out(n-1) == errorType
	if returnsError {
		n--
	}

	switch {
	case n == 0:
		return routing.ReturnNone, returnsError
	case n > 1:
		return routing.ReturnValue, returnsError
	}

	out := mt.Out(0)
	switch {
	case out.Implements(futureType):
		return routing.ReturnDeferredValue, returnsError
	case out.Implements(taskType), out == errorChanType:
		return routing.ReturnDeferred, returnsError
	default:
		return routing.ReturnValue, returnsError
	}
}
