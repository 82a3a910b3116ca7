package reflect

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/anoideaopen/dataportal/core/async"
	"github.com/anoideaopen/dataportal/core/inject"
	"github.com/anoideaopen/dataportal/core/routing"
)

// Invocation errors reported as the cause of a *routing.CallError.
var (
	ErrInvalidTarget   = errors.New("invalid target")
	ErrInvalidArgument = errors.New("invalid argument value")
	ErrInvalidService  = errors.New("invalid injected service")
)

// Call invokes the method behind h on target.
//
// Arguments are assembled in declared order. An injected parameter of type
// context.Context receives ctx; any other injected parameter is resolved
// from provider by its declared type, and gets its zero value when the
// provider is nil or has nothing for it. A positional parameter takes the
// next unconsumed criterion, or its zero value once criteria are exhausted.
// A trailing ...any catch-all takes all remaining criteria; a single
// remaining []any (or nil) criterion is passed through as the slice itself.
//
// The result is normalized from the return convention of the method:
// nothing yields nil, a value is returned as is (several values as []any),
// an async.Task or <-chan error is waited for and yields nil, and an
// async.Future is awaited and yields its value. A trailing error result,
// a panic, or a failed wait becomes a *routing.CallError whose cause is the
// innermost error available.
func Call(ctx context.Context, provider inject.Provider, target any, h *routing.Handle, criteria []any) (any, error) {
	if h == nil || h.Method() == nil {
		return nil, fmt.Errorf("%w: %s", routing.ErrNotImplemented, typeNameOf(target))
	}
	m := h.Method()

	fail := func(cause error) error {
		return &routing.CallError{
			Type:   routing.TypeName(m.DeclaringType),
			Method: m.Name,
			Cause:  innermost(cause),
		}
	}

	recv, err := receiver(target, m)
	if err != nil {
		return nil, fail(err)
	}

	args, err := arguments(ctx, provider, m, criteria)
	if err != nil {
		return nil, fail(err)
	}

	out, err := call(h.Func(), recv, args)
	if err != nil {
		return nil, fail(err)
	}

	result, err := normalize(ctx, m, out)
	if err != nil {
		return nil, fail(err)
	}
	return result, nil
}

// receiver walks from target down the embedding path of m and returns a
// pointer to the declaring level, suitable as the method receiver.
func receiver(target any, m *routing.Method) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, fmt.Errorf("%w: nil target for %s", ErrInvalidTarget, m)
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p
	}
	if v.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: nil %s", ErrInvalidTarget, v.Type())
	}

	for _, idx := range m.Path {
		for v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Pointer {
			v = v.Elem()
		}
		s := v.Elem()
		if s.Kind() != reflect.Struct || idx >= s.NumField() {
			return reflect.Value{}, fmt.Errorf("%w: %s is not a %s", ErrInvalidTarget, typeNameOf(target), m)
		}

		f := s.Field(idx)
		if f.Kind() == reflect.Pointer {
			if f.IsNil() {
				return reflect.Value{}, fmt.Errorf("%w: nil embedded %s in %s", ErrInvalidTarget, f.Type(), typeNameOf(target))
			}
			v = f
			continue
		}
		v = f.Addr()
	}

	if v.Type().Elem() != m.DeclaringType {
		return reflect.Value{}, fmt.Errorf("%w: %s is not a %s", ErrInvalidTarget, typeNameOf(target), m)
	}
	return v, nil
}

func arguments(ctx context.Context, provider inject.Provider, m *routing.Method, criteria []any) ([]reflect.Value, error) {
	var (
		args = make([]reflect.Value, len(m.Params))
		next = 0
	)
	for i, p := range m.Params {
		switch {
		case p.Injected:
			v, err := service(ctx, provider, p.Type)
			if err != nil {
				return nil, err
			}
			args[i] = v

		case m.Variadic && i == len(m.Params)-1:
			rest := criteria[min(next, len(criteria)):]
			next = len(criteria)
			if len(rest) == 1 {
				if s, ok := rest[0].([]any); ok || rest[0] == nil {
					args[i] = reflect.ValueOf(s)
					continue
				}
			}
			args[i] = reflect.ValueOf(append([]any{}, rest...))

		case next < len(criteria):
			v, err := argument(criteria[next], p)
			if err != nil {
				return nil, err
			}
			args[i] = v
			next++

		default:
			args[i] = reflect.Zero(p.Type)
		}
	}
	return args, nil
}

func argument(v any, p routing.Parameter) (reflect.Value, error) {
	if v == nil {
		if !nillable(p.Type) {
			return reflect.Value{}, fmt.Errorf("%w: parameter %d: nil for %s", ErrInvalidArgument, p.Index, p.Type)
		}
		return reflect.Zero(p.Type), nil
	}

	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(p.Type) {
		return reflect.Value{}, fmt.Errorf("%w: parameter %d: %s is not assignable to %s", ErrInvalidArgument, p.Index, rv.Type(), p.Type)
	}
	return rv, nil
}

func service(ctx context.Context, provider inject.Provider, t reflect.Type) (reflect.Value, error) {
	if t == contextType {
		return reflect.ValueOf(&ctx).Elem(), nil
	}

	v, ok, err := inject.Resolve(provider, t)
	if err != nil {
		return reflect.Value{}, err
	}
	if !ok || v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: provider returned %s for %s", ErrInvalidService, rv.Type(), t)
	}
	return rv, nil
}

func call(fn, recv reflect.Value, args []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = async.Recovered(rec)
		}
	}()

	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, recv)
	in = append(in, args...)

	if fn.Type().IsVariadic() {
		return fn.CallSlice(in), nil
	}
	return fn.Call(in), nil
}

func normalize(ctx context.Context, m *routing.Method, out []reflect.Value) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, async.Recovered(rec)
		}
	}()

	if m.ReturnsError {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error) //nolint:forcetypeassert
		}
	}

	switch m.Return {
	case routing.ReturnNone:
		return nil, nil

	case routing.ReturnDeferred:
		v := out[0]
		if isNil(v) {
			return nil, nil
		}
		if ch, ok := v.Interface().(<-chan error); ok {
			return nil, async.ChanTask(ch).Wait(ctx)
		}
		return nil, v.Interface().(async.Task).Wait(ctx) //nolint:forcetypeassert

	case routing.ReturnDeferredValue:
		v := out[0]
		if isNil(v) {
			return nil, nil
		}
		return v.Interface().(async.Future).Await(ctx) //nolint:forcetypeassert

	default:
		if len(out) == 1 {
			return out[0].Interface(), nil
		}
		values := make([]any, len(out))
		for i, o := range out {
			values[i] = o.Interface()
		}
		return values, nil
	}
}

// innermost strips the panic wrappers added around errors raised by the
// invoked method.
func innermost(err error) error {
	for {
		pe, ok := err.(*async.PanicError) //nolint:errorlint
		if !ok {
			return err
		}
		cause := pe.Unwrap()
		if cause == nil {
			return err
		}
		err = cause
	}
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

func typeNameOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	return routing.TypeName(reflect.TypeOf(v))
}
