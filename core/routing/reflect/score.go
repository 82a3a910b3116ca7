package reflect

import (
	"reflect"

	"github.com/anoideaopen/dataportal/core/routing"
)

// Score rates how well the positional parameters of m match criteria.
// The second result is false when m cannot accept criteria at all.
//
// Per slot, a nil criterion scores 1 against an `any` parameter and 0
// against any other nillable parameter, and rules m out for a parameter that
// cannot hold nil. A non-nil criterion scores 2 when its dynamic type is the
// parameter type, 1 when it is only assignable to it, and rules m out
// otherwise.
func Score(m *routing.Method, criteria []any) (int, bool) {
	positional := m.Positional()
	if len(positional) != len(criteria) {
		return 0, false
	}

	score := 0
	for i, p := range positional {
		v := criteria[i]
		if v == nil {
			if !nillable(p.Type) {
				return 0, false
			}
			if p.Type == anyType {
				score++
			}
			continue
		}

		switch vt := reflect.TypeOf(v); {
		case vt == p.Type:
			score += 2
		case vt.AssignableTo(p.Type):
			score++
		default:
			return 0, false
		}
	}
	return score, true
}

// ScoreAll scores every candidate against criteria. When no candidate
// matches the exact arity and criteria is not empty, every candidate ending
// in a ...any catch-all is accepted with a fixed score of 1.
func ScoreAll(candidates []*routing.Method, criteria []any) []routing.Scored {
	var scored []routing.Scored
	for _, c := range candidates {
		if s, ok := Score(c, criteria); ok {
			scored = append(scored, routing.Scored{Method: c, Score: s})
		}
	}
	if len(scored) > 0 || len(criteria) == 0 {
		return scored
	}

	for _, c := range candidates {
		if c.Variadic {
			scored = append(scored, routing.Scored{Method: c, Score: 1})
		}
	}
	return scored
}

// nillable reports whether a value of type t can be nil.
func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}
