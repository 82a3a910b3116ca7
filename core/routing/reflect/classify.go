package reflect

import (
	"reflect"

	"github.com/anoideaopen/dataportal/core/routing"
)

// Classify describes the declared parameters of a method. A parameter is
// injected if and only if its index is listed in injected; type, name and
// position play no part.
func Classify(params []reflect.Type, injected []int) []routing.Parameter {
	marked := make(map[int]bool, len(injected))
	for _, i := range injected {
		marked[i] = true
	}

	out := make([]routing.Parameter, len(params))
	for i, t := range params {
		out[i] = routing.Parameter{Index: i, Type: t, Injected: marked[i]}
	}
	return out
}

// Split separates parameters into injected and positional subsets,
// preserving declared order within each.
func Split(params []routing.Parameter) (injected, positional []routing.Parameter) {
	for _, p := range params {
		if p.Injected {
			injected = append(injected, p)
		} else {
			positional = append(positional, p)
		}
	}
	return injected, positional
}
