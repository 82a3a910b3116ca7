package reflect

import "github.com/anoideaopen/dataportal/core/routing"

// Pick selects the winner among scored candidates.
//
// Each score is first raised by the number of injected parameters of its
// candidate: when positional scores tie, the method able to absorb more
// services from the provider wins. This greedy preference is a deliberate
// policy. If several candidates still share the top score, Pick returns
// them all with ok set to false.
func Pick(scored []routing.Scored) (winner *routing.Method, tied []*routing.Method, ok bool) {
	best := -1
	for _, s := range scored {
		adjusted := s.Score + len(s.Method.Injected())
		switch {
		case adjusted > best:
			best = adjusted
			tied = append(tied[:0], s.Method)
		case adjusted == best:
			tied = append(tied, s.Method)
		}
	}

	if len(tied) != 1 {
		return nil, tied, false
	}
	return tied[0], nil, true
}
