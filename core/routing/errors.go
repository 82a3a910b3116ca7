package routing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/anoideaopen/dataportal/core/operation"
)

// Error kinds.
var (
	ErrNotFound          = errors.New("method not found")
	ErrParameterMismatch = errors.New("parameter count mismatch")
	ErrAmbiguous         = errors.New("ambiguous method match")
	ErrNotImplemented    = errors.New("method not implemented")
	ErrCallFailed        = errors.New("method call failed")
)

// ResolutionError reports why no single method could be resolved.
type ResolutionError struct {
	Err        error // One of ErrNotFound, ErrParameterMismatch or ErrAmbiguous.
	Type       reflect.Type
	Kind       operation.Kind
	Criteria   int      // Length of the criteria vector.
	Candidates []string // Signatures involved: all candidates, or the tied ones.
}

// NewResolutionError constructs a ResolutionError.
func NewResolutionError(err error, t reflect.Type, kind operation.Kind, criteria int, candidates ...*Method) *ResolutionError {
	sigs := make([]string, len(candidates))
	for i, c := range candidates {
		sigs[i] = c.String()
	}
	return &ResolutionError{Err: err, Type: t, Kind: kind, Criteria: criteria, Candidates: sigs}
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("%v: %s.%s with %d criteria", e.Err, TypeName(e.Type), e.Kind, e.Criteria)
	if len(e.Candidates) == 0 {
		return msg
	}
	return msg + ": candidates [" + strings.Join(e.Candidates, "; ") + "]"
}

// Is reports whether target is the error kind.
func (e *ResolutionError) Is(target error) bool {
	return e.Err == target
}

// Unwrap returns the error kind.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// CallError reports a failure raised by an invoked method.
type CallError struct {
	Type   string // Name of the type the method was called on.
	Method string
	Cause  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%v: %s.%s: %v", ErrCallFailed, e.Type, e.Method, e.Cause)
}

// Is matches ErrCallFailed.
func (e *CallError) Is(target error) bool {
	return target == ErrCallFailed
}

// Unwrap returns the cause.
func (e *CallError) Unwrap() error {
	return e.Cause
}
