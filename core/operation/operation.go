// Package operation defines the closed set of lifecycle operations a data
// portal can dispatch to a business object.
package operation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anoideaopen/dataportal/core/stringsx"
)

// ErrUnknownKind is returned by Parse for a name that is not an operation kind.
var ErrUnknownKind = errors.New("unknown operation kind")

// Kind identifies the requested lifecycle operation.
type Kind int

// Operation kinds. Child kinds address objects owned by a parent object.
const (
	Create Kind = iota + 1
	Fetch
	Insert
	Update
	DeleteSelf
	Delete
	Execute
	CreateChild
	FetchChild
	InsertChild
	UpdateChild
	DeleteSelfChild
	ExecuteChild
)

const (
	childSuffix       = "Child"
	legacyRootPrefix  = "DataPortal"
	legacyChildPrefix = "Child"
)

var names = map[Kind]string{
	Create:          "Create",
	Fetch:           "Fetch",
	Insert:          "Insert",
	Update:          "Update",
	DeleteSelf:      "DeleteSelf",
	Delete:          "Delete",
	Execute:         "Execute",
	CreateChild:     "CreateChild",
	FetchChild:      "FetchChild",
	InsertChild:     "InsertChild",
	UpdateChild:     "UpdateChild",
	DeleteSelfChild: "DeleteSelfChild",
	ExecuteChild:    "ExecuteChild",
}

// Kinds returns every operation kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(names))
	for k := Create; k <= ExecuteChild; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := names[k]
	return ok
}

// String returns the marker name of the kind, e.g. "FetchChild".
func (k Kind) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsChild reports whether the kind addresses a child object.
func (k Kind) IsChild() bool {
	return k.Valid() && strings.HasSuffix(k.String(), childSuffix)
}

// Root returns the root-object kind corresponding to k.
func (k Kind) Root() Kind {
	if !k.IsChild() {
		return k
	}
	root, _ := Parse(k.Stem())
	return root
}

// Stem returns the marker name without the child suffix, e.g. "Fetch"
// for FetchChild.
func (k Kind) Stem() string {
	return strings.TrimSuffix(k.String(), childSuffix)
}

// LegacyName returns the conventional method name searched for when no
// method is explicitly marked for the kind: "DataPortalFetch" for Fetch and
// "ChildFetch" for FetchChild.
func (k Kind) LegacyName() string {
	if k.IsChild() {
		return legacyChildPrefix + k.Stem()
	}
	return legacyRootPrefix + k.Stem()
}

// Parse converts a marker name into a Kind. Matching is case-insensitive
// and accepts the legacy method names as well.
func Parse(s string) (Kind, error) {
	name := strings.TrimSpace(s)
	for k, n := range names {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}

	if stem, _, ok := stringsx.CutPrefix(name, legacyRootPrefix, legacyChildPrefix); ok {
		for k := range names {
			if k.Stem() == stem && k.LegacyName() == name {
				return k, nil
			}
		}
	}

	return 0, fmt.Errorf("%w: '%s'", ErrUnknownKind, s)
}
