package reflect

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/dataportal/core/operation"
	"github.com/anoideaopen/dataportal/core/routing"
)

func TestRegistryMark(t *testing.T) {
	widget := reflect.TypeOf(Widget{})

	tests := []struct {
		name    string
		typ     reflect.Type
		kind    operation.Kind
		method  string
		opts    []MarkOption
		wantErr error
	}{
		{name: "value type", typ: widget, kind: operation.Fetch, method: "FetchByID"},
		{name: "pointer type", typ: reflect.TypeOf(&Widget{}), kind: operation.Fetch, method: "FetchByCode"},
		{name: "nil type", kind: operation.Fetch, method: "FetchByID", wantErr: ErrNilType},
		{name: "invalid kind", typ: widget, kind: operation.Kind(0), method: "FetchByID", wantErr: ErrInvalidKind},
		{name: "unknown method", typ: widget, kind: operation.Fetch, method: "Missing", wantErr: ErrMethodNotFound},
		{name: "inject out of range", typ: widget, kind: operation.Fetch, method: "FetchByID", opts: []MarkOption{Inject(1)}, wantErr: ErrInjectOutOfRange},
		{name: "negative inject", typ: widget, kind: operation.Fetch, method: "FetchByID", opts: []MarkOption{Inject(-1)}, wantErr: ErrInjectOutOfRange},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := NewRegistry().Mark(test.typ, test.kind, test.method, test.opts...)
			if test.wantErr != nil {
				require.ErrorIs(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegistryMarkTwice(t *testing.T) {
	r := NewRegistry()
	typ := reflect.TypeOf(Widget{})

	require.NoError(t, r.Mark(typ, operation.Fetch, "FetchByID"))
	require.ErrorIs(t, r.Mark(reflect.TypeOf(&Widget{}), operation.Fetch, "FetchByID"), ErrMethodAlreadyMarked)

	// The same method may handle another kind.
	require.NoError(t, r.Mark(typ, operation.FetchChild, "FetchByID"))
	require.Equal(t, []string{"FetchByID"}, r.Marked(typ, operation.Fetch))
	require.Equal(t, []string{"FetchByID"}, r.Marked(typ, operation.FetchChild))
}

func TestRegistryMarkedPerLevel(t *testing.T) {
	r := NewRegistry().
		MustMark(reflect.TypeOf(Account{}), operation.Fetch, "Load").
		MustMark(reflect.TypeOf(Savings{}), operation.Fetch, "LoadWithRate")

	require.Equal(t, []string{"Load"}, r.Marked(reflect.TypeOf(Account{}), operation.Fetch))
	require.Equal(t, []string{"LoadWithRate"}, r.Marked(reflect.TypeOf(&Savings{}), operation.Fetch))
	require.Empty(t, r.Marked(reflect.TypeOf(Savings{}), operation.Create))
	require.Empty(t, r.Marked(nil, operation.Fetch))
}

func TestRegistryInject(t *testing.T) {
	r := NewRegistry()
	typ := reflect.TypeOf(Maker{})

	require.NoError(t, r.Mark(typ, operation.Create, "CreateMixed", Inject(3, 1)))
	require.Equal(t, []int{1, 3}, r.InjectedParams(typ, "CreateMixed"))
	require.Empty(t, r.InjectedParams(typ, "CreateDefault"))

	require.NoError(t, r.Inject(reflect.TypeOf(&customerFactory{}), "Get", 0))
	require.Equal(t, []int{0}, r.InjectedParams(reflect.TypeOf(customerFactory{}), "Get"))

	require.ErrorIs(t, r.Inject(nil, "Get", 0), ErrNilType)
	require.ErrorIs(t, r.Inject(typ, "Nope", 0), ErrMethodNotFound)
}

func TestRegistryFactory(t *testing.T) {
	r := NewRegistry()

	d, ok := r.factoryOf(reflect.TypeOf(Customer{}))
	require.True(t, ok)
	require.Equal(t, "customers", d.Name)

	// Marker promoted through embedding.
	d, ok = r.factoryOf(reflect.TypeOf(&VIPCustomer{}))
	require.True(t, ok)
	require.Equal(t, "customers", d.Name)

	_, ok = r.factoryOf(reflect.TypeOf(Widget{}))
	require.False(t, ok)

	require.NoError(t, r.Factory(reflect.TypeOf(Widget{}), routing.FactoryDescriptor{Name: "widgets"}))
	d, ok = r.factoryOf(reflect.TypeOf(Widget{}))
	require.True(t, ok)
	require.Equal(t, "widgets", d.Name)

	require.ErrorIs(t, r.Factory(nil, routing.FactoryDescriptor{}), ErrNilType)
}

func TestRegistryGeneration(t *testing.T) {
	r := NewRegistry()
	gen := r.Generation()

	require.NoError(t, r.Mark(reflect.TypeOf(Widget{}), operation.Fetch, "FetchByID"))
	require.Greater(t, r.Generation(), gen)

	gen = r.Generation()
	require.Error(t, r.Mark(reflect.TypeOf(Widget{}), operation.Fetch, "FetchByID"))
	require.Equal(t, gen, r.Generation())
}

func TestChain(t *testing.T) {
	r, _ := quietRouter(t)

	require.Equal(t,
		[]reflect.Type{reflect.TypeOf(Savings{}), reflect.TypeOf(Account{})},
		r.Chain(reflect.TypeOf(&Savings{})),
	)
	require.Equal(t,
		[]reflect.Type{reflect.TypeOf(Order{}), reflect.TypeOf(OrderBase{})},
		r.Chain(reflect.TypeOf(Order{})),
	)
	require.Equal(t, []reflect.Type{reflect.TypeOf(Widget{})}, r.Chain(reflect.TypeOf(Widget{})))
	require.Equal(t, []reflect.Type{reflect.TypeOf(0)}, r.Chain(reflect.TypeOf(0)))
	require.Equal(t, []reflect.Type{reflect.TypeOf(Memo{})}, r.Chain(reflect.TypeOf(Memo{})))
}

func TestChainPrefersCapableBase(t *testing.T) {
	r, _ := quietRouter(t)

	// Nothing is known about Account yet.
	require.Equal(t,
		[]reflect.Type{reflect.TypeOf(Ledger{}), reflect.TypeOf(sync.Mutex{})},
		r.Chain(reflect.TypeOf(Ledger{})),
	)

	r.Registry().MustMark(reflect.TypeOf(Account{}), operation.Fetch, "Load")
	require.Equal(t,
		[]reflect.Type{reflect.TypeOf(Ledger{}), reflect.TypeOf(Account{})},
		r.Chain(reflect.TypeOf(Ledger{})),
	)
}
