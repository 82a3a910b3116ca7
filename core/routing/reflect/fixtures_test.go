package reflect

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/anoideaopen/dataportal/core/async"
	"github.com/anoideaopen/dataportal/core/operation"
	"github.com/anoideaopen/dataportal/core/routing"
)

var errBoom = errors.New("boom")

type Repo interface {
	Load(id int) string
}

type memRepo struct{ name string }

func (m *memRepo) Load(id int) string { return fmt.Sprintf("%s:%d", m.name, id) }

type Clock interface {
	Now() string
}

type fixedClock string

func (c fixedClock) Now() string { return string(c) }

// Widget has two Fetch overloads with primitive slots.
type Widget struct {
	ID   int
	Code string
}

func (w *Widget) FetchByID(id int) (*Widget, error) {
	w.ID = id
	return w, nil
}

func (w *Widget) FetchByCode(code string) *Widget {
	w.Code = code
	return w
}

// label implements fmt.Stringer.
type label string

func (l label) String() string { return string(l) }

// Gadget competes exact against assignable and nil-friendly slots.
type Gadget struct{ Hit string }

func (g *Gadget) ByLabel(l label) string { g.Hit = "label"; return g.Hit }

func (g *Gadget) ByStringer(s fmt.Stringer) string { g.Hit = "stringer"; return g.Hit }

func (g *Gadget) ByPointer(p *int) string { g.Hit = "pointer"; return g.Hit }

func (g *Gadget) ByAny(v any) string { g.Hit = "any"; return g.Hit }

func (g *Gadget) ByInt(n int) string { g.Hit = "int"; return g.Hit }

func (g *Gadget) ByRest(first string, rest ...any) []any {
	g.Hit = "rest"
	return append([]any{first}, rest...)
}

func (g *Gadget) ByAll(all ...any) []any { g.Hit = "all"; return all }

// Maker has Create overloads differing only in injected parameters.
type Maker struct {
	Repo  Repo
	Clock Clock
	Made  string
}

func (m *Maker) CreateDefault() string { m.Made = "default"; return m.Made }

func (m *Maker) CreateWithRepo(repo Repo) string {
	m.Repo = repo
	m.Made = "repo"
	return m.Made
}

func (m *Maker) CreateWithClock(clock Clock) string {
	m.Clock = clock
	m.Made = "clock"
	return m.Made
}

func (m *Maker) CreateFrom(anything any) string { m.Made = "object"; return m.Made }

func (m *Maker) CreateMixed(id int, repo Repo, code string, clock Clock) string {
	m.Repo, m.Clock = repo, clock
	m.Made = fmt.Sprintf("%d/%s", id, code)
	return m.Made
}

// Document is a base level used through embedding.
type Document struct {
	Deleted []string
}

func (d *Document) DataPortalDelete(id int) error {
	d.Deleted = append(d.Deleted, fmt.Sprintf("document:%d", id))
	return nil
}

func (d *Document) DataPortalFetch() string { return "document" }

// Invoice shadows the base legacy method with another signature.
type Invoice struct {
	Document
	Number string
}

func (i *Invoice) DataPortalDelete(number string) error {
	i.Number = number
	i.Deleted = append(i.Deleted, "invoice:"+number)
	return nil
}

// Receipt inherits the legacy method unchanged.
type Receipt struct {
	Document
}

// LineItem is a child object with legacy child methods.
type LineItem struct {
	Qty int
}

func (l *LineItem) ChildFetch(qty int) { l.Qty = qty }

func (l *LineItem) DataPortalFetch(qty int) { l.Qty = -qty }

// Account and Savings exercise marked methods along the chain.
type Account struct {
	Loaded string
}

func (a *Account) Load(id int) string {
	a.Loaded = fmt.Sprintf("account:%d", id)
	return a.Loaded
}

type Savings struct {
	Account
	Rate float64
}

func (s *Savings) LoadWithRate(id int, rate float64) string {
	s.Rate = rate
	s.Loaded = fmt.Sprintf("savings:%d", id)
	return s.Loaded
}

// OrderBase is reached through an embedded pointer.
type OrderBase struct {
	Saved bool
}

func (o *OrderBase) Save() bool {
	o.Saved = true
	return o.Saved
}

type Order struct {
	*OrderBase
}

// Ledger embeds a capability-free struct ahead of its base.
type Ledger struct {
	sync.Mutex
	Account
}

// draft is an unexported base and never part of a chain.
type draft struct{}

func (d *draft) DataPortalFetch(id int) string { return "draft" }

type Memo struct {
	draft
}

// Late delegates to a factory registered after the first resolution.
type Late struct{}

func (Late) ObjectFactory() routing.FactoryDescriptor {
	return routing.FactoryDescriptor{Name: "late"}
}

type lateFactory struct{}

func (f *lateFactory) Fetch(id int) int { return id }

// Customer delegates to a factory.
type Customer struct{}

func (Customer) ObjectFactory() routing.FactoryDescriptor {
	return routing.FactoryDescriptor{Name: "customers", FetchMethod: "Get"}
}

func (c *Customer) DataPortalFetch(id int) string { return "business object" }

type customerFactory struct{}

func (f *customerFactory) Get(repo Repo, id int) (string, error) {
	if repo == nil {
		return "", errBoom
	}
	return repo.Load(id), nil
}

func (f *customerFactory) Create() string { return "new customer" }

// VIPCustomer inherits the factory marker through embedding.
type VIPCustomer struct {
	Customer
}

// Job covers the return conventions.
type Job struct {
	Ran bool
}

func (j *Job) Nothing() { j.Ran = true }

func (j *Job) Value(n int) int { return n * 2 }

func (j *Job) Pair() (int, string, error) { return 1, "one", nil }

func (j *Job) Fail() error { return errBoom }

func (j *Job) FailValue() (int, error) { return 0, fmt.Errorf("wrapped: %w", errBoom) }

func (j *Job) Explode() { panic(errBoom) }

func (j *Job) ExplodeText() { panic("text panic") }

func (j *Job) Background() async.Task {
	return async.Go(func() error {
		j.Ran = true
		return nil
	})
}

func (j *Job) BackgroundFail() async.Task {
	return async.Go(func() error { return errBoom })
}

func (j *Job) Notify() <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	close(ch)
	return ch
}

func (j *Job) Compute(n int) *async.Promise[int] {
	return async.Async(func() (int, error) { return n * 3, nil })
}

func (j *Job) ComputePanics() *async.Promise[int] {
	return async.Async(func() (int, error) { panic(errBoom) })
}

func (j *Job) ComputeNil() *async.Promise[int] { return nil }

func (j *Job) Stuck() async.Task { return explodingTask{} }

func (j *Job) Unsettled() async.Future { return explodingFuture{} }

// explodingTask panics while being waited for.
type explodingTask struct{}

func (explodingTask) Wait(context.Context) error { panic(errBoom) }

type explodingFuture struct{}

func (explodingFuture) Await(context.Context) (any, error) { panic("await exploded") }

func (j *Job) Wait(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (j *Job) WithContext(ctx context.Context, key string) any {
	return ctx.Value(ctxKey(key))
}

type ctxKey string

// quietRouter builds a router logging to a null logger.
func quietRouter(t *testing.T, opts ...Option) (*Router, *logtest.Hook) {
	t.Helper()

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	r, err := NewRouter(append([]Option{WithLogger(log)}, opts...)...)
	require.NoError(t, err)
	return r, hook
}

// single builds a router where only method of v is marked for kind and
// resolves it for criteria.
func single(t *testing.T, v any, method string, criteria ...any) (*Router, *routing.Handle) {
	t.Helper()

	r, _ := quietRouter(t)
	r.Registry().MustMark(reflect.TypeOf(v), operation.Execute, method)
	h, err := r.Resolve(reflect.TypeOf(v), operation.Execute, criteria...)
	require.NoError(t, err)
	return r, h
}
