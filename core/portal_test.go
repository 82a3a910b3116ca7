package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/anoideaopen/dataportal/core/async"
	"github.com/anoideaopen/dataportal/core/config"
	"github.com/anoideaopen/dataportal/core/factory"
	"github.com/anoideaopen/dataportal/core/inject"
	"github.com/anoideaopen/dataportal/core/operation"
	"github.com/anoideaopen/dataportal/core/routing"
	rr "github.com/anoideaopen/dataportal/core/routing/reflect"
	"github.com/anoideaopen/dataportal/core/telemetry"
)

var errOutOfStock = errors.New("out of stock")

type OrderRepo interface {
	Find(id int) (string, error)
}

type orderRepo map[int]string

func (r orderRepo) Find(id int) (string, error) {
	code, ok := r[id]
	if !ok {
		return "", fmt.Errorf("order %d not found", id)
	}
	return code, nil
}

type Order struct {
	ID      int
	Code    string
	Shipped bool
}

func (o *Order) FetchByID(repo OrderRepo, id int) error {
	code, err := repo.Find(id)
	if err != nil {
		return err
	}
	o.ID, o.Code = id, code
	return nil
}

func (o *Order) FetchByCode(code string) *async.Promise[*Order] {
	return async.Async(func() (*Order, error) {
		o.Code = code
		return o, nil
	})
}

func (o *Order) Ship() async.Task {
	return async.Go(func() error {
		if o.Code == "" {
			return errOutOfStock
		}
		o.Shipped = true
		return nil
	})
}

func (o *Order) DataPortalCreate() { o.Code = "NEW" }

func (o *Order) DataPortalUpdate(code string) { o.Code = code }

func (o *Order) DataPortalDelete(id int) {}

// Product delegates to the products factory.
type Product struct {
	SKU string
}

func (Product) ObjectFactory() routing.FactoryDescriptor {
	return routing.FactoryDescriptor{Name: "products", FetchMethod: "Find"}
}

type productFactory struct{}

func (f *productFactory) Find(sku string) *Product { return &Product{SKU: sku} }

func newTestPortal(t *testing.T, opts ...PortalOption) (*Portal, *logtest.Hook) {
	t.Helper()

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	registry := rr.NewRegistry().
		MustMark(reflect.TypeOf(Order{}), operation.Fetch, "FetchByID", rr.Inject(0)).
		MustMark(reflect.TypeOf(Order{}), operation.Fetch, "FetchByCode").
		MustMark(reflect.TypeOf(Order{}), operation.Execute, "Ship")

	p, err := NewPortal(append([]PortalOption{
		WithLogger(log),
		WithRegistry(registry),
		WithProvider(inject.Provide[OrderRepo](inject.NewMapProvider(), orderRepo{42: "A-42"})),
	}, opts...)...)
	require.NoError(t, err)
	return p, hook
}

func TestPortalOperations(t *testing.T) {
	p, _ := newTestPortal(t)
	ctx := context.Background()

	o := &Order{}
	res, err := p.Fetch(ctx, o, 42)
	require.NoError(t, err)
	require.Nil(t, res)
	require.Equal(t, Order{ID: 42, Code: "A-42"}, *o)

	o = &Order{}
	res, err = p.Fetch(ctx, o, "B-7")
	require.NoError(t, err)
	require.Same(t, o, res)
	require.Equal(t, "B-7", o.Code)

	_, err = p.Execute(ctx, o)
	require.NoError(t, err)
	require.True(t, o.Shipped)

	o = &Order{}
	_, err = p.Create(ctx, o)
	require.NoError(t, err)
	require.Equal(t, "NEW", o.Code)

	_, err = p.Update(ctx, o, "C-1")
	require.NoError(t, err)
	require.Equal(t, "C-1", o.Code)

	_, err = p.Delete(ctx, o, 1)
	require.NoError(t, err)
}

func TestPortalErrors(t *testing.T) {
	p, hook := newTestPortal(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		target   any
		kind     operation.Kind
		criteria []any
		wantErr  error
	}{
		{name: "nil target", kind: operation.Fetch, wantErr: ErrNilTarget},
		{name: "not found", target: &Order{}, kind: operation.Insert, wantErr: routing.ErrNotFound},
		{name: "parameter mismatch", target: &Order{}, kind: operation.Fetch, criteria: []any{nil}, wantErr: routing.ErrParameterMismatch},
		{name: "call failed", target: &Order{}, kind: operation.Fetch, criteria: []any{7}, wantErr: routing.ErrCallFailed},
		{name: "innermost cause", target: &Order{}, kind: operation.Execute, wantErr: errOutOfStock},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			hook.Reset()

			_, err := p.Dispatch(ctx, test.target, test.kind, test.criteria...)
			require.ErrorIs(t, err, test.wantErr)

			if test.target == nil {
				return
			}
			entry := hook.LastEntry()
			require.NotNil(t, entry)
			_, err = uuid.Parse(entry.Data["call_id"].(string))
			require.NoError(t, err)
		})
	}
}

func TestPortalAmbientProvider(t *testing.T) {
	p, _ := newTestPortal(t)

	ctx := inject.WithProvider(context.Background(),
		inject.Provide[OrderRepo](inject.NewMapProvider(), orderRepo{42: "CTX-42"}))

	o := &Order{}
	_, err := p.Fetch(ctx, o, 42)
	require.NoError(t, err)
	require.Equal(t, "CTX-42", o.Code)
}

func TestPortalFactory(t *testing.T) {
	loader := factory.NewRegistry().
		MustRegister("products", func() any { return &productFactory{} })

	p, _ := newTestPortal(t, WithFactoryLoader(loader))

	res, err := p.Fetch(context.Background(), &Product{}, "SKU-1")
	require.NoError(t, err)
	require.Equal(t, &Product{SKU: "SKU-1"}, res)

	_, err = p.Delete(context.Background(), &Product{}, "SKU-1")
	require.ErrorIs(t, err, routing.ErrNotFound)
}

func TestPortalFactoryWithoutLoader(t *testing.T) {
	loader := factory.NewRegistry().
		MustRegister("products", func() any { return &productFactory{} })
	router := rr.MustNewRouter(rr.WithFactoryLoader(loader))
	router.Registry().MustMark(reflect.TypeOf(Order{}), operation.Execute, "Ship")

	p, err := NewPortal(WithRouter(router))
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), &Product{}, "SKU-1")
	require.ErrorIs(t, err, ErrNoFactoryLoader)
}

func TestPortalConflictingOptions(t *testing.T) {
	router := rr.MustNewRouter()

	_, err := NewPortal(WithRouter(router), WithRegistry(rr.NewRegistry()))
	require.ErrorIs(t, err, ErrConflictingOptions)

	_, err = NewPortal(WithRouter(router), WithProvider(inject.NewMapProvider()))
	require.ErrorIs(t, err, ErrConflictingOptions)

	_, err = NewPortal(WithRouter(router), WithConfig(config.Default()), WithLogger(logrus.New()))
	require.NoError(t, err)
}

func TestPortalTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	p, _ := newTestPortal(t, WithTracerProvider(tp))

	_, err := p.Fetch(context.Background(), &Order{}, 42)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	invoke, dispatch := spans[0], spans[1]
	require.Equal(t, "dataportal.invoke", invoke.Name())
	require.Equal(t, "dataportal.dispatch", dispatch.Name())
	require.Equal(t, dispatch.SpanContext().SpanID(), invoke.Parent().SpanID())

	attrs := make(map[string]string)
	for _, kv := range dispatch.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "Fetch", attrs[string(telemetry.OperationKey)])
	require.Equal(t, "core.Order", attrs[string(telemetry.TypeKey)])
	require.NotEmpty(t, attrs[string(telemetry.CallIDKey)])
}

func TestPortalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Portal.LegacyNames = false

	p, _ := newTestPortal(t, WithConfig(cfg))
	_, err := p.Create(context.Background(), &Order{})
	require.ErrorIs(t, err, routing.ErrNotFound)

	cfg = config.Default()
	cfg.Logging.Level = "loud"
	_, err = NewPortal(WithConfig(cfg))
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestPortalConfigTracing(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	// Without an endpoint the configured provider is a noop one.
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	p, _ := newTestPortal(t, WithConfig(config.Default()))
	require.IsType(t, noop.TracerProvider{}, otel.GetTracerProvider())

	_, err := p.Fetch(context.Background(), &Order{}, 42)
	require.NoError(t, err)

	// An explicit provider wins over the configuration.
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	p, _ = newTestPortal(t, WithConfig(config.Default()), WithTracerProvider(tp))
	require.IsType(t, noop.TracerProvider{}, otel.GetTracerProvider())

	_, err = p.Fetch(context.Background(), &Order{}, 42)
	require.NoError(t, err)
	require.Len(t, recorder.Ended(), 2)

	cfg := config.Default()
	cfg.Tracing.Endpoint = "localhost:4318"
	cfg.Tracing.CACertsBase64 = "not base64!"
	_, err = NewPortal(WithConfig(cfg))
	require.ErrorContains(t, err, "installing trace provider")
}

func TestPortalRouters(t *testing.T) {
	marked := rr.MustNewRouter(rr.WithLegacyNames(false))
	marked.Registry().MustMark(reflect.TypeOf(Order{}), operation.Execute, "Ship")
	legacy := rr.MustNewRouter()

	p, err := NewPortal(WithRouters(marked, legacy))
	require.NoError(t, err)

	o := &Order{Code: "A"}
	_, err = p.Execute(context.Background(), o)
	require.NoError(t, err)
	require.True(t, o.Shipped)

	_, err = p.Create(context.Background(), o)
	require.NoError(t, err)
	require.Equal(t, "NEW", o.Code)

	_, err = NewPortal(WithRouters())
	require.Error(t, err)
}
