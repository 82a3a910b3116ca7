package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/anoideaopen/dataportal/core/config"
	"github.com/anoideaopen/dataportal/core/factory"
	"github.com/anoideaopen/dataportal/core/inject"
	"github.com/anoideaopen/dataportal/core/logger"
	"github.com/anoideaopen/dataportal/core/operation"
	"github.com/anoideaopen/dataportal/core/routing"
	"github.com/anoideaopen/dataportal/core/routing/mux"
	rr "github.com/anoideaopen/dataportal/core/routing/reflect"
	"github.com/anoideaopen/dataportal/core/telemetry"
)

var (
	ErrNilTarget          = errors.New("nil target")
	ErrNoFactoryLoader    = errors.New("no factory loader configured")
	ErrConflictingOptions = errors.New("conflicting portal options")
)

// PortalOption represents a function that applies configuration options to
// a portalOptions object.
type PortalOption func(opts *portalOptions) error

// portalOptions holds the options for configuring a Portal instance.
type portalOptions struct {
	Router         routing.Router       // Router resolving and invoking methods.
	Registry       *rr.Registry         // Registry of the default reflection router.
	Provider       inject.Provider      // Default service provider.
	FactoryLoader  factory.Loader       // Loader of factory types and instances.
	Logger         logrus.FieldLogger   // Logger of the portal and its default router.
	TracerProvider trace.TracerProvider // Tracer provider of the portal and its default router.
	Config         *config.Config       // Portal, logging and tracing settings.
}

// WithRouter sets the router used by the portal. When it is not set the
// portal builds a reflection router from its other options. A custom router
// cannot be combined with WithRegistry or WithProvider, and the portal
// section of WithConfig does not apply to it.
func WithRouter(router routing.Router) PortalOption {
	return func(opts *portalOptions) error {
		opts.Router = router
		return nil
	}
}

// WithRouters combines several routers with a multiplexer; see
// [github.com/anoideaopen/dataportal/core/routing/mux].
func WithRouters(routers ...routing.Router) PortalOption {
	return func(opts *portalOptions) error {
		m, err := mux.NewRouter(routers...)
		if err != nil {
			return err
		}
		opts.Router = m
		return nil
	}
}

// WithRegistry sets the capability registry of the default router.
func WithRegistry(reg *rr.Registry) PortalOption {
	return func(opts *portalOptions) error {
		opts.Registry = reg
		return nil
	}
}

// WithProvider sets the service provider used when the dispatch context
// carries none.
func WithProvider(p inject.Provider) PortalOption {
	return func(opts *portalOptions) error {
		opts.Provider = p
		return nil
	}
}

// WithFactoryLoader sets the loader of factory types and instances.
func WithFactoryLoader(l factory.Loader) PortalOption {
	return func(opts *portalOptions) error {
		opts.FactoryLoader = l
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) PortalOption {
	return func(opts *portalOptions) error {
		opts.Logger = l
		return nil
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) PortalOption {
	return func(opts *portalOptions) error {
		opts.TracerProvider = tp
		return nil
	}
}

// WithConfig applies cfg. Its logging settings are used unless WithLogger is
// also given, its tracing settings install the global tracer provider unless
// WithTracerProvider is also given, and its portal settings configure the
// default router.
func WithConfig(cfg *config.Config) PortalOption {
	return func(opts *portalOptions) error {
		if cfg == nil {
			return nil
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		opts.Config = cfg
		return nil
	}
}

// Portal dispatches data portal operations to business objects.
type Portal struct {
	router routing.Router
	loader factory.Loader
	log    logrus.FieldLogger
	tracer trace.Tracer
}

// NewPortal creates a Portal with the given options.
//
// Example:
//
//	registry := reflect.NewRegistry().
//	    MustMark(reflect.TypeOf(Order{}), operation.Fetch, "FetchByID")
//
//	portal, err := core.NewPortal(core.WithRegistry(registry))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	order := &Order{}
//	if _, err = portal.Fetch(ctx, order, 42); err != nil {
//	    log.Fatal(err)
//	}
func NewPortal(options ...PortalOption) (*Portal, error) {
	opts := portalOptions{}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(&opts); err != nil {
			return nil, fmt.Errorf("reading opts: %w", err)
		}
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	log := opts.Logger
	switch {
	case log != nil:
	case opts.Config != nil:
		entry, err := cfg.Logger(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
		log = entry
	default:
		log = logger.Logger()
	}

	if opts.Config != nil && opts.TracerProvider == nil {
		tp, err := telemetry.InstallTraceProvider(cfg.CollectorEndpoint(), cfg.Tracing.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("installing trace provider: %w", err)
		}
		opts.TracerProvider = tp
	}

	router := opts.Router
	if router != nil && (opts.Registry != nil || opts.Provider != nil) {
		return nil, fmt.Errorf("%w: registry and provider configure the default router only", ErrConflictingOptions)
	}
	if router == nil {
		var err error
		router, err = rr.NewRouter(
			rr.WithRegistry(opts.Registry),
			rr.WithFactoryLoader(opts.FactoryLoader),
			rr.WithProvider(opts.Provider),
			rr.WithLogger(log),
			rr.WithTracerProvider(opts.TracerProvider),
			rr.WithLegacyNames(cfg.Portal.LegacyNames),
			rr.WithCaching(cfg.Portal.Caching),
		)
		if err != nil {
			return nil, fmt.Errorf("creating router: %w", err)
		}
	}

	return &Portal{
		router: router,
		loader: opts.FactoryLoader,
		log:    log,
		tracer: telemetry.Tracer(opts.TracerProvider),
	}, nil
}

// Router returns the router of the portal.
func (p *Portal) Router() routing.Router {
	return p.router
}

// Dispatch resolves the method of target handling kind for criteria and
// invokes it. When the method is declared on a factory, a fresh factory
// instance is loaded and invoked in place of target.
func (p *Portal) Dispatch(ctx context.Context, target any, kind operation.Kind, criteria ...any) (result any, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	callID := uuid.NewString()
	typeName := "<nil>"
	if target != nil {
		typeName = routing.TypeName(reflect.TypeOf(target))
	}

	ctx, span := telemetry.StartSpan(ctx, p.tracer, "dataportal.dispatch",
		telemetry.Operation(kind),
		telemetry.Type(typeName),
		telemetry.Criteria(len(criteria)),
		telemetry.CallID(callID),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	log := p.log.WithFields(logrus.Fields{
		"call_id": callID,
		"type":    typeName,
		"kind":    kind.String(),
	})

	if target == nil {
		return nil, ErrNilTarget
	}

	h, err := p.router.Resolve(reflect.TypeOf(target), kind, criteria...)
	if err != nil {
		log.WithError(err).Debug("resolving method")
		return nil, err
	}
	log = log.WithField("method", h.Method().Name)

	receiver := target
	if m := h.Method(); m.Factory {
		if p.loader == nil {
			return nil, fmt.Errorf("%w: factory '%s'", ErrNoFactoryLoader, m.FactoryName)
		}
		if receiver, err = p.loader.Load(m.FactoryName); err != nil {
			log.WithError(err).Error("loading factory")
			return nil, err
		}
	}

	result, err = p.router.Invoke(ctx, receiver, h, criteria...)
	if err != nil {
		log.WithError(err).Debug("invoking method")
		return nil, err
	}

	log.Debug("dispatched")
	return result, nil
}

// Create dispatches operation.Create.
func (p *Portal) Create(ctx context.Context, target any, criteria ...any) (any, error) {
	return p.Dispatch(ctx, target, operation.Create, criteria...)
}

// Fetch dispatches operation.Fetch.
func (p *Portal) Fetch(ctx context.Context, target any, criteria ...any) (any, error) {
	return p.Dispatch(ctx, target, operation.Fetch, criteria...)
}

// Update dispatches operation.Update.
func (p *Portal) Update(ctx context.Context, target any, criteria ...any) (any, error) {
	return p.Dispatch(ctx, target, operation.Update, criteria...)
}

// Delete dispatches operation.Delete.
func (p *Portal) Delete(ctx context.Context, target any, criteria ...any) (any, error) {
	return p.Dispatch(ctx, target, operation.Delete, criteria...)
}

// Execute dispatches operation.Execute.
func (p *Portal) Execute(ctx context.Context, target any, criteria ...any) (any, error) {
	return p.Dispatch(ctx, target, operation.Execute, criteria...)
}
