package reflect

import (
	"context"
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/anoideaopen/dataportal/core/factory"
	"github.com/anoideaopen/dataportal/core/inject"
	"github.com/anoideaopen/dataportal/core/logger"
	"github.com/anoideaopen/dataportal/core/operation"
	"github.com/anoideaopen/dataportal/core/routing"
	"github.com/anoideaopen/dataportal/core/telemetry"
)

var _ routing.Router = (*Router)(nil)

// Router resolves and invokes business object methods using a capability
// Registry and reflection.
type Router struct {
	registry    *Registry
	loader      factory.Loader
	provider    inject.Provider
	log         logrus.FieldLogger
	tracer      trace.Tracer
	legacyNames bool
	caching     bool

	candidates *cache[candidateKey, discovered]
	handles    *cache[resolutionKey, *routing.Handle]
}

type discovered struct {
	methods  []*routing.Method
	strategy Strategy
}

// Option configures a Router.
type Option func(r *Router) error

// WithRegistry sets the capability registry. By default the router owns a
// fresh empty registry.
func WithRegistry(reg *Registry) Option {
	return func(r *Router) error {
		if reg != nil {
			r.registry = reg
		}
		return nil
	}
}

// WithFactoryLoader sets the loader used for factory delegation.
func WithFactoryLoader(l factory.Loader) Option {
	return func(r *Router) error {
		r.loader = l
		return nil
	}
}

// WithProvider sets the service provider used when the invocation context
// carries none.
func WithProvider(p inject.Provider) Option {
	return func(r *Router) error {
		r.provider = p
		return nil
	}
}

// WithLogger sets the logger. By default logger.Logger() is used.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Router) error {
		if l != nil {
			r.log = l
		}
		return nil
	}
}

// WithTracerProvider sets the tracer provider. By default the global one is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Router) error {
		r.tracer = telemetry.Tracer(tp)
		return nil
	}
}

// WithLegacyNames enables or disables the legacy method-name fallback.
// It is enabled by default.
func WithLegacyNames(enabled bool) Option {
	return func(r *Router) error {
		r.legacyNames = enabled
		return nil
	}
}

// WithCaching enables or disables memoization of discovery and resolution.
// It is enabled by default.
func WithCaching(enabled bool) Option {
	return func(r *Router) error {
		r.caching = enabled
		return nil
	}
}

// NewRouter creates a Router with the given options.
func NewRouter(opts ...Option) (*Router, error) {
	r := &Router{
		registry:    NewRegistry(),
		legacyNames: true,
		caching:     true,
		candidates:  newCache[candidateKey, discovered](),
		handles:     newCache[resolutionKey, *routing.Handle](),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.log == nil {
		r.log = logger.Logger()
	}
	if r.tracer == nil {
		r.tracer = telemetry.Tracer(nil)
	}
	return r, nil
}

// MustNewRouter creates a new Router instance with the given options and
// panics if an error occurs.
func MustNewRouter(opts ...Option) *Router {
	r, err := NewRouter(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Registry returns the capability registry of the router.
func (r *Router) Registry() *Registry {
	return r.registry
}

// Resolve selects the method of targetType handling kind for criteria.
//
// Candidates are discovered, scored against criteria and disambiguated.
// The result is a *routing.ResolutionError matching routing.ErrNotFound when
// no candidate exists, routing.ErrParameterMismatch when no candidate
// accepts criteria, and routing.ErrAmbiguous when several candidates tie.
func (r *Router) Resolve(targetType reflect.Type, kind operation.Kind, criteria ...any) (*routing.Handle, error) {
	if targetType == nil {
		return nil, routing.NewResolutionError(routing.ErrNotFound, nil, kind, len(criteria))
	}
	targetType = baseType(targetType)

	gen := r.registry.Generation()
	key := resolutionKey{typ: targetType, kind: kind, criteria: criteriaKey(criteria)}
	if r.caching {
		if h, ok := r.handles.get(gen, key); ok {
			return h, nil
		}
	}

	log := r.log.WithFields(logrus.Fields{
		"type":     routing.TypeName(targetType),
		"kind":     kind.String(),
		"criteria": len(criteria),
	})

	found := r.discover(gen, targetType, kind)
	if len(found.methods) == 0 {
		err := routing.NewResolutionError(routing.ErrNotFound, targetType, kind, len(criteria))
		log.WithError(err).Debug("no candidate methods")
		return nil, err
	}

	scored := ScoreAll(found.methods, criteria)
	if len(scored) == 0 {
		err := routing.NewResolutionError(routing.ErrParameterMismatch, targetType, kind, len(criteria), found.methods...)
		log.WithError(err).Debug("no candidate accepts criteria")
		return nil, err
	}

	winner, tied, ok := Pick(scored)
	if !ok {
		err := routing.NewResolutionError(routing.ErrAmbiguous, targetType, kind, len(criteria), tied...)
		log.WithError(err).Debug("ambiguous candidates")
		return nil, err
	}

	rm, _ := reflect.PointerTo(winner.DeclaringType).MethodByName(winner.Name)
	h := routing.NewHandle(r, winner, rm.Func)
	if r.caching {
		r.handles.put(gen, key, h)
	}

	log.WithField("strategy", string(found.strategy)).Debugf("resolved %s", h)
	return h, nil
}

func (r *Router) discover(gen uint64, targetType reflect.Type, kind operation.Kind) discovered {
	key := candidateKey{typ: targetType, kind: kind}
	if r.caching {
		if d, ok := r.candidates.get(gen, key); ok {
			return d
		}
	}

	methods, strategy := r.Discover(targetType, kind)
	d := discovered{methods: methods, strategy: strategy}
	// Factory results also depend on the loader, which may learn the
	// factory later.
	if r.caching && (strategy != StrategyFactory || len(methods) > 0) {
		r.candidates.put(gen, key, d)
	}
	return d
}

// Invoke calls the method behind h on target. See Call for the calling
// convention. A nil handle yields routing.ErrNotImplemented before any
// argument is assembled; every other failure is a *routing.CallError.
func (r *Router) Invoke(ctx context.Context, target any, h *routing.Handle, criteria ...any) (result any, err error) {
	if h == nil || h.Method() == nil {
		return nil, fmt.Errorf("%w: %s", routing.ErrNotImplemented, typeNameOf(target))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m := h.Method()
	ctx, span := telemetry.StartSpan(ctx, r.tracer, "dataportal.invoke",
		telemetry.Operation(m.Kind),
		telemetry.Type(routing.TypeName(m.DeclaringType)),
		telemetry.Method(m.Signature()),
		telemetry.Criteria(len(criteria)),
		telemetry.Factory(m.Factory),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	provider, ok := inject.FromContext(ctx)
	if !ok {
		provider = r.provider
	}

	result, err = Call(ctx, provider, target, h, criteria)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"type":   routing.TypeName(m.DeclaringType),
			"kind":   m.Kind.String(),
			"method": m.Name,
		}).WithError(err).Error("data portal call failed")
	}
	return result, err
}
