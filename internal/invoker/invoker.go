package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/internal/resolver"
	"github.com/giantswarm/lantern/internal/telemetry"
	"github.com/giantswarm/lantern/pkg/logging"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Invoker validates, calls and parses operation invocations.
type Invoker struct {
	tracer  trace.Tracer
	metrics *telemetry.Metrics
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithTracer sets the tracer used for invocation spans.
func WithTracer(t trace.Tracer) Option {
	return func(i *Invoker) { i.tracer = t }
}

// WithMetrics records every invocation on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(i *Invoker) { i.metrics = m }
}

// New creates an Invoker. Without options it traces through the global
// tracer provider and records no metrics.
func New(opts ...Option) *Invoker {
	i := &Invoker{tracer: telemetry.Tracer()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Invoke calls the operation behind h with args.
//
// Invalid arguments fail with a ValidationError before the transport is
// touched. When the call reaches the server the returned result is non-nil,
// even if the server reported an error.
func (i *Invoker) Invoke(ctx context.Context, h *resolver.Handle, args map[string]any) (*api.InvocationResult, error) {
	op := h.Operation()
	id := uuid.NewString()
	start := time.Now()

	ctx, span := i.tracer.Start(ctx, fmt.Sprintf("invoke %s/%s", op.Server, op.Name),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("lantern.invocation.id", id),
			attribute.String("lantern.server", op.Server),
			attribute.String("lantern.operation", op.Name),
		),
	)
	defer span.End()

	result, err := i.invoke(ctx, h, op, args)
	elapsed := time.Since(start)

	if result != nil {
		result.ID = id
		result.Duration = elapsed
	}

	i.metrics.RecordInvocation(ctx, op.Server, op.Name, elapsed, err)
	span.SetAttributes(attribute.String("lantern.outcome", api.Classify(err)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Debug("Invoker", "Invocation %s of %s/%s failed after %s: %v", id, op.Server, op.Name, elapsed, err)
		return result, err
	}

	span.SetStatus(codes.Ok, "")
	logging.Debug("Invoker", "Invocation %s of %s/%s succeeded in %s", id, op.Server, op.Name, elapsed)
	return result, nil
}

func (i *Invoker) invoke(ctx context.Context, h *resolver.Handle, op api.Operation, args map[string]any) (*api.InvocationResult, error) {
	if err := Validate(op, args); err != nil {
		return nil, err
	}

	if args == nil {
		args = map[string]any{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, &api.ValidationError{
			Server:    op.Server,
			Operation: op.Name,
			Problems:  []string{fmt.Sprintf("arguments are not JSON encodable: %v", err)},
		}
	}

	env, err := h.Session().Invoke(ctx, op.Name, payload)
	if err != nil {
		if !api.IsCategorized(err) {
			err = &api.InvocationError{Server: op.Server, Operation: op.Name, Err: err}
		}
		return nil, err
	}

	return Extract(op.Server, op.Name, env)
}

// InvokeRequest resolves req and invokes it in one step.
func (i *Invoker) InvokeRequest(ctx context.Context, r *resolver.Resolver, req api.InvocationRequest) (*api.InvocationResult, error) {
	h, err := r.Resolve(req.Server, req.Operation)
	if err != nil {
		return nil, err
	}
	return i.Invoke(ctx, h, req.Arguments)
}
