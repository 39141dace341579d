package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry bundles what a service needs to instrument its operations.
type Telemetry struct {
	Service string
	Logger  *slog.Logger
	Metrics Metrics
	Tracer  trace.Tracer
}

// NewTelemetry fills in defaults for missing collaborators.
func NewTelemetry(service string, logger *slog.Logger, metrics Metrics, tracer trace.Tracer) Telemetry {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NoOpMetrics{}
	}
	return Telemetry{Service: service, Logger: logger, Metrics: metrics, Tracer: tracer}
}

// OperationFunc is the generic signature for service operation functions.
type OperationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// RunOperation wraps a service operation with tracing, metrics, and panic recovery.
func RunOperation[S any, F any](
	ctx context.Context,
	tel Telemetry,
	operationName string,
	identifier string,
	op OperationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if tel.Tracer != nil {
		ctx, span = tel.Tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	tel.Metrics.RecordOperationAttempt(ctx, operationName, tel.Service)

	startTime := time.Now()
	defer func() {
		tel.Metrics.RecordOperationDuration(ctx, operationName, tel.Service, time.Since(startTime))
	}()

	tel.Logger.InfoContext(ctx, "Operation triggered",
		ExtractCorrelationID(ctx),
		slog.String("operation", operationName),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			tel.Logger.ErrorContext(ctx, "Critical panic recovered",
				ExtractCorrelationID(ctx),
				slog.String("identifier", identifier),
				Error(err),
			)
			tel.Metrics.RecordOperationFailure(ctx, operationName, tel.Service)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		tel.Logger.ErrorContext(ctx, "Operation failed with error",
			ExtractCorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			Error(wrappedErr),
		)
		tel.Metrics.RecordOperationFailure(ctx, operationName, tel.Service)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		tel.Logger.WarnContext(ctx, "Operation returned failure result",
			ExtractCorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		tel.Logger.InfoContext(ctx, "Operation completed successfully",
			ExtractCorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
		)
	}

	tel.Metrics.RecordOperationSuccess(ctx, operationName, tel.Service)
	return result, nil
}
