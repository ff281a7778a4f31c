package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldBatchID is the standardized structured logging key for batch identifiers.
	FieldBatchID = "batch_id"
	// FieldBoxID is the standardized structured logging key for box identifiers.
	FieldBoxID = "box_id"
	// FieldPieceID is the standardized structured logging key for piece identifiers.
	FieldPieceID = "piece_id"
	// FieldOperationID correlates every line logged by one mutating service call.
	FieldOperationID = "operation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey string

const (
	operationIDKey contextKey = "operation_id"
	batchIDKey     contextKey = "batch_id"
	boxIDKey       contextKey = "box_id"
)

// WithOperation tags ctx with a fresh operation id unless one is already
// present.
func WithOperation(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := OperationID(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, operationIDKey, uuid.NewString())
}

// OperationID returns the operation id stored on ctx.
func OperationID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(operationIDKey).(string)
	return id, ok && strings.TrimSpace(id) != ""
}

// WithBatchID stores a batch id on ctx for log correlation.
func WithBatchID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// WithBoxID stores a box id on ctx for log correlation.
func WithBoxID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, boxIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := OperationID(ctx); ok {
		fields = append(fields, slog.String(FieldOperationID, id))
	}
	if id, ok := ctx.Value(batchIDKey).(int64); ok && id > 0 {
		fields = append(fields, slog.Int64(FieldBatchID, id))
	}
	if id, ok := ctx.Value(boxIDKey).(int64); ok && id > 0 {
		fields = append(fields, slog.Int64(FieldBoxID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, 0, len(fields))
	for _, field := range fields {
		args = append(args, field)
	}
	return logger.With(args...)
}
