package logging

import (
	"context"

	"go.uber.org/zap"
)

// Context key types
type subjectCtxKey struct{}
type requestCtxKey struct{}

// WithSubjectID attaches a subject identifier to the context.
func WithSubjectID(ctx context.Context, subjectID string) context.Context {
	if subjectID == "" {
		return ctx
	}
	return context.WithValue(ctx, subjectCtxKey{}, subjectID)
}

// SubjectIDFromContext returns the subject ID, or "" if absent.
func SubjectIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(subjectCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID attaches a request identifier to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// RequestIDFromContext returns the request ID, or "" if absent.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return v
	}
	return ""
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)

	if subjectID := SubjectIDFromContext(ctx); subjectID != "" {
		fields = append(fields, zap.String("subject.id", subjectID))
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	return fields
}
