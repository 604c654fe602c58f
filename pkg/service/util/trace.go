package util

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/trace"
)

type traceIDInjector struct{}

func NewTraceIDInterceptor() connect.Interceptor {
	return &traceIDInjector{}
}

const (
	TraceIDHeader = "X-Trace-ID"
)

//nolint:whitespace // better readability
func (i *traceIDInjector) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return connect.UnaryFunc(func(
		ctx context.Context,
		req connect.AnyRequest,
	) (connect.AnyResponse, error) {
		span := trace.SpanFromContext(ctx)
		if req.Spec().IsClient || !span.SpanContext().IsValid() {
			return next(ctx, req)
		}
		res, err := next(ctx, req)
		if err != nil {
			var connectErr *connect.Error
			if errors.As(err, &connectErr) {
				connectErr.Meta().Set(TraceIDHeader, span.SpanContext().TraceID().String())
			}
			return nil, err
		}
		res.Header().Set(TraceIDHeader, span.SpanContext().TraceID().String())
		return res, nil
	})
}

//nolint:whitespace // readablity, editor/linter
func (i *traceIDInjector) WrapStreamingClient(
	next connect.StreamingClientFunc,
) connect.StreamingClientFunc {
	return next
}

//nolint:whitespace // readablity, editor/linter
func (i *traceIDInjector) WrapStreamingHandler(
	next connect.StreamingHandlerFunc,
) connect.StreamingHandlerFunc {
	return connect.StreamingHandlerFunc(func(
		ctx context.Context,
		conn connect.StreamingHandlerConn,
	) error {
		span := trace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			conn.ResponseHeader().Set(TraceIDHeader, span.SpanContext().TraceID().String())
		}
		return next(ctx, conn)
	})
}
