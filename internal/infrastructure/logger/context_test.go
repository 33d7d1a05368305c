package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func sampledContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	base, _ := observedLogger()
	assert.Same(t, base, FromContext(WithContext(context.Background(), base)))

	assert.NotNil(t, FromContext(context.Background()))
	var nilLogger *zap.Logger
	assert.NotNil(t, FromContext(WithContext(context.Background(), nilLogger)))
}

func TestRequestValues(t *testing.T) {
	ctx := WithActor(WithRequestID(context.Background(), "req-1"), "ana")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "ana", GetActor(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetActor(context.Background()))
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(sampledContext(t)))
}

func TestFor(t *testing.T) {
	t.Run("adds trace and request fields", func(t *testing.T) {
		base, logs := observedLogger()
		ctx := WithActor(WithRequestID(sampledContext(t), "req-2"), "warehouse-2")

		For(ctx, base).Info("dispatch recorded", zap.String("lot_id", "L-1"))

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
		assert.Equal(t, "req-2", fields["request_id"])
		assert.Equal(t, "warehouse-2", fields["actor"])
		assert.Equal(t, "L-1", fields["lot_id"])
	})

	t.Run("bare context returns the logger unchanged", func(t *testing.T) {
		base, _ := observedLogger()
		assert.Same(t, base, For(context.Background(), base))
	})

	t.Run("nil logger returns the context logger", func(t *testing.T) {
		base, _ := observedLogger()
		scoped := base.With(zap.String("request_id", "req-3"))
		ctx := WithRequestID(WithContext(context.Background(), scoped), "req-3")

		assert.Same(t, scoped, For(ctx, nil))
	})

	t.Run("nil logger without a context logger is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() {
			For(WithActor(context.Background(), "ana"), nil).Info("dropped")
		})
	})
}
