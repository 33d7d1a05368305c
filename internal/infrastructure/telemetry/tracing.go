package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/lotledger/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of service spans
const TracerName = "lotledger"

// Span attribute keys for service spans
const (
	SpanAttrLotID     = "lot_id"
	SpanAttrOrderKey  = "order_key"
	SpanAttrRow       = "row"
	SpanAttrQuantity  = "quantity"
	SpanAttrReference = "reference"
	SpanAttrPolicy    = "policy"
	SpanAttrErrorCode = "error_code"
)

// StartServiceSpan starts an internal span named service.method with
// alternating key/value attributes.
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "dispatch", telemetry.SpanAttrRow, 52)
//	defer func() { telemetry.EndSpan(span, err) }()
func StartServiceSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(toAttributes(keyValues)...),
	)
}

// SetAttributes adds alternating key/value pairs. Pairs whose key is not a
// string are dropped, as is a trailing key without a value.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span != nil {
		span.SetAttributes(toAttributes(keyValues)...)
	}
}

// RecordError marks the span failed. Domain rejections, such as an
// over-allocation, only tag the span with their code: the service did its
// job by refusing. An unavailable store is still a failure.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && domainErr.Code != shared.CodeUpstreamUnavailable {
		span.SetAttributes(attribute.String(SpanAttrErrorCode, domainErr.Code))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span successful
func SetOK(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// EndSpan settles the status from err and ends the span
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		RecordError(span, err)
	} else {
		SetOK(span)
	}
	span.End()
}

func toAttributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 1; i < len(keyValues); i += 2 {
		if key, ok := keyValues[i-1].(string); ok {
			attrs = append(attrs, toAttribute(key, keyValues[i]))
		}
	}
	return attrs
}

func toAttribute(key string, value any) attribute.KeyValue {
	k := attribute.Key(key)
	switch v := value.(type) {
	case string:
		return k.String(v)
	case bool:
		return k.Bool(v)
	case int:
		return k.Int(v)
	case int64:
		return k.Int64(v)
	case float64:
		return k.Float64(v)
	case []string:
		return k.StringSlice(v)
	case fmt.Stringer:
		return k.String(v.String())
	default:
		return k.String(fmt.Sprint(v))
	}
}
