package ctxutil

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// NewTraceData reuses an inbound request id when present and picks up the
// active span's trace id so log lines can be joined with traces.
func NewTraceData(ctx context.Context, inboundRequestID string) *TraceData {
	td := &TraceData{RequestID: strings.TrimSpace(inboundRequestID)}
	if td.RequestID == "" {
		td.RequestID = uuid.NewString()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		td.TraceID = sc.TraceID().String()
	}
	return td
}
