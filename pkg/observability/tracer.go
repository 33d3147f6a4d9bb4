package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns the named tracer from the globally configured
// TracerProvider. The toolkit does not own provider setup (no exporter/SDK
// wiring lives here); it instruments against whatever provider the
// embedding application installs via otel.SetTracerProvider, falling back
// to the no-op provider otel ships by default.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan is a small convenience wrapper so call sites read as one line
// at the boundaries that matter: connection handshakes, each MCP RPC, and
// each orchestrator loop iteration.
func StartSpan(ctx context.Context, tracerName, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer(tracerName).Start(ctx, spanName, opts...)
}
