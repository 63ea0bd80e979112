package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used across the service.
const TracerName = "storefront"

// Tracer returns the named tracer from the global provider. Without an SDK installed
// the provider is a no-op and spans only carry propagated context.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
