package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/traitforge-backend/internal/platform/envutil"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel installs the global tracer provider when OTEL_ENABLED is set.
// The returned shutdown func is nil when tracing stays off.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		if !envutil.Bool("OTEL_ENABLED", false) {
			return
		}
		serviceName := strings.TrimSpace(cfg.ServiceName)
		if serviceName == "" {
			serviceName = "traitforge"
		}
		res, err := resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(serviceName),
				semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
				attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
			),
		)
		if err != nil && log != nil {
			log.Warn("otel resource init failed (continuing)", "error", err)
		}

		sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(otelSampleRatio()))
		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sampler),
			sdktrace.WithResource(res),
		}
		exporter, expErr := buildTraceExporter(ctx, log)
		if expErr != nil && log != nil {
			log.Warn("otel exporter init failed (continuing)", "error", expErr)
		}
		if exporter != nil {
			opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
		}
		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		if log != nil {
			log.Info("otel tracing initialized", "service", serviceName, "endpoint", envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""))
		}
	})
	return otelShutdown
}

func otelSampleRatio() float64 {
	// ratio is read in per-mille to stay on integer env parsing
	permille := envutil.Int("OTEL_SAMPLER_PERMILLE", 100)
	switch {
	case permille <= 0:
		return 0
	case permille >= 1000:
		return 1
	}
	return float64(permille) / 1000
}

func otelHeaders() map[string]string {
	headers := map[string]string{}
	for _, part := range envutil.List("OTEL_EXPORTER_OTLP_HEADERS", nil) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		if key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

func buildTraceExporter(ctx context.Context, log *logger.Logger) (sdktrace.SpanExporter, error) {
	if endpoint := envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""); endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false) {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if headers := otelHeaders(); headers != nil {
			opts = append(opts, otlptracehttp.WithHeaders(headers))
		}
		return otlptracehttp.New(ctx, opts...)
	}
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	}
	return exp, nil
}
