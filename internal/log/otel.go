package log

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OTelExporter forwards session events as OpenTelemetry span events and a
// request counter, built on the go.opentelemetry.io/otel SDK.
type OTelExporter struct {
	tracer  trace.Tracer
	counter metric.Int64Counter
}

// NewOTelExporter builds an Exporter that records one counter increment
// per event, tagged by message, and returns an error if the counter
// instrument cannot be created.
func NewOTelExporter(instrumentationName string) (*OTelExporter, error) {
	meter := otel.Meter(instrumentationName)
	counter, err := meter.Int64Counter(
		"xconn.session.events",
		metric.WithDescription("count of session runtime events, by message"),
	)
	if err != nil {
		return nil, err
	}
	return &OTelExporter{
		tracer:  otel.Tracer(instrumentationName),
		counter: counter,
	}, nil
}

// Export implements log.Exporter.
func (e *OTelExporter) Export(msg string, fields []Field) {
	ctx := context.Background()
	attrs := make([]attribute.KeyValue, 0, len(fields)+1)
	attrs = append(attrs, attribute.String("event", msg))
	for _, f := range fields {
		if f.Value == nil {
			continue
		}
		attrs = append(attrs, attribute.String(f.Key, toString(f.Value)))
	}

	_, span := e.tracer.Start(ctx, msg, trace.WithAttributes(attrs...))
	span.End()

	e.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
