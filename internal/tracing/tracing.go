// Package tracing turns backend client spans into log lines.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"stinstaller/internal/logging"
)

// Provider is a tracer provider whose finished spans are written to a
// logger at debug level. Failed spans are logged at warn.
type Provider struct {
	sdk *sdktrace.TracerProvider
}

func NewProvider(logger logging.Logger) *Provider {
	if logger == nil {
		logger = logging.Nop()
	}
	sdk := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(&logSpanProcessor{logger: logger}))
	return &Provider{sdk: sdk}
}

func (p *Provider) TracerProvider() trace.TracerProvider {
	if p == nil {
		return nil
	}
	return p.sdk
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

type logSpanProcessor struct {
	logger logging.Logger
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	fields := []logging.Field{
		logging.F("span", span.Name()),
		logging.F("duration", span.EndTime().Sub(span.StartTime()).Round(time.Millisecond)),
	}
	for _, attr := range span.Attributes() {
		fields = append(fields, logging.F(string(attr.Key), attr.Value.Emit()))
	}
	if span.Status().Code == codes.Error {
		fields = append(fields, logging.F("error", span.Status().Description))
		p.logger.Warn("backend call failed", fields...)
		return
	}
	p.logger.Debug("backend call", fields...)
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
