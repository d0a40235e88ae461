// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false, ServiceName: "test-service"})
	require.NoError(t, err)
	assert.Nil(t, provider.tp)
	assert.NoError(t, provider.Shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestProvider_ShutdownRestoresPrevious(t *testing.T) {
	prev := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(prev)
	t.Cleanup(func() { _ = prev.Shutdown(context.Background()) })

	provider, err := NewProvider(context.Background(), Config{})
	require.NoError(t, err)
	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.False(t, isSDK, "disabled config installs the noop provider")

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.Same(t, prev, otel.GetTracerProvider())
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ServiceName: "test-service", ExporterType: "invalid"})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: invalid (supported: grpc, http)", err.Error())
}

func TestNewProvider_HTTPExporter(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(sdktrace.NewTracerProvider()) })
	provider, err := NewProvider(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "issuedesk",
		ExporterType:   ExporterHTTP,
		Endpoint:       "127.0.0.1:1",
		SamplingRate:   0.5,
		SessionBackend: "redis",
	})
	require.NoError(t, err)
	require.NotNil(t, provider.tp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = provider.Shutdown(ctx)
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestWorkflowSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartWorkflowSpan(context.Background(), "delete", "execute", 42)
	EndWorkflowSpan(span, "error")

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "delete.execute", ended[0].Name())

	got := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "delete", got[WorkflowNameKey])
	assert.Equal(t, "42", got[IssueIDKey])
	assert.Equal(t, "error", got[WorkflowOutcomeKey])
	assert.Equal(t, "true", got[ErrorKey])
}
