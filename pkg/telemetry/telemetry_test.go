package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func newRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	NewWithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)), "test")
	t.Cleanup(Reset)
	return sr
}

func TestInit_Disabled(t *testing.T) {
	provider, err := Init(context.Background(), Config{Enabled: false, ServiceName: "test"})
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.NotNil(t, provider.Tracer())
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestInit_StdoutExporter(t *testing.T) {
	t.Cleanup(Reset)
	var buf bytes.Buffer

	provider, err := Init(context.Background(), Config{
		Enabled:     true,
		Exporter:    "stdout",
		ServiceName: "supplynet-test",
		SampleRate:  1,
		Writer:      &buf,
	})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "physarum.solve")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "physarum.solve")
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Config{Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), newSampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), newSampler(0).Description())
	assert.Contains(t, newSampler(0.5).Description(), "TraceIDRatioBased")
}

func TestGet_Uninitialized(t *testing.T) {
	Reset()

	provider := Get()
	require.NotNil(t, provider)
	assert.NotNil(t, provider.tracer)
}

func TestStartSpan_Recorded(t *testing.T) {
	sr := newRecorder(t)

	ctx, span := StartSpan(context.Background(), "aco.generation", WithAttributes(attribute.Int("generation", 3)))
	AddEvent(ctx, "best.improved", attribute.Float64("cost", 12.5))
	SetAttributes(ctx, attribute.String("status", "running"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "aco.generation", ended[0].Name())
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "best.improved", ended[0].Events()[0].Name)
}

func TestSetError(t *testing.T) {
	sr := newRecorder(t)

	ctx, span := StartSpan(context.Background(), "solve")
	SetError(ctx, context.DeadlineExceeded)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestRecordError_KeepsStatus(t *testing.T) {
	sr := newRecorder(t)

	ctx, span := StartSpan(context.Background(), "solve")
	RecordError(ctx, errors.New("supplier 3 incomplete"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Len(t, ended[0].Events(), 1)
}

func TestStage(t *testing.T) {
	sr := newRecorder(t)

	err := Stage(context.Background(), "check", func(ctx context.Context) error {
		assert.True(t, SpanFromContext(ctx).SpanContext().IsValid())
		return nil
	}, CheckAttributes(true, 0)...)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = Stage(context.Background(), "solve", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
}

func TestProvider_Shutdown_Noop(t *testing.T) {
	provider := &Provider{tracer: noop.NewTracerProvider().Tracer("test")}
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestAttributes(t *testing.T) {
	assert.Len(t, GraphAttributes(9, 17, 3, 2, 45), 5)
	assert.Len(t, AlgorithmAttributes("ppa", "converged", 40, 312.4), 4)
	assert.Len(t, CheckAttributes(false, 12.5), 2)
}
