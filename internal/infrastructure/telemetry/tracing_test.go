package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// useSpanRecorder installs a recording provider globally for the duration of the test
func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	recorder := useSpanRecorder(t)
	id := uuid.MustParse("6f1c1e1c-0000-4000-8000-000000000001")

	_, span := StartServiceSpan(context.Background(), "DocumentService", "Create",
		WithAttribute(SpanAttrDocumentKind, "sale"),
		WithAttribute(SpanAttrDocumentID, id),
	)
	SetAttributes(span, SpanAttrLineCount, 3, 42, "ignored")
	AddEvent(span, "ledger_posted", SpanAttrAmountIQD, int64(150000))
	RecordError(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "DocumentService.Create", got.Name())
	assert.Equal(t, TracerName, got.InstrumentationScope().Name)
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "boom", got.Status().Description)

	attrs := attrMap(got.Attributes())
	assert.Equal(t, "sale", attrs[SpanAttrDocumentKind])
	assert.Equal(t, id.String(), attrs[SpanAttrDocumentID])
	assert.Equal(t, "3", attrs[SpanAttrLineCount])
	assert.Len(t, attrs, 3, "non-string keys are skipped")

	events := got.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "ledger_posted", events[0].Name)
	assert.Equal(t, "150000", attrMap(events[0].Attributes)[SpanAttrAmountIQD])
	assert.Equal(t, "exception", events[1].Name)
}

func TestSpanHelpersTolerateNil(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, "k", "v")
		RecordError(nil, errors.New("x"))
		AddEvent(nil, "e")
	})
}

func TestRecordErrorIgnoresNil(t *testing.T) {
	recorder := useSpanRecorder(t)
	_, span := StartSpan(context.Background(), "noop")
	RecordError(span, nil)
	span.End()

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, codes.Unset, recorder.Ended()[0].Status().Code)
}
