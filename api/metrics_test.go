package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"plansync-api/domain"
)

func setupSpanRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return exporter
}

func spanAttribute(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSyncRequestMetricsEmitsSpanAndLog(t *testing.T) {
	exporter := setupSpanRecorder(t)
	logger, hook := test.NewNullLogger()

	metrics, spanCtx := newSyncRequestMetrics(context.Background(), logger)
	if spanCtx == nil {
		t.Fatalf("expected a span context")
	}
	metrics.ObserveDecode(2 * time.Millisecond)
	metrics.ObserveMerge(5 * time.Millisecond)
	metrics.ObserveEncode(time.Millisecond)
	metrics.SetProjectsSubmitted(3)
	metrics.SetResults(domain.SyncResults{
		Created: domain.SyncCounts{Projects: 1, Goals: 2, Tasks: 4},
		Updated: domain.SyncCounts{Tasks: 1},
	})
	metrics.Log(http.StatusOK, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != syncSpanName {
		t.Fatalf("unexpected span name %q", span.Name)
	}
	if span.Status.Code != codes.Ok {
		t.Fatalf("expected ok status, got %v", span.Status)
	}
	if v, ok := spanAttribute(span, "plansync.sync.created_total"); !ok || v.AsInt64() != 7 {
		t.Fatalf("created_total attribute missing or wrong: %v", v)
	}
	if v, ok := spanAttribute(span, "plansync.sync.updated_total"); !ok || v.AsInt64() != 1 {
		t.Fatalf("updated_total attribute missing or wrong: %v", v)
	}
	if v, ok := spanAttribute(span, "plansync.sync.projects_submitted"); !ok || v.AsInt64() != 3 {
		t.Fatalf("projects_submitted attribute missing or wrong: %v", v)
	}
	if _, ok := spanAttribute(span, "plansync.sync.merge_ms"); !ok {
		t.Fatalf("merge_ms attribute missing")
	}
	if len(span.Events) != 1 || span.Events[0].Name != "observability.event" {
		t.Fatalf("expected one observability.event, got %+v", span.Events)
	}

	entries := hook.AllEntries()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != log.InfoLevel {
		t.Fatalf("expected info level, got %v", entry.Level)
	}
	if entry.Message != "observability.event" {
		t.Fatalf("unexpected message %q", entry.Message)
	}
	if entry.Data["event.name"] != syncEventName || entry.Data["event.domain"] != syncEventDomain {
		t.Fatalf("event identity missing: %v", entry.Data)
	}
	if entry.Data["severity_text"] != "INFO" {
		t.Fatalf("unexpected severity: %v", entry.Data["severity_text"])
	}
	if _, ok := entry.Data["trace_id"]; !ok {
		t.Fatalf("expected trace_id field")
	}
}

func TestSyncRequestMetricsErrorPath(t *testing.T) {
	exporter := setupSpanRecorder(t)
	logger, hook := test.NewNullLogger()

	metrics, _ := newSyncRequestMetrics(context.Background(), logger)
	metrics.SetErrorStage("merge")
	metrics.Log(http.StatusInternalServerError, errors.New("merge failed"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	span := spans[0]
	if span.Status.Code != codes.Error {
		t.Fatalf("expected error status, got %v", span.Status)
	}
	if v, ok := spanAttribute(span, "plansync.sync.error_stage"); !ok || v.AsString() != "merge" {
		t.Fatalf("error_stage attribute missing or wrong: %v", v)
	}

	entries := hook.AllEntries()
	if len(entries) != 1 || entries[0].Level != log.ErrorLevel {
		t.Fatalf("expected one error entry, got %+v", entries)
	}
	if entries[0].Data["error"] != "merge failed" {
		t.Fatalf("expected error field, got %v", entries[0].Data)
	}
}

func TestSeverityForStatus(t *testing.T) {
	testCases := []struct {
		status     int
		err        error
		wantText   string
		wantNumber int
	}{
		{http.StatusOK, nil, "INFO", 9},
		{http.StatusCreated, nil, "INFO", 9},
		{http.StatusBadRequest, nil, "WARN", 13},
		{http.StatusNotFound, nil, "WARN", 13},
		{http.StatusConflict, nil, "WARN", 13},
		{http.StatusInternalServerError, nil, "ERROR", 17},
		{http.StatusOK, errors.New("boom"), "ERROR", 17},
	}
	for _, tc := range testCases {
		text, number := severityForStatus(tc.status, tc.err)
		if text != tc.wantText || number != tc.wantNumber {
			t.Errorf("severityForStatus(%d, %v) = %q/%d, want %q/%d",
				tc.status, tc.err, text, number, tc.wantText, tc.wantNumber)
		}
	}
}

func TestDurationToMillis(t *testing.T) {
	if got := durationToMillis(1500 * time.Microsecond); got != 1.5 {
		t.Fatalf("expected 1.5 got %v", got)
	}
	if got := durationToMillis(-time.Second); got != 0 {
		t.Fatalf("expected 0 for negative durations, got %v", got)
	}
}
