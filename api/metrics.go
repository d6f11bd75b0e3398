package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"plansync-api/domain"
)

const (
	syncRoute       = "/api/sync"
	syncSpanName    = "plansync.sync.request"
	syncEventName   = "sync.request.completed"
	syncEventDomain = "plansync"
)

// syncRequestMetrics collects per-request stage timings and merge counters
// and emits them once, as an otel span plus a structured log entry.
type syncRequestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time

	decodeDuration    time.Duration
	mergeDuration     time.Duration
	encodeDuration    time.Duration
	projectsSubmitted int
	results           domain.SyncResults
	duplicate         bool
	errorStage        string
}

// newSyncRequestMetrics opens the request span. The returned context carries
// the span and should replace the request context for downstream calls.
func newSyncRequestMetrics(ctx context.Context, logger *log.Logger) (*syncRequestMetrics, context.Context) {
	tracer := otel.Tracer("plansync-api/api")
	spanCtx, span := tracer.Start(ctx, syncSpanName, trace.WithSpanKind(trace.SpanKindServer))
	return &syncRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}, spanCtx
}

func (m *syncRequestMetrics) ObserveDecode(d time.Duration) {
	if d > 0 {
		m.decodeDuration = d
	}
}

func (m *syncRequestMetrics) ObserveMerge(d time.Duration) {
	if d > 0 {
		m.mergeDuration = d
	}
}

func (m *syncRequestMetrics) ObserveEncode(d time.Duration) {
	if d > 0 {
		m.encodeDuration = d
	}
}

func (m *syncRequestMetrics) SetProjectsSubmitted(count int) {
	if count < 0 {
		count = 0
	}
	m.projectsSubmitted = count
}

func (m *syncRequestMetrics) SetResults(results domain.SyncResults) {
	m.results = results
}

func (m *syncRequestMetrics) SetDuplicate(dup bool) {
	m.duplicate = dup
}

func (m *syncRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log finishes the span and writes the observability event. It must be called
// exactly once per request.
func (m *syncRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	totalMillis := durationToMillis(time.Since(m.start))
	attrs := []attribute.KeyValue{
		attribute.String("http.route", syncRoute),
		attribute.Int64("http.status_code", int64(status)),
		attribute.Float64("plansync.sync.total_ms", totalMillis),
		attribute.Int("plansync.sync.projects_submitted", m.projectsSubmitted),
		attribute.Bool("plansync.sync.duplicate", m.duplicate),
		attribute.Int("plansync.sync.created_total", m.results.Created.Projects+m.results.Created.Goals+m.results.Created.Tasks),
		attribute.Int("plansync.sync.updated_total", m.results.Updated.Projects+m.results.Updated.Goals+m.results.Updated.Tasks),
	}
	if m.decodeDuration > 0 {
		attrs = append(attrs, attribute.Float64("plansync.sync.decode_ms", durationToMillis(m.decodeDuration)))
	}
	if m.mergeDuration > 0 {
		attrs = append(attrs, attribute.Float64("plansync.sync.merge_ms", durationToMillis(m.mergeDuration)))
	}
	if m.encodeDuration > 0 {
		attrs = append(attrs, attribute.Float64("plansync.sync.encode_ms", durationToMillis(m.encodeDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("plansync.sync.error_stage", m.errorStage))
	}

	severityText, severityNumber := severityForStatus(status, err)
	eventAttrs := append([]attribute.KeyValue{
		attribute.String("event.name", syncEventName),
		attribute.String("event.domain", syncEventDomain),
		attribute.String("severity_text", severityText),
		attribute.Int("severity_number", severityNumber),
	}, attrs...)
	if err != nil {
		eventAttrs = append(eventAttrs, attribute.String("error.message", err.Error()))
	}

	m.span.SetAttributes(attrs...)
	m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))
	if err != nil || status >= http.StatusInternalServerError {
		desc := http.StatusText(status)
		if err != nil {
			desc = err.Error()
		}
		m.span.SetStatus(codes.Error, desc)
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()

	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      syncEventName,
		"event.domain":    syncEventDomain,
		"attributes":      attrMap,
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}
	if sc := m.span.SpanContext(); sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	entry := m.logger.WithFields(fields)
	switch {
	case severityNumber >= 17:
		entry.Error("observability.event")
	case severityNumber >= 13:
		entry.Warn("observability.event")
	default:
		entry.Info("observability.event")
	}
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
