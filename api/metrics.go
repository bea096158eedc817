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
)

const (
	statsSpanName    = "stats.request"
	statsEventName   = "stats.request.metrics"
	statsEventDomain = "todo-stream"
)

type statsRequestMetrics struct {
	logger *log.Logger
	span   trace.Span
	start  time.Time

	authDuration  time.Duration
	fetchDuration time.Duration
	tasksScanned  int
	errorStage    string
}

// newStatsRequestMetrics opens the request span and returns a context
// carrying it.
func newStatsRequestMetrics(ctx context.Context, logger *log.Logger) (*statsRequestMetrics, context.Context) {
	tracer := otel.GetTracerProvider().Tracer("todo-stream/api")
	spanCtx, span := tracer.Start(ctx, statsSpanName)
	return &statsRequestMetrics{logger: logger, span: span, start: time.Now()}, spanCtx
}

func (m *statsRequestMetrics) ObserveAuth(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.authDuration = duration
}

func (m *statsRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *statsRequestMetrics) SetTasksScanned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksScanned = count
}

func (m *statsRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log closes the span and emits one structured observability event for the
// request.
func (m *statsRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	total := durationToMillis(time.Since(m.start))
	severityText, severityNumber := severityForStatus(status, err)

	if m.span != nil {
		attrs := []attribute.KeyValue{
			attribute.String("http.route", "/api/stats"),
			attribute.Int("http.status_code", status),
			attribute.Float64("stats.total_ms", total),
			attribute.Int("stats.tasks_scanned", m.tasksScanned),
		}
		if m.authDuration > 0 {
			attrs = append(attrs, attribute.Float64("stats.auth_ms", durationToMillis(m.authDuration)))
		}
		if m.fetchDuration > 0 {
			attrs = append(attrs, attribute.Float64("stats.fetch_ms", durationToMillis(m.fetchDuration)))
		}
		if m.errorStage != "" {
			attrs = append(attrs, attribute.String("stats.error_stage", m.errorStage))
		}
		m.span.SetAttributes(attrs...)
		switch {
		case err != nil:
			m.span.SetStatus(codes.Error, err.Error())
		case status >= http.StatusInternalServerError:
			m.span.SetStatus(codes.Error, http.StatusText(status))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      statsEventName,
		"event.domain":    statsEventDomain,
		"route":           "/api/stats",
		"status":          status,
		"total_ms":        total,
		"tasks_scanned":   m.tasksScanned,
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}
	if m.authDuration > 0 {
		fields["auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("observability.event")
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
