package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	boardTracerName    = "taskboard-api/api"
	boardSpanName      = "board.list"
	boardEventName     = "board.request.metrics"
	boardEventDomain   = "taskboard"
	boardRouteAttr     = "/api/tasks"
	attrFilterKind    = "taskboard.list.filter_kind"
	attrTasksReturned = "taskboard.list.tasks_returned"
	attrAuthMillis    = "taskboard.list.auth_ms"
	attrFetchMillis   = "taskboard.list.fetch_ms"
	attrEncodeMillis  = "taskboard.list.encode_ms"
	attrTotalMillis   = "taskboard.list.total_ms"
	attrErrorStage    = "taskboard.list.error_stage"
)

// boardRequestMetrics collects stage timings for the list endpoint and
// reports them both as a structured log event and as span attributes.
type boardRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	authDuration   time.Duration
	fetchDuration  time.Duration
	encodeDuration time.Duration
	filterKind     string
	tasksReturned  int
	errorStage     string
}

func newBoardRequestMetrics(ctx context.Context, logger *log.Logger) (*boardRequestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(boardTracerName).Start(ctx, boardSpanName)
	return &boardRequestMetrics{
		logger: logger,
		span:   span,
		start:  time.Now(),
	}, spanCtx
}

func (m *boardRequestMetrics) ObserveAuth(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.authDuration = duration
}

func (m *boardRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *boardRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *boardRequestMetrics) SetFilterKind(kind string) {
	m.filterKind = kind
}

func (m *boardRequestMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *boardRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log ends the span and emits one structured observability event for the
// request.
func (m *boardRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	total := time.Since(m.start)
	severityText, severityNumber := severityForStatus(status, err)

	attrs := map[string]any{
		"http.route":       boardRouteAttr,
		"http.status_code": status,
		attrFilterKind:     m.filterKind,
		attrTasksReturned:  m.tasksReturned,
		attrTotalMillis:    durationToMillis(total),
	}
	if m.authDuration > 0 {
		attrs[attrAuthMillis] = durationToMillis(m.authDuration)
	}
	if m.fetchDuration > 0 {
		attrs[attrFetchMillis] = durationToMillis(m.fetchDuration)
	}
	if m.encodeDuration > 0 {
		attrs[attrEncodeMillis] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		attrs[attrErrorStage] = m.errorStage
	}

	if m.span != nil {
		m.span.SetAttributes(
			attribute.String("http.route", boardRouteAttr),
			attribute.Int("http.status_code", status),
			attribute.String(attrFilterKind, m.filterKind),
			attribute.Int(attrTasksReturned, m.tasksReturned),
			attribute.Float64(attrTotalMillis, durationToMillis(total)),
		)
		if m.errorStage != "" {
			m.span.SetAttributes(attribute.String(attrErrorStage, m.errorStage))
		}

		eventAttrs := []attribute.KeyValue{
			attribute.String("event.name", boardEventName),
			attribute.String("event.domain", boardEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
			attribute.Float64(attrTotalMillis, durationToMillis(total)),
		}
		if m.errorStage != "" {
			eventAttrs = append(eventAttrs, attribute.String(attrErrorStage, m.errorStage))
		}
		if err != nil {
			eventAttrs = append(eventAttrs, attribute.String("error.message", err.Error()))
		}
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))

		if err != nil {
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}

	fields := log.Fields{
		"event.name":      boardEventName,
		"event.domain":    boardEventDomain,
		"attributes":      attrs,
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("observability.event")
}

// severityForStatus maps the response outcome onto OTel log severity.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= 500:
		return "ERROR", 17
	case status >= 400:
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
