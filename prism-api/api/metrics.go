package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"prism-todo/prism-api/domain"
)

const (
	tracerName     = "prism-api"
	metricsKey     = "request.metrics"
	metricsMessage = "tasks.request.metrics"
)

type requestMetrics struct {
	logger        *log.Logger
	span          trace.Span
	method        string
	route         string
	start         time.Time
	storeDuration time.Duration
	query         *domain.Query
	taskID        string
	tasksReturned int
	errorStage    string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, method, route string) (*requestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
	return &requestMetrics{
		logger:        logger,
		span:          span,
		method:        method,
		route:         route,
		start:         time.Now(),
		tasksReturned: -1,
	}, ctx
}

// RequestMetricsMiddleware traces every request and logs one structured
// metrics entry per request when it completes.
func RequestMetricsMiddleware(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m, ctx := newRequestMetrics(c.Request().Context(), logger, c.Request().Method, c.Path())
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(metricsKey, m)
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				status = he.Code
			}
			m.Log(status, err)
			return err
		}
	}
}

// metricsFrom returns the metrics of the current request. It never returns
// nil so handlers work without the middleware.
func metricsFrom(c echo.Context) *requestMetrics {
	if m, ok := c.Get(metricsKey).(*requestMetrics); ok && m != nil {
		return m
	}
	return &requestMetrics{start: time.Now(), tasksReturned: -1}
}

func (m *requestMetrics) ObserveStore(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.storeDuration = duration
}

func (m *requestMetrics) SetQuery(q domain.Query) {
	m.query = &q
}

func (m *requestMetrics) SetTaskID(id string) {
	m.taskID = id
}

func (m *requestMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}

	total := time.Since(m.start)
	fields := log.Fields{
		"method":   m.method,
		"route":    m.route,
		"status":   status,
		"total_ms": durationToMillis(total),
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", m.method),
		attribute.String("http.route", m.route),
		attribute.Int("http.response.status_code", status),
		attribute.Float64("prism.request.total_ms", durationToMillis(total)),
	}

	if m.storeDuration > 0 {
		fields["store_ms"] = durationToMillis(m.storeDuration)
		attrs = append(attrs, attribute.Float64("prism.request.store_ms", durationToMillis(m.storeDuration)))
	}
	if m.query != nil {
		fields["filter"] = string(m.query.Filter)
		fields["search_provided"] = m.query.Search != ""
		attrs = append(attrs,
			attribute.String("prism.tasks.filter", string(m.query.Filter)),
			attribute.Bool("prism.tasks.search_provided", m.query.Search != ""),
		)
	}
	if m.tasksReturned >= 0 {
		fields["tasks_returned"] = m.tasksReturned
		attrs = append(attrs, attribute.Int("prism.tasks.tasks_returned", m.tasksReturned))
	}
	if m.taskID != "" {
		fields["task_id"] = m.taskID
		attrs = append(attrs, attribute.String("prism.tasks.task_id", m.taskID))
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
		attrs = append(attrs, attribute.String("prism.request.error_stage", m.errorStage))
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	if m.span != nil {
		m.span.SetAttributes(attrs...)
		switch {
		case err != nil:
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		case status >= 500:
			m.span.SetStatus(codes.Error, m.errorStage)
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	entry := m.logger.WithFields(fields)
	if status >= 500 {
		entry.Error(metricsMessage)
		return
	}
	entry.Info(metricsMessage)
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
