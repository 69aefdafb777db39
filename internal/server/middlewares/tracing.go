package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/vzahanych/novacast/internal/server/utils"
	"github.com/vzahanych/novacast/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TelemetryMiddleware opens a server span per request. Requests to
// untracedPaths (health checks, scrapes) get no span.
func TelemetryMiddleware(logger *zap.Logger, tele *telemetry.Telemetry, untracedPaths ...string) gin.HandlerFunc {
	propagator := otel.GetTextMapPropagator()
	untraced := make(map[string]struct{}, len(untracedPaths))
	for _, p := range untracedPaths {
		untraced[p] = struct{}{}
	}

	return gin.HandlerFunc(func(c *gin.Context) {
		if _, skip := untraced[c.Request.URL.Path]; skip {
			c.Next()
			return
		}
		tracer := tele.GetTracer()

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		requestID := utils.RequestID(c)

		route := c.FullPath()
		if route == "" {
			route = "static"
		}
		spanName := c.Request.Method + " " + route
		ctx, span := tracer.Start(ctx, spanName,
			trace.WithAttributes(
				attribute.String("request.id", requestID),
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.url", c.Request.URL.String()),
				attribute.String("http.route", route),
				attribute.String("user_agent", c.Request.UserAgent()),
				attribute.String("remote_addr", c.ClientIP()),
			),
		)

		c.Set(utils.SpanContextKey, ctx)
		c.Request = c.Request.WithContext(ctx)

		if tele.IsEnabled() {
			logger.Debug("Started tracing span",
				zap.String("span_name", spanName),
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()))
		}

		defer func() {
			span.SetAttributes(
				attribute.Int("http.status_code", c.Writer.Status()),
				attribute.Int("http.response_size", c.Writer.Size()),
			)

			if c.Writer.Status() >= 500 {
				msg := "server error"
				if len(c.Errors) > 0 {
					msg = c.Errors.String()
				}
				span.SetStatus(codes.Error, msg)
			} else if c.Writer.Status() >= 400 {
				span.SetAttributes(attribute.Bool("error", true))
			}

			span.End()

			if tele.IsEnabled() {
				logger.Debug("Ended tracing span",
					zap.String("span_name", spanName),
					zap.Int("status_code", c.Writer.Status()))
			}
		}()

		c.Next()
	})
}
