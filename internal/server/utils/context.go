package utils

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/novacast/internal/aggregator"
	"go.opentelemetry.io/otel/trace"
)

// Keys under which the middlewares store per-request values.
const (
	SpanContextKey = "span_context"
	RequestIDKey   = "request_id"
)

func ginValue[T any](c *gin.Context, key string) (T, bool) {
	var zero T
	v, exists := c.Get(key)
	if !exists {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// SpanContext returns the context carrying the server span, or the plain
// request context when tracing middleware did not run.
func SpanContext(c *gin.Context) context.Context {
	if ctx, ok := ginValue[context.Context](c, SpanContextKey); ok {
		return ctx
	}
	return c.Request.Context()
}

func Span(c *gin.Context) trace.Span {
	return trace.SpanFromContext(SpanContext(c))
}

func RequestID(c *gin.Context) string {
	id, _ := ginValue[string](c, RequestIDKey)
	return id
}

// RequestContext is SpanContext tagged with the request id so aggregator
// logs can be correlated with the access log.
func RequestContext(c *gin.Context) context.Context {
	ctx := SpanContext(c)
	if id := RequestID(c); id != "" {
		ctx = aggregator.WithRequestID(ctx, id)
	}
	return ctx
}
