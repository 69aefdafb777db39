package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/novacast/internal/config"
	"go.opentelemetry.io/otel/attribute"
)

func TestDisabledTelemetry(t *testing.T) {
	tele, err := New(context.Background(), config.TelemetryConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.False(t, tele.IsEnabled())

	_, span := tele.GetTracer().Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	tele.RecordError(context.Background(), errors.New("ignored"), nil)
	assert.NoError(t, tele.Shutdown(context.Background()))
}

func TestNilTelemetry(t *testing.T) {
	var tele *Telemetry
	assert.False(t, tele.IsEnabled())
	assert.NotNil(t, tele.GetTracer())
	assert.NoError(t, tele.Shutdown(context.Background()))
}

func TestAttributes(t *testing.T) {
	attrs := Attributes(map[string]interface{}{
		"city":    "Paris",
		"days":    150,
		"cached":  true,
		"lat":     48.85,
		"attempt": int64(2),
		"other":   []string{"a"},
	})

	got := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		got[kv.Key] = kv.Value
	}

	assert.Equal(t, "Paris", got["city"].AsString())
	assert.Equal(t, int64(150), got["days"].AsInt64())
	assert.True(t, got["cached"].AsBool())
	assert.Equal(t, 48.85, got["lat"].AsFloat64())
	assert.Equal(t, int64(2), got["attempt"].AsInt64())
	assert.Equal(t, "[a]", got["other"].AsString())
}
