package otel

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/config"
)

func TestInitTracerExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracer(config.TracingConfig{Enabled: true, ServiceName: "translator-test"}, zap.NewNop(), &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "router.Translate")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name": "router.Translate"`)
	assert.Contains(t, buf.String(), "translator-test")
}

func TestInitTracerDisabled(t *testing.T) {
	prev := otel.GetTracerProvider()

	var buf bytes.Buffer
	shutdown, err := InitTracer(config.TracingConfig{}, zap.NewNop(), &buf)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	assert.Same(t, prev, otel.GetTracerProvider())
	assert.Zero(t, buf.Len())
}
