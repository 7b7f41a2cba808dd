package tracer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func TestInitOtelProvidersWithoutCollector(t *testing.T) {
	shutdown, err := InitOtelProviders(Options{
		ServiceName:    "voyagr-test",
		ServiceVersion: "test",
		MetricsAddr:    "127.0.0.1:0",
	}, zap.NewNop())
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}
