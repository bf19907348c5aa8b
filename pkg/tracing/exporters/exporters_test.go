package exporters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultOTLPConfig(t *testing.T) {
	cfg := DefaultOTLPConfig()
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.True(t, cfg.Insecure)
}

func TestNewOTLPExporter_UnsupportedProtocol(t *testing.T) {
	cfg := DefaultOTLPConfig()
	cfg.Protocol = "udp"

	_, err := NewOTLPExporter(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported OTLP protocol")
}

func TestConsoleExporter(t *testing.T) {
	var exporter trace.SpanExporter = &ConsoleExporter{}

	require.NoError(t, exporter.ExportSpans(context.Background(), nil))
	require.NoError(t, exporter.Shutdown(context.Background()))
}
