package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"sheldon-client/infrastructure/config"
)

func TestNewLogger_DisabledIsNop(t *testing.T) {
	logger, err := NewLogger(config.Logging{Enabled: false})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
}

func TestNewLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheldon.log")
	logger, err := NewLogger(config.Logging{Enabled: true, Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("sheldon request")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"sheldon request"`)
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(config.Logging{Enabled: true, Level: "loud", Format: "json", Output: "stdout"})
	assert.Error(t, err)
}

func TestCollector_ObserveRequest(t *testing.T) {
	c := NewCollector("test")
	c.ObserveRequest("GET", 200, 20*time.Millisecond)
	c.ObserveRequest("GET", 200, 10*time.Millisecond)
	c.ObserveRequest("PUT", 404, time.Millisecond)
	c.ObserveTransportError("GET", "NETWORK")
	c.ObserveSchemaFetch()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Requests.WithLabelValues("PUT", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TransportErrors.WithLabelValues("GET", "NETWORK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SchemaFetches))
	assert.Equal(t, 2, testutil.CollectAndCount(c.RequestDuration))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveRequest("GET", 200, time.Second)
		c.ObserveTransportError("GET", "NETWORK")
		c.ObserveSchemaFetch()
	})
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("sheldon")
	b := NewCollector("sheldon")
	a.ObserveRequest("GET", 200, time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Requests.WithLabelValues("GET", "200")))
	assert.NotSame(t, a.GetRegistry(), b.GetRegistry())
}

func TestTracer_RecordsClientSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := NewTracerProvider("sheldon-test", sdktrace.WithSpanProcessor(recorder))
	tracer := NewTracer("sheldon-test", provider)

	_, span := tracer.StartSpan(context.Background(), "GET /nodes/1", attribute.String("http.method", "GET"))
	EndSpan(span, errors.New("boom"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /nodes/1", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestNoopTracer(t *testing.T) {
	_, span := NoopTracer().StartSpan(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	EndSpan(span, nil)
}
