package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sheldon-client/domain/core/valueobjects"
	"sheldon-client/infrastructure/config"
	"sheldon-client/infrastructure/urls"
	pkgerrors "sheldon-client/pkg/errors"
	"sheldon-client/pkg/observability"
)

type captured struct {
	method string
	uri    string
	body   string
	header http.Header
}

func newBackend(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	seen := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seen.method = r.Method
		seen.uri = r.URL.RequestURI()
		seen.body = string(raw)
		seen.header = r.Header.Clone()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func testConfig(host string) config.Config {
	cfg := *config.Default()
	cfg.Host = host
	return cfg
}

func TestDispatch_SendsJSONRequest(t *testing.T) {
	srv, seen := newBackend(t, http.StatusCreated, `{"id":77}`)
	d := NewDispatcher(testConfig(srv.URL + "/"))

	resp, err := d.Dispatch(context.Background(), urls.CreateNode("movie"), map[string]any{"title": "Ran"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.JSONEq(t, `{"id":77}`, string(resp.Body))
	assert.Equal(t, http.MethodPost, seen.method)
	assert.Equal(t, "/nodes/movie", seen.uri)
	assert.JSONEq(t, `{"title":"Ran"}`, seen.body)
	assert.Equal(t, "application/json", seen.header.Get("Content-Type"))
	assert.Equal(t, "application/json", seen.header.Get("Accept"))
	assert.Equal(t, resp.RequestID, seen.header.Get(RequestIDHeader))
	assert.NotEmpty(t, resp.RequestID)
}

func TestDispatch_NoBody(t *testing.T) {
	srv, seen := newBackend(t, http.StatusOK, ``)
	d := NewDispatcher(testConfig(srv.URL))

	resp, err := d.Dispatch(context.Background(), urls.DeleteNode(valueobjects.ID(12)), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "", seen.body)
	assert.Equal(t, "/nodes/12", seen.uri)
}

func TestDispatch_NonSuccessIsNotAnError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusNotFound, `{"error":"not found"}`)
	d := NewDispatcher(testConfig(srv.URL))

	resp, err := d.Dispatch(context.Background(), urls.FetchNode(valueobjects.ID(1)), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestDispatch_ConnectionRefusedIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	d := NewDispatcher(testConfig(host))
	_, err := d.Dispatch(context.Background(), urls.Status(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeNetwork))
	assert.True(t, pkgerrors.IsTransport(err))
}

func TestDispatch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 20 * time.Millisecond
	_, err := NewDispatcher(cfg).Dispatch(context.Background(), urls.Status(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsTransport(err))
}

func TestDispatch_UnencodablePayload(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, ``)
	d := NewDispatcher(testConfig(srv.URL))

	_, err := d.Dispatch(context.Background(), urls.UpdateNode(valueobjects.ID(1)), map[string]any{"bad": make(chan int)})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestDispatch_LogsRequestResponseAndCurl(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{"id":1}`)
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDispatcher(testConfig(srv.URL), WithLogger(zap.New(core)))

	_, err := d.Dispatch(context.Background(), urls.UpdateNode(valueobjects.ID(1)), map[string]any{"title": "Ran"})
	require.NoError(t, err)

	curl := logs.FilterMessage("sheldon curl").All()
	require.Len(t, curl, 1)
	assert.Equal(t, "curl -v -X PUT '"+srv.URL+"/nodes/1' -H 'Content-Type: application/json' -H 'Accept: application/json' -d '{\"title\":\"Ran\"}'",
		curl[0].ContextMap()["command"])

	req := logs.FilterMessage("sheldon request").All()
	require.Len(t, req, 1)
	assert.Equal(t, "PUT", req[0].ContextMap()["method"])
	assert.Equal(t, srv.URL+"/nodes/1", req[0].ContextMap()["url"])

	res := logs.FilterMessage("sheldon response").All()
	require.Len(t, res, 1)
	assert.Equal(t, int64(200), res[0].ContextMap()["status"])
}

func TestDispatch_MetricsAndSpans(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `[]`)
	metrics := observability.NewCollector("test")
	recorder := tracetest.NewSpanRecorder()
	provider := observability.NewTracerProvider("test", sdktrace.WithSpanProcessor(recorder))

	d := NewDispatcher(testConfig(srv.URL),
		WithMetrics(metrics),
		WithTracer(observability.NewTracer("test", provider)),
	)
	_, err := d.Dispatch(context.Background(), urls.Neighbours(valueobjects.ID(3), ""), nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues("GET", "200")))
	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /nodes/3/neighbours", spans[0].Name())
}

func TestWithHost_DerivesWithoutMutating(t *testing.T) {
	d := NewDispatcher(testConfig("http://sheldon.host"))
	other := d.WithHost("http://other.sheldon.host/")

	assert.Equal(t, "http://sheldon.host", d.Host())
	assert.Equal(t, "http://other.sheldon.host", other.Host())
}

func TestCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.CircuitBreaker = config.CircuitBreaker{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}
	d := NewDispatcher(cfg)

	for i := 0; i < 2; i++ {
		resp, err := d.Dispatch(context.Background(), urls.Status(), nil)
		require.NoError(t, err, "5xx responses are still returned to the caller")
		assert.Equal(t, http.StatusBadGateway, resp.Status)
	}

	_, err := d.Dispatch(context.Background(), urls.Status(), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsUnavailable(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestCurl_QuotesBody(t *testing.T) {
	assert.Equal(t,
		"curl -v -X GET 'http://h/status' -H 'Content-Type: application/json' -H 'Accept: application/json'",
		Curl("GET", "http://h/status", nil))
	assert.Contains(t, Curl("PUT", "http://h/nodes/1", []byte(`{"t":"it's"}`)), `-d '{"t":"it'\''s"}'`)
}
