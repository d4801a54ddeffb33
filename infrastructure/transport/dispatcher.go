// Package transport sends exactly one HTTP request per call to the graph backend
// and hands back the raw status and body.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"sheldon-client/infrastructure/config"
	"sheldon-client/infrastructure/urls"
	pkgerrors "sheldon-client/pkg/errors"
	"sheldon-client/pkg/observability"
)

// RequestIDHeader carries a per-request id the backend can log
const RequestIDHeader = "X-Request-ID"

// errServerFailure marks a 5xx for the breaker; the response itself still
// reaches the caller.
var errServerFailure = errors.New("backend answered with a server error")

// Response is the raw outcome of one round trip
type Response struct {
	Status    int
	Body      []byte
	Header    http.Header
	RequestID string
}

// Dispatcher owns the connection settings of one backend host
type Dispatcher struct {
	host    string
	cfg     config.Config
	client  *http.Client
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker
	metrics *observability.Collector
	tracer  *observability.Tracer
}

// Option customizes a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the request logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying client. Its timeout is left untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithMetrics records every round trip on the collector
func WithMetrics(metrics *observability.Collector) Option {
	return func(d *Dispatcher) { d.metrics = metrics }
}

// WithTracer opens a client span per request
func WithTracer(tracer *observability.Tracer) Option {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// NewDispatcher creates a dispatcher for cfg.Host
func NewDispatcher(cfg config.Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		host:   config.NormalizeHost(cfg.Host),
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: zap.NewNop(),
		tracer: observability.NoopTracer(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if cfg.CircuitBreaker.Enabled {
		d.breaker = newBreaker(d.host, cfg.CircuitBreaker, d.logger)
	}
	return d
}

// Host returns the backend base URL without a trailing slash
func (d *Dispatcher) Host() string {
	return d.host
}

// WithHost derives a dispatcher for another backend. The receiver is not
// modified; breaker state is kept per host.
func (d *Dispatcher) WithHost(host string) *Dispatcher {
	derived := *d
	derived.host = config.NormalizeHost(host)
	derived.cfg.Host = derived.host
	if d.breaker != nil {
		derived.breaker = newBreaker(derived.host, d.cfg.CircuitBreaker, d.logger)
	}
	return &derived
}

// Dispatch sends ep with body encoded as JSON when non-nil. Any status code is
// a successful dispatch; only failures to complete the exchange are errors.
func (d *Dispatcher) Dispatch(ctx context.Context, ep urls.Endpoint, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.NewValidationErrorf("payload cannot be encoded as JSON: %v", err)
		}
		payload = encoded
	}

	target := ep.URL(d.host)
	ctx, span := d.tracer.StartSpan(ctx, ep.Method+" "+ep.Path,
		attribute.String("http.method", ep.Method),
		attribute.String("http.url", target),
	)

	resp, err := d.execute(ctx, ep.Method, target, payload)
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.Status))
	}
	observability.EndSpan(span, err)
	return resp, err
}

func (d *Dispatcher) execute(ctx context.Context, method, target string, payload []byte) (*Response, error) {
	if d.breaker == nil {
		return d.roundTrip(ctx, method, target, payload)
	}

	result, err := d.breaker.Execute(func() (interface{}, error) {
		resp, err := d.roundTrip(ctx, method, target, payload)
		if err != nil {
			return nil, err
		}
		if resp.Status >= http.StatusInternalServerError {
			return resp, errServerFailure
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, errServerFailure):
		return result.(*Response), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		d.logger.Warn("sheldon request rejected by circuit breaker",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err),
		)
		d.metrics.ObserveTransportError(method, string(pkgerrors.ErrorTypeUnavailable))
		return nil, pkgerrors.NewUnavailableError(d.host).WithCause(err)
	case err != nil:
		return nil, err
	}
	return result.(*Response), nil
}

func (d *Dispatcher) roundTrip(ctx context.Context, method, target string, payload []byte) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, pkgerrors.NewNetworkError(fmt.Sprintf("cannot build request %s %s", method, target), err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	d.logger.Debug("sheldon curl", zap.String("command", Curl(method, target, payload)))

	start := time.Now()
	httpResp, err := d.client.Do(req)
	if err != nil {
		d.metrics.ObserveTransportError(method, string(pkgerrors.ErrorTypeNetwork))
		d.logger.Error("sheldon request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, pkgerrors.NewNetworkError(fmt.Sprintf("%s %s failed", method, target), err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	elapsed := time.Since(start)
	if err != nil {
		d.metrics.ObserveTransportError(method, string(pkgerrors.ErrorTypeNetwork))
		return nil, pkgerrors.NewNetworkError(fmt.Sprintf("%s %s: reading response body", method, target), err)
	}

	d.metrics.ObserveRequest(method, httpResp.StatusCode, elapsed)
	d.logger.Info("sheldon request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Duration("elapsed", elapsed),
		zap.String("request_id", requestID),
	)
	d.logger.Info("sheldon response",
		zap.Int("status", httpResp.StatusCode),
		zap.ByteString("body", body),
		zap.String("request_id", requestID),
	)

	return &Response{
		Status:    httpResp.StatusCode,
		Body:      body,
		Header:    httpResp.Header,
		RequestID: requestID,
	}, nil
}

// Curl renders a command line that reproduces the request
func Curl(method, target string, payload []byte) string {
	var b strings.Builder
	b.WriteString("curl -v -X ")
	b.WriteString(method)
	b.WriteString(" '")
	b.WriteString(target)
	b.WriteString("' -H 'Content-Type: application/json' -H 'Accept: application/json'")
	if len(payload) > 0 {
		b.WriteString(" -d '")
		b.WriteString(strings.ReplaceAll(string(payload), "'", `'\''`))
		b.WriteString("'")
	}
	return b.String()
}

func newBreaker(host string, cfg config.CircuitBreaker, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("sheldon circuit breaker state changed",
				zap.String("host", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}
