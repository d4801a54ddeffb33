// Package sheldon is the client for the Sheldon graph backend. Every operation
// sends exactly one request (plus, for schema-checked operations, a memoized
// /status fetch) and reports absence as nil, false or an empty collection.
// Returned errors are either VALIDATION errors, raised before any request, or
// transport errors (NETWORK, MALFORMED, UNAVAILABLE).
package sheldon

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"sheldon-client/application/commands"
	"sheldon-client/application/services"
	"sheldon-client/domain/core/entities"
	"sheldon-client/domain/core/valueobjects"
	"sheldon-client/domain/schema"
	"sheldon-client/infrastructure/config"
	"sheldon-client/infrastructure/transport"
	pkgerrors "sheldon-client/pkg/errors"
	"sheldon-client/pkg/observability"
)

type (
	Node       = entities.Node
	Connection = entities.Connection
	Payload    = entities.Payload
	Collection = entities.Collection
	Object     = entities.Object
	ID         = valueobjects.ID
	Ref        = valueobjects.Ref
	Schema     = schema.Schema
	SearchMode = valueobjects.SearchMode
	ScoreKind  = valueobjects.ScoreKind

	CreateNodeRequest       = commands.CreateNodeCommand
	CreateConnectionRequest = commands.CreateConnectionCommand
)

const (
	SearchDefault  = valueobjects.SearchModeDefault
	SearchExact    = valueobjects.SearchModeExact
	SearchFulltext = valueobjects.SearchModeFulltext

	ScoresAll       = valueobjects.ScoreKindAll
	ScoresTracked   = valueobjects.ScoreKindTracked
	ScoresUntracked = valueobjects.ScoreKindUntracked
)

// NewNode builds a node locally; it has no id until the backend creates it
func NewNode(nodeType string, payload Payload) *Node {
	return entities.NewNode(nodeType, payload)
}

// Client is bound to one backend host. It is safe for concurrent use; a host
// override is a derived Client, never a mutation.
type Client struct {
	cfg        config.Config
	dispatcher *transport.Dispatcher
	schema     *services.SchemaCache
	logger     *zap.Logger
	metrics    *observability.Collector
}

type options struct {
	logger         *zap.Logger
	httpClient     *http.Client
	metrics        *observability.Collector
	tracerProvider trace.TracerProvider
}

// Option customizes a Client
type Option func(*options)

// WithLogger replaces the logger built from the logging configuration
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHTTPClient replaces the HTTP client built from the timeout setting
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithMetrics records requests on collector regardless of the metrics setting
func WithMetrics(collector *observability.Collector) Option {
	return func(o *options) { o.metrics = collector }
}

// WithTracerProvider traces requests on provider regardless of the tracing setting
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = provider }
}

// New validates cfg and builds a client. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	c := *cfg
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		built, err := observability.NewLogger(c.Logging)
		if err != nil {
			return nil, pkgerrors.NewValidationErrorf("logging: %v", err)
		}
		logger = built
	}

	metrics := o.metrics
	if metrics == nil && c.Metrics.Enabled {
		metrics = observability.NewCollector(c.Metrics.Namespace)
	}

	tracer := observability.NoopTracer()
	switch {
	case o.tracerProvider != nil:
		tracer = observability.NewTracer(c.Tracing.ServiceName, o.tracerProvider)
	case c.Tracing.Enabled:
		tracer = observability.NewTracer(c.Tracing.ServiceName, nil)
	}

	dispatcher := transport.NewDispatcher(c,
		transport.WithLogger(logger),
		transport.WithHTTPClient(o.httpClient),
		transport.WithMetrics(metrics),
		transport.WithTracer(tracer),
	)

	return &Client{
		cfg:        c,
		dispatcher: dispatcher,
		schema:     services.NewSchemaCache(dispatcher, metrics, logger),
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Host returns the backend this client talks to
func (c *Client) Host() string {
	return c.dispatcher.Host()
}

// Metrics returns the collector, nil when metrics are off
func (c *Client) Metrics() *observability.Collector {
	return c.metrics
}

// WithHost derives a client for another backend. The derived client has its
// own schema cache; the receiver is unchanged.
func (c *Client) WithHost(host string) *Client {
	derived := *c
	derived.cfg.Host = config.NormalizeHost(host)
	derived.dispatcher = c.dispatcher.WithHost(host)
	derived.schema = services.NewSchemaCache(derived.dispatcher, c.metrics, c.logger)
	return &derived
}

// WithTemporaryHost runs fn against host. The receiver keeps its host whatever
// fn does, since fn only ever sees a derived client.
func (c *Client) WithTemporaryHost(host string, fn func(*Client) error) error {
	return fn(c.WithHost(host))
}

// InvalidateSchema drops the cached /status schema
func (c *Client) InvalidateSchema() {
	c.schema.Invalidate()
}

// Status returns the backend schema, fetched once and then memoized. A non-200
// /status is an UNAVAILABLE error.
func (c *Client) Status(ctx context.Context) (*Schema, error) {
	return c.schema.Get(ctx)
}

// NodeTypes lists the declared node types (plural)
func (c *Client) NodeTypes(ctx context.Context) ([]string, error) {
	s, err := c.schema.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.NodeTypes(), nil
}

// ConnectionTypes lists the declared connection types
func (c *Client) ConnectionTypes(ctx context.Context) ([]string, error) {
	s, err := c.schema.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.ConnectionTypes(), nil
}

// ValidOutgoingTypes lists connection types that may start at nodeType
func (c *Client) ValidOutgoingTypes(ctx context.Context, nodeType string) ([]string, error) {
	s, err := c.schema.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.ValidOutgoingTypes(nodeType), nil
}

// ValidIncomingTypes lists connection types that may end at nodeType
func (c *Client) ValidIncomingTypes(ctx context.Context, nodeType string) ([]string, error) {
	s, err := c.schema.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.ValidIncomingTypes(nodeType), nil
}

func requireRef(ref Ref, what string) error {
	if ref == nil || ref.RefID() <= 0 {
		return pkgerrors.NewValidationErrorf("%s reference is required", what)
	}
	return nil
}
