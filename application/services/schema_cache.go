package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"sheldon-client/application/ports"
	"sheldon-client/domain/schema"
	"sheldon-client/infrastructure/urls"
	pkgerrors "sheldon-client/pkg/errors"
	"sheldon-client/pkg/observability"
)

// SchemaCache fetches /status on first use and keeps the parsed schema until
// Invalidate is called. Failed fetches are not remembered.
type SchemaCache struct {
	dispatcher ports.Dispatcher
	metrics    *observability.Collector
	logger     *zap.Logger
	group      singleflight.Group

	mu         sync.Mutex
	schema     *schema.Schema
	generation uint64
}

// NewSchemaCache creates an empty cache
func NewSchemaCache(dispatcher ports.Dispatcher, metrics *observability.Collector, logger *zap.Logger) *SchemaCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaCache{
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// Get returns the memoized schema, fetching it when needed. Concurrent callers
// share one fetch; each stops waiting as soon as its own ctx is done.
func (c *SchemaCache) Get(ctx context.Context) (*schema.Schema, error) {
	c.mu.Lock()
	s, generation := c.schema, c.generation
	c.mu.Unlock()
	if s != nil {
		return s, nil
	}

	// the shared fetch outlives any single waiter; the HTTP timeout bounds it
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(generation, 10), func() (interface{}, error) {
		return c.load(fetchCtx, generation)
	})

	select {
	case <-ctx.Done():
		return nil, pkgerrors.NewNetworkError("waiting for sheldon schema", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*schema.Schema), nil
	}
}

// Invalidate drops the cached schema; the next Get refetches
func (c *SchemaCache) Invalidate() {
	c.mu.Lock()
	c.schema = nil
	c.generation++
	c.mu.Unlock()
}

// Cached reports whether a schema is held
func (c *SchemaCache) Cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema != nil
}

// load fetches and stores the schema unless Invalidate ran in the meantime
func (c *SchemaCache) load(ctx context.Context, generation uint64) (*schema.Schema, error) {
	c.mu.Lock()
	cached := c.schema
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	s, err := c.fetch(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "fetch schema")
	}

	c.mu.Lock()
	if c.generation == generation {
		c.schema = s
	}
	c.mu.Unlock()

	c.metrics.ObserveSchemaFetch()
	c.logger.Debug("sheldon schema cached",
		zap.String("host", c.dispatcher.Host()),
		zap.Strings("node_types", s.NodeTypes()),
		zap.Strings("connection_types", s.ConnectionTypes()),
	)
	return s, nil
}

func (c *SchemaCache) fetch(ctx context.Context) (*schema.Schema, error) {
	resp, err := c.dispatcher.Dispatch(ctx, urls.Status(), nil)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, pkgerrors.NewUnavailableError(c.dispatcher.Host()).
			WithDetails(map[string]interface{}{"status": resp.Status})
	}
	s, err := schema.Parse(resp.Body)
	if err != nil {
		return nil, pkgerrors.NewMalformedError("status", fmt.Errorf("parse schema: %w", err))
	}
	return s, nil
}
