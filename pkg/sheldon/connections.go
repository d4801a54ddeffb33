package sheldon

import (
	"context"
	"net/http"

	"sheldon-client/application/response"
	"sheldon-client/infrastructure/urls"
	pkgerrors "sheldon-client/pkg/errors"
)

// Connection fetches a connection by id; nil when not answered with 200
func (c *Client) Connection(ctx context.Context, ref Ref) (*Connection, error) {
	if err := requireRef(ref, "connection"); err != nil {
		return nil, err
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.FetchConnection(ref), nil)
	if err != nil {
		return nil, err
	}
	return response.Connection(resp, http.StatusOK)
}

// ConnectionBetween fetches the connection of a type from one node to another
func (c *Client) ConnectionBetween(ctx context.Context, from, to Ref, connectionType string) (*Connection, error) {
	if err := requireEnds(from, to, connectionType); err != nil {
		return nil, err
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.ConnectionBetween(from, connectionType, to), nil)
	if err != nil {
		return nil, err
	}
	return response.Connection(resp, http.StatusOK)
}

// CreateConnection validates the request against the schema and creates the
// connection. The created connection is returned on 201, nil otherwise.
func (c *Client) CreateConnection(ctx context.Context, req CreateConnectionRequest) (*Connection, error) {
	if err := req.Validate(nil); err != nil {
		return nil, err
	}
	s, err := c.schema.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(s); err != nil {
		return nil, err
	}

	resp, err := c.dispatcher.Dispatch(ctx, urls.PutConnection(req.From, req.Type, req.To), req.Body())
	if err != nil {
		return nil, err
	}
	return response.Connection(resp, http.StatusCreated)
}

// UpdateConnection replaces the payload of the connection between two nodes
func (c *Client) UpdateConnection(ctx context.Context, from, to Ref, connectionType string, payload Payload) (bool, error) {
	if err := requireEnds(from, to, connectionType); err != nil {
		return false, err
	}
	if payload == nil {
		payload = Payload{}
	}
	return c.mutate(ctx, urls.PutConnection(from, connectionType, to), payload)
}

// DeleteConnection removes a connection
func (c *Client) DeleteConnection(ctx context.Context, ref Ref) (bool, error) {
	if err := requireRef(ref, "connection"); err != nil {
		return false, err
	}
	return c.mutate(ctx, urls.DeleteConnection(ref), nil)
}

// ReindexConnection refreshes the search index entries of a connection
func (c *Client) ReindexConnection(ctx context.Context, ref Ref) (bool, error) {
	if err := requireRef(ref, "connection"); err != nil {
		return false, err
	}
	return c.mutate(ctx, urls.ReindexConnection(ref), nil)
}

// Connections lists the connections of a type starting at node
func (c *Client) Connections(ctx context.Context, node Ref, connectionType string) ([]*Connection, error) {
	if err := requireRef(node, "node"); err != nil {
		return []*Connection{}, err
	}
	if connectionType == "" {
		return []*Connection{}, pkgerrors.NewValidationError("connection type is required")
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.NodeConnections(node, connectionType), nil)
	if err != nil {
		return []*Connection{}, err
	}
	return response.Connections(resp)
}

// Neighbours lists the nodes connected to node, narrowed to a connection type
// when connectionType is not empty
func (c *Client) Neighbours(ctx context.Context, node Ref, connectionType string) ([]*Node, error) {
	if err := requireRef(node, "node"); err != nil {
		return []*Node{}, err
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.Neighbours(node, connectionType), nil)
	if err != nil {
		return []*Node{}, err
	}
	return response.Nodes(resp)
}

func requireEnds(from, to Ref, connectionType string) error {
	if connectionType == "" {
		return pkgerrors.NewValidationError("connection type is required")
	}
	if err := requireRef(from, "source node"); err != nil {
		return err
	}
	return requireRef(to, "target node")
}
