package sheldon

import (
	"context"
	"net/http"

	"sheldon-client/application/response"
	"sheldon-client/infrastructure/urls"
	pkgerrors "sheldon-client/pkg/errors"
)

// Node fetches a node; nil when the backend does not answer 200
func (c *Client) Node(ctx context.Context, ref Ref) (*Node, error) {
	if err := requireRef(ref, "node"); err != nil {
		return nil, err
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.FetchNode(ref), nil)
	if err != nil {
		return nil, err
	}
	return response.Node(resp, http.StatusOK)
}

// CreateNode validates the type against the schema and creates the node. The
// created node is returned on 201, nil on any other status.
func (c *Client) CreateNode(ctx context.Context, req CreateNodeRequest) (*Node, error) {
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

	resp, err := c.dispatcher.Dispatch(ctx, urls.CreateNode(req.Type), req.Body())
	if err != nil {
		return nil, err
	}
	return response.Node(resp, http.StatusCreated)
}

// UpdateNode replaces the payload of a node
func (c *Client) UpdateNode(ctx context.Context, ref Ref, payload Payload) (bool, error) {
	if err := requireRef(ref, "node"); err != nil {
		return false, err
	}
	if payload == nil {
		payload = Payload{}
	}
	return c.mutate(ctx, urls.UpdateNode(ref), payload)
}

// DeleteNode removes a node
func (c *Client) DeleteNode(ctx context.Context, ref Ref) (bool, error) {
	if err := requireRef(ref, "node"); err != nil {
		return false, err
	}
	return c.mutate(ctx, urls.DeleteNode(ref), nil)
}

// ReindexNode refreshes the search index entries of a node
func (c *Client) ReindexNode(ctx context.Context, ref Ref) (bool, error) {
	if err := requireRef(ref, "node"); err != nil {
		return false, err
	}
	return c.mutate(ctx, urls.ReindexNode(ref), nil)
}

// NodeIDs lists the ids of every node of a type; empty when not answered with 200
func (c *Client) NodeIDs(ctx context.Context, nodeType string) ([]int64, error) {
	if nodeType == "" {
		return []int64{}, pkgerrors.NewValidationError("node type is required")
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.NodeIDsOfType(nodeType), nil)
	if err != nil {
		return []int64{}, err
	}
	return response.IDs(resp)
}

func (c *Client) mutate(ctx context.Context, ep urls.Endpoint, body any) (bool, error) {
	resp, err := c.dispatcher.Dispatch(ctx, ep, body)
	if err != nil {
		return false, err
	}
	return response.Bool(resp), nil
}
