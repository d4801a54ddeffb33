package sheldon

import (
	"context"
	"sort"

	"sheldon-client/domain/core/valueobjects"
	pkgerrors "sheldon-client/pkg/errors"
)

// NodeHandle binds a node to a client so connections can be created and
// traversed from it, checked against the schema of the node's type.
type NodeHandle struct {
	client *Client
	node   *Node
}

// Bind returns a handle on node
func (c *Client) Bind(node *Node) *NodeHandle {
	return &NodeHandle{client: c, node: node}
}

// Node returns the bound node
func (h *NodeHandle) Node() *Node {
	return h.node
}

// Save sends the full current payload as the node's new payload
func (h *NodeHandle) Save(ctx context.Context) (bool, error) {
	if err := h.requirePersisted(); err != nil {
		return false, err
	}
	return h.client.UpdateNode(ctx, h.node, h.node.Payload())
}

// Reindex refreshes the node's search index entries
func (h *NodeHandle) Reindex(ctx context.Context) (bool, error) {
	if err := h.requirePersisted(); err != nil {
		return false, err
	}
	return h.client.ReindexNode(ctx, h.node)
}

// OutgoingConnectionTypes lists connection types that may start at this node
func (h *NodeHandle) OutgoingConnectionTypes(ctx context.Context) ([]string, error) {
	if err := h.requireNode(); err != nil {
		return nil, err
	}
	return h.client.ValidOutgoingTypes(ctx, h.node.Type())
}

// IncomingConnectionTypes lists connection types that may end at this node
func (h *NodeHandle) IncomingConnectionTypes(ctx context.Context) ([]string, error) {
	if err := h.requireNode(); err != nil {
		return nil, err
	}
	return h.client.ValidIncomingTypes(ctx, h.node.Type())
}

// ConnectionTypes is the sorted union of outgoing and incoming types
func (h *NodeHandle) ConnectionTypes(ctx context.Context) ([]string, error) {
	if err := h.requireNode(); err != nil {
		return nil, err
	}
	s, err := h.client.schema.Get(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, t := range s.ValidOutgoingTypes(h.node.Type()) {
		seen[t] = struct{}{}
	}
	for _, t := range s.ValidIncomingTypes(h.node.Type()) {
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// Connections lists this node's connections of an outgoing-valid type
func (h *NodeHandle) Connections(ctx context.Context, connectionType string) ([]*Connection, error) {
	if err := h.requirePersisted(); err != nil {
		return []*Connection{}, err
	}
	valid, err := h.OutgoingConnectionTypes(ctx)
	if err != nil {
		return []*Connection{}, err
	}
	if !containsType(valid, connectionType) {
		return []*Connection{}, h.unknownType(connectionType)
	}
	return h.client.Connections(ctx, h.node, connectionType)
}

// Neighbours lists connected nodes. An empty type returns all neighbours;
// otherwise the type must be valid for this node in either direction.
func (h *NodeHandle) Neighbours(ctx context.Context, connectionType string) ([]*Node, error) {
	if err := h.requirePersisted(); err != nil {
		return []*Node{}, err
	}
	if connectionType != "" {
		valid, err := h.ConnectionTypes(ctx)
		if err != nil {
			return []*Node{}, err
		}
		if !containsType(valid, connectionType) {
			return []*Node{}, h.unknownType(connectionType)
		}
	}
	return h.client.Neighbours(ctx, h.node, connectionType)
}

// CreateConnection connects this node to target. The type must be declared as
// outgoing for this node's type, otherwise a validation error is returned and
// nothing is sent.
func (h *NodeHandle) CreateConnection(ctx context.Context, connectionType string, target Ref, payload Payload) (*Connection, error) {
	if err := h.requirePersisted(); err != nil {
		return nil, err
	}
	valid, err := h.OutgoingConnectionTypes(ctx)
	if err != nil {
		return nil, err
	}
	if !containsType(valid, connectionType) {
		return nil, h.unknownType(connectionType)
	}
	return h.client.CreateConnection(ctx, CreateConnectionRequest{
		Type:    connectionType,
		From:    h.node,
		To:      target,
		Payload: payload,
	})
}

// requireNode only needs a type; the node may not be created yet
func (h *NodeHandle) requireNode() error {
	if h.node == nil {
		return pkgerrors.NewValidationError("node is required")
	}
	return nil
}

func (h *NodeHandle) requirePersisted() error {
	if h.node == nil || !h.node.IsPersisted() {
		return pkgerrors.NewValidationError("node has not been created yet")
	}
	return nil
}

func (h *NodeHandle) unknownType(connectionType string) error {
	return pkgerrors.NewValidationErrorf("unknown connection type %s for %s", connectionType, h.node.Type())
}

func containsType(types []string, connectionType string) bool {
	normalized := valueobjects.NormalizeType(connectionType)
	plural := valueobjects.Pluralize(connectionType)
	for _, t := range types {
		if t == normalized || t == plural {
			return true
		}
	}
	return false
}
