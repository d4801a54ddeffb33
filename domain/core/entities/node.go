package entities

import (
	"fmt"
	"reflect"

	"sheldon-client/domain/core/valueobjects"
)

// Node is a vertex of the remote graph. The id is assigned by the backend and
// cannot change once a node has been materialized from a response.
type Node struct {
	id       int64
	nodeType string
	payload  Payload
}

// NewNode builds a node locally, prior to a create call. It has no id yet.
func NewNode(nodeType string, payload Payload) *Node {
	return &Node{
		nodeType: valueobjects.NormalizeType(nodeType),
		payload:  payload.Clone(),
	}
}

// ReconstructNode rebuilds a node from backend data
func ReconstructNode(id int64, nodeType string, payload Payload) *Node {
	return &Node{
		id:       id,
		nodeType: valueobjects.NormalizeType(nodeType),
		payload:  payload.Clone(),
	}
}

// ID returns the backend identifier, 0 for nodes not yet created
func (n *Node) ID() int64 {
	return n.id
}

// RefID implements valueobjects.Ref
func (n *Node) RefID() int64 {
	if n == nil {
		return 0
	}
	return n.id
}

// Type returns the singular, snake case type tag
func (n *Node) Type() string {
	return n.nodeType
}

// Payload returns the live payload; changes are sent by the next save
func (n *Node) Payload() Payload {
	return n.payload
}

// Get returns a payload value
func (n *Node) Get(key string) (any, bool) {
	return n.payload.Get(key)
}

// Set changes a payload value locally
func (n *Node) Set(key string, value any) {
	n.payload.Set(key, value)
}

// Name returns the first present of name, title and username. Display only.
func (n *Node) Name() string {
	return displayName(n.payload)
}

// IsPersisted reports whether the node came from the backend
func (n *Node) IsPersisted() bool {
	return n.id != 0
}

// Equal compares id, type and payload
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.id == other.id &&
		n.nodeType == other.nodeType &&
		reflect.DeepEqual(n.payload, other.payload)
}

func (n *Node) String() string {
	return fmt.Sprintf("#<Sheldon::Node %d (%s/%s)>", n.id, valueobjects.DisplayType(n.nodeType), n.Name())
}

func displayName(p Payload) string {
	for _, key := range []string{"name", "title", "username"} {
		if v, ok := p.Get(key); ok && v != nil {
			return p.String(key)
		}
	}
	return ""
}
