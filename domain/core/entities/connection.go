package entities

import (
	"fmt"
	"sort"

	"sheldon-client/domain/core/valueobjects"
)

// Connection is a typed, directed edge between two nodes
type Connection struct {
	id             int64
	connectionType string
	fromID         int64
	toID           int64
	payload        Payload
}

// NewConnection builds a connection locally, prior to a create call
func NewConnection(connectionType string, from, to valueobjects.Ref, payload Payload) *Connection {
	return &Connection{
		connectionType: valueobjects.NormalizeType(connectionType),
		fromID:         refID(from),
		toID:           refID(to),
		payload:        payload.Clone(),
	}
}

// ReconstructConnection rebuilds a connection from backend data
func ReconstructConnection(id int64, connectionType string, fromID, toID int64, payload Payload) *Connection {
	return &Connection{
		id:             id,
		connectionType: valueobjects.NormalizeType(connectionType),
		fromID:         fromID,
		toID:           toID,
		payload:        payload.Clone(),
	}
}

func (c *Connection) ID() int64 { return c.id }

// RefID implements valueobjects.Ref
func (c *Connection) RefID() int64 {
	if c == nil {
		return 0
	}
	return c.id
}

func (c *Connection) Type() string { return c.connectionType }

func (c *Connection) FromID() int64 { return c.fromID }

func (c *Connection) ToID() int64 { return c.toID }

// Payload returns the live payload; changes are sent by the next save
func (c *Connection) Payload() Payload { return c.payload }

// Get returns a payload value
func (c *Connection) Get(key string) (any, bool) {
	return c.payload.Get(key)
}

// Set changes a payload value locally
func (c *Connection) Set(key string, value any) {
	c.payload.Set(key, value)
}

// Name returns the first present of name, title and username
func (c *Connection) Name() string {
	return displayName(c.payload)
}

// Weight is the numeric payload weight, 0 when missing or not a number
func (c *Connection) Weight() float64 {
	return c.payload.Float("weight")
}

func (c *Connection) String() string {
	return fmt.Sprintf("#<Sheldon::Connection %d (%s/%d->%d)>", c.id, c.connectionType, c.fromID, c.toID)
}

// CompareByWeight orders connections by descending weight: it is negative when a
// ranks before b.
func CompareByWeight(a, b *Connection) int {
	wa, wb := a.Weight(), b.Weight()
	switch {
	case wa == wb:
		return 0
	case wb > wa:
		return 1
	default:
		return -1
	}
}

// SortByWeight sorts connections in place, heaviest first. Equal weights keep
// their original order.
func SortByWeight(connections []*Connection) {
	sort.SliceStable(connections, func(i, j int) bool {
		return CompareByWeight(connections[i], connections[j]) < 0
	})
}

func refID(ref valueobjects.Ref) int64 {
	if ref == nil {
		return 0
	}
	return ref.RefID()
}
