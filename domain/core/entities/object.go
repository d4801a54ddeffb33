package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is either a *Node or a *Connection
type Object interface {
	RefID() int64
	Type() string
	Payload() Payload
	Name() string
	String() string
}

// Collection is a heterogeneous list of nodes and connections, as returned by
// search and generic collection endpoints.
type Collection []Object

// Nodes returns the nodes of the collection, in order
func (c Collection) Nodes() []*Node {
	nodes := make([]*Node, 0, len(c))
	for _, obj := range c {
		if n, ok := obj.(*Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Connections returns the connections of the collection, in order
func (c Collection) Connections() []*Connection {
	connections := make([]*Connection, 0, len(c))
	for _, obj := range c {
		if conn, ok := obj.(*Connection); ok {
			connections = append(connections, conn)
		}
	}
	return connections
}

// IsConnectionData reports whether a decoded JSON object describes a connection.
// Carrying both "from" and "to" is the only discriminator the backend offers.
func IsConnectionData(data map[string]any) bool {
	_, hasFrom := data["from"]
	_, hasTo := data["to"]
	return hasFrom && hasTo
}

// ObjectFromMap classifies and builds a domain object from decoded JSON
func ObjectFromMap(data map[string]any) Object {
	if IsConnectionData(data) {
		return ConnectionFromMap(data)
	}
	return NodeFromMap(data)
}

// NodeFromMap builds a node from decoded JSON. A missing payload becomes empty.
func NodeFromMap(data map[string]any) *Node {
	return ReconstructNode(toInt(data["id"]), typeTag(data), payloadOf(data))
}

// ConnectionFromMap builds a connection from decoded JSON
func ConnectionFromMap(data map[string]any) *Connection {
	return ReconstructConnection(
		toInt(data["id"]),
		typeTag(data),
		toInt(data["from"]),
		toInt(data["to"]),
		payloadOf(data),
	)
}

// DecodeNode parses a single JSON object as a node
func DecodeNode(body []byte) (*Node, error) {
	data, err := decodeMap(body)
	if err != nil {
		return nil, err
	}
	return NodeFromMap(data), nil
}

// DecodeConnection parses a single JSON object as a connection
func DecodeConnection(body []byte) (*Connection, error) {
	data, err := decodeMap(body)
	if err != nil {
		return nil, err
	}
	return ConnectionFromMap(data), nil
}

// DecodeCollection parses a JSON array, classifying every element on its own
func DecodeCollection(body []byte) (Collection, error) {
	var items []map[string]any
	if err := DecodeJSON(body, &items); err != nil {
		return nil, err
	}
	out := make(Collection, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, ObjectFromMap(item))
	}
	return out, nil
}

// DecodeJSON decodes body into target keeping numbers as json.Number so ids and
// payload integers survive without float rounding.
func DecodeJSON(body []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return err
	}
	return nil
}

func decodeMap(body []byte) (map[string]any, error) {
	var data map[string]any
	if err := DecodeJSON(body, &data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("expected a JSON object, got %q", bytes.TrimSpace(body))
	}
	return data, nil
}

func typeTag(data map[string]any) string {
	if s, ok := data["type"].(string); ok {
		return s
	}
	return ""
}

func payloadOf(data map[string]any) Payload {
	if p, ok := data["payload"].(map[string]any); ok {
		return Payload(p)
	}
	return Payload{}
}
