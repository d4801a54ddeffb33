// Package schema models the type information the backend reports on /status:
// which node types exist, which connection types exist, and which node types
// each connection type may start from and point to.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"sheldon-client/domain/core/entities"
	"sheldon-client/domain/core/valueobjects"
)

// NodeType describes one declared node type
type NodeType struct {
	Name       string
	Properties []string
	Count      int64
}

// ConnectionType describes one declared connection type. Sources and Targets
// hold plural node type names.
type ConnectionType struct {
	Name       string
	Properties []string
	Sources    []string
	Targets    []string
	Count      int64
}

// Schema is an immutable snapshot of the backend's type system. Node type keys
// are plural ("movies"), connection type keys as declared ("likes").
type Schema struct {
	nodes       map[string]NodeType
	connections map[string]ConnectionType
	raw         map[string]any
}

type statusDocument struct {
	Schema struct {
		Nodes       map[string]json.RawMessage `json:"nodes"`
		Connections map[string]json.RawMessage `json:"connections"`
	} `json:"schema"`
}

type typeDocument struct {
	Properties json.RawMessage `json:"properties"`
	Sources    []string        `json:"sources"`
	Targets    []string        `json:"targets"`
	Count      json.Number     `json:"count"`
}

// Parse builds a schema from the body of a /status response
func Parse(body []byte) (*Schema, error) {
	var doc statusDocument
	if err := entities.DecodeJSON(body, &doc); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}

	var raw map[string]any
	if err := entities.DecodeJSON(body, &raw); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}

	s := &Schema{
		nodes:       make(map[string]NodeType, len(doc.Schema.Nodes)),
		connections: make(map[string]ConnectionType, len(doc.Schema.Connections)),
		raw:         raw,
	}

	for name, rawType := range doc.Schema.Nodes {
		td, ok, err := decodeType(rawType)
		if err != nil {
			return nil, fmt.Errorf("node type %s: %w", name, err)
		}
		if !ok {
			continue
		}
		props, err := propertyNames(td.Properties)
		if err != nil {
			return nil, fmt.Errorf("node type %s: %w", name, err)
		}
		key := valueobjects.Pluralize(name)
		s.nodes[key] = NodeType{Name: key, Properties: props, Count: count(td.Count)}
	}

	for name, rawType := range doc.Schema.Connections {
		td, ok, err := decodeType(rawType)
		if err != nil {
			return nil, fmt.Errorf("connection type %s: %w", name, err)
		}
		if !ok {
			continue
		}
		props, err := propertyNames(td.Properties)
		if err != nil {
			return nil, fmt.Errorf("connection type %s: %w", name, err)
		}
		key := valueobjects.NormalizeType(name)
		s.connections[key] = ConnectionType{
			Name:       key,
			Properties: props,
			Sources:    pluralizeAll(td.Sources),
			Targets:    pluralizeAll(td.Targets),
			Count:      count(td.Count),
		}
	}

	return s, nil
}

// NodeTypes returns the declared node type names, sorted
func (s *Schema) NodeTypes() []string {
	return sortedKeys(s.nodes)
}

// ConnectionTypes returns the declared connection type names, sorted
func (s *Schema) ConnectionTypes() []string {
	return sortedKeys(s.connections)
}

// HasNodeType accepts singular or plural spellings
func (s *Schema) HasNodeType(nodeType string) bool {
	_, ok := s.nodes[valueobjects.Pluralize(nodeType)]
	return ok
}

// HasConnectionType accepts singular or plural spellings
func (s *Schema) HasConnectionType(connectionType string) bool {
	_, ok := s.lookupConnection(connectionType)
	return ok
}

// NodeType returns the descriptor of a node type
func (s *Schema) NodeType(nodeType string) (NodeType, bool) {
	nt, ok := s.nodes[valueobjects.Pluralize(nodeType)]
	return nt, ok
}

// ConnectionType returns the descriptor of a connection type
func (s *Schema) ConnectionType(connectionType string) (ConnectionType, bool) {
	return s.lookupConnection(connectionType)
}

// ValidOutgoingTypes lists connection types that may start at nodeType
func (s *Schema) ValidOutgoingTypes(nodeType string) []string {
	plural := valueobjects.Pluralize(nodeType)
	var out []string
	for name, ct := range s.connections {
		if contains(ct.Sources, plural) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ValidIncomingTypes lists connection types that may end at nodeType
func (s *Schema) ValidIncomingTypes(nodeType string) []string {
	plural := valueobjects.Pluralize(nodeType)
	var out []string
	for name, ct := range s.connections {
		if contains(ct.Targets, plural) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// NodeCount is the number of stored nodes of a type, 0 when unknown
func (s *Schema) NodeCount(nodeType string) int64 {
	nt, _ := s.NodeType(nodeType)
	return nt.Count
}

// ConnectionCount is the number of stored connections of a type, 0 when unknown
func (s *Schema) ConnectionCount(connectionType string) int64 {
	ct, _ := s.lookupConnection(connectionType)
	return ct.Count
}

// Properties lists the searchable fields of a node type
func (s *Schema) Properties(nodeType string) []string {
	nt, _ := s.NodeType(nodeType)
	return nt.Properties
}

// Sources lists the node types a connection type may start from
func (s *Schema) Sources(connectionType string) []string {
	ct, _ := s.lookupConnection(connectionType)
	return ct.Sources
}

// Targets lists the node types a connection type may point to
func (s *Schema) Targets(connectionType string) []string {
	ct, _ := s.lookupConnection(connectionType)
	return ct.Targets
}

// Raw returns the decoded /status document
func (s *Schema) Raw() map[string]any {
	return s.raw
}

func (s *Schema) lookupConnection(connectionType string) (ConnectionType, bool) {
	name := valueobjects.NormalizeType(connectionType)
	if ct, ok := s.connections[name]; ok {
		return ct, true
	}
	ct, ok := s.connections[valueobjects.Pluralize(name)]
	return ct, ok
}

// decodeType skips aggregate entries such as a sibling "count" total
func decodeType(raw json.RawMessage) (typeDocument, bool, error) {
	var td typeDocument
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return td, false, nil
	}
	if err := entities.DecodeJSON(trimmed, &td); err != nil {
		return td, false, err
	}
	return td, true, nil
}

// propertyNames accepts the shapes the backend has used for searchable fields:
// an object keyed by field, a list of names, or a list of single-key objects.
func propertyNames(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var byName map[string]any
	if err := json.Unmarshal(raw, &byName); err == nil {
		return sortedKeys(byName), nil
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("unsupported properties shape: %w", err)
	}

	seen := make(map[string]struct{})
	for _, item := range list {
		switch v := item.(type) {
		case string:
			seen[v] = struct{}{}
		case map[string]any:
			for k := range v {
				seen[k] = struct{}{}
			}
		}
	}
	return sortedKeys(seen), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pluralizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, valueobjects.Pluralize(n))
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func count(n json.Number) int64 {
	if n == "" {
		return 0
	}
	i, err := n.Int64()
	if err != nil {
		return 0
	}
	return i
}
