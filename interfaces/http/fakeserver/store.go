package fakeserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"sheldon-client/domain/core/entities"
	"sheldon-client/domain/core/valueobjects"
	"sheldon-client/infrastructure/urls"
)

type nodeRecord struct {
	id       int64
	nodeType string // singular
	payload  entities.Payload
}

type connectionRecord struct {
	id             int64
	connectionType string
	from, to       int64
	payload        entities.Payload
}

type connectionDecl struct {
	properties []string
	sources    []string
	targets    []string
}

// Store is the in-memory graph behind the fake backend
type Store struct {
	mu          sync.RWMutex
	nextID      int64
	nodes       map[int64]*nodeRecord
	connections map[int64]*connectionRecord
	nodeTypes   map[string][]string // plural type -> searchable properties
	connTypes   map[string]connectionDecl
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		nodes:       make(map[int64]*nodeRecord),
		connections: make(map[int64]*connectionRecord),
		nodeTypes:   make(map[string][]string),
		connTypes:   make(map[string]connectionDecl),
	}
}

// DeclareNodeType adds a node type to the schema
func (s *Store) DeclareNodeType(nodeType string, properties ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeTypes[valueobjects.Pluralize(nodeType)] = properties
}

// DeclareConnectionType adds a connection type; sources and targets are node types
func (s *Store) DeclareConnectionType(connectionType string, sources, targets []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connTypes[valueobjects.NormalizeType(connectionType)] = connectionDecl{
		sources: pluralizeAll(sources),
		targets: pluralizeAll(targets),
	}
}

// AddNode stores a node and returns its id
func (s *Store) AddNode(nodeType string, payload entities.Payload) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNodeLocked(nodeType, payload)
}

// AddConnection stores a connection and returns its id
func (s *Store) AddConnection(connectionType string, from, to int64, payload entities.Payload) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addConnectionLocked(connectionType, from, to, payload)
}

func (s *Store) addNodeLocked(nodeType string, payload entities.Payload) int64 {
	s.nextID++
	s.nodes[s.nextID] = &nodeRecord{
		id:       s.nextID,
		nodeType: valueobjects.Singularize(nodeType),
		payload:  clonePayload(payload),
	}
	return s.nextID
}

func (s *Store) addConnectionLocked(connectionType string, from, to int64, payload entities.Payload) int64 {
	s.nextID++
	s.connections[s.nextID] = &connectionRecord{
		id:             s.nextID,
		connectionType: s.connectionName(connectionType),
		from:           from,
		to:             to,
		payload:        clonePayload(payload),
	}
	return s.nextID
}

func (s *Store) hasNodeType(nodeType string) bool {
	_, ok := s.nodeTypes[valueobjects.Pluralize(nodeType)]
	return ok
}

// connectionName resolves singular or plural spellings to the declared name
func (s *Store) connectionName(connectionType string) string {
	name := valueobjects.NormalizeType(connectionType)
	if _, ok := s.connTypes[name]; ok {
		return name
	}
	for _, alt := range []string{valueobjects.Pluralize(name), valueobjects.Singularize(name)} {
		if _, ok := s.connTypes[alt]; ok {
			return alt
		}
	}
	return name
}

func (s *Store) hasConnectionType(connectionType string) bool {
	_, ok := s.connTypes[s.connectionName(connectionType)]
	return ok
}

func (s *Store) node(id int64) (*nodeRecord, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s *Store) nodesOfType(pluralType string) []*nodeRecord {
	var out []*nodeRecord
	for _, n := range s.nodes {
		if pluralType == "" || valueobjects.Pluralize(n.nodeType) == pluralType {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (s *Store) connectionBetween(from int64, connectionType string, to int64) (*connectionRecord, bool) {
	name := s.connectionName(connectionType)
	for _, c := range s.connections {
		if c.from == from && c.to == to && c.connectionType == name {
			return c, true
		}
	}
	return nil, false
}

// outgoing returns the connections starting at id, narrowed by type when set
func (s *Store) outgoing(id int64, connectionType string) []*connectionRecord {
	name := ""
	if connectionType != "" {
		name = s.connectionName(connectionType)
	}
	var out []*connectionRecord
	for _, c := range s.connections {
		if c.from == id && (name == "" || c.connectionType == name) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// neighbours returns nodes connected to id in either direction
func (s *Store) neighbours(id int64, connectionType string) []*nodeRecord {
	name := ""
	if connectionType != "" {
		name = s.connectionName(connectionType)
	}
	seen := make(map[int64]struct{})
	var out []*nodeRecord
	for _, c := range s.connections {
		if name != "" && c.connectionType != name {
			continue
		}
		other := int64(0)
		switch id {
		case c.from:
			other = c.to
		case c.to:
			other = c.from
		default:
			continue
		}
		if _, dup := seen[other]; dup {
			continue
		}
		if n, ok := s.nodes[other]; ok {
			seen[other] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (s *Store) deleteNodeLocked(id int64) bool {
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	for cid, c := range s.connections {
		if c.from == id || c.to == id {
			delete(s.connections, cid)
		}
	}
	return true
}

// search matches every field against the payload. Exact mode compares the
// rendered value case-insensitively; fulltext matches substrings and treats
// '*' as a wildcard suffix.
func (s *Store) search(pluralType string, fields map[string]string, mode valueobjects.SearchMode) []*nodeRecord {
	var out []*nodeRecord
	for _, n := range s.nodesOfType(pluralType) {
		if matchesAll(n.payload, fields, mode) {
			out = append(out, n)
		}
	}
	return out
}

func matchesAll(payload entities.Payload, fields map[string]string, mode valueobjects.SearchMode) bool {
	for key, want := range fields {
		v, ok := payload[key]
		if !ok || v == nil {
			return false
		}
		got := strings.ToLower(urls.QueryValue(v))
		want = strings.ToLower(want)
		if mode == valueobjects.SearchModeFulltext {
			if !strings.Contains(got, strings.TrimRight(want, "*")) {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}

func (s *Store) statusDocument() map[string]any {
	nodes := make(map[string]any, len(s.nodeTypes))
	total := 0
	for plural, props := range s.nodeTypes {
		count := len(s.nodesOfType(plural))
		total += count
		nodes[plural] = map[string]any{"properties": nonNil(props), "count": count}
	}
	nodes["count"] = total

	connections := make(map[string]any, len(s.connTypes))
	for name, decl := range s.connTypes {
		count := 0
		for _, c := range s.connections {
			if c.connectionType == name {
				count++
			}
		}
		connections[name] = map[string]any{
			"properties": nonNil(decl.properties),
			"sources":    nonNil(decl.sources),
			"targets":    nonNil(decl.targets),
			"count":      count,
		}
	}
	return map[string]any{"schema": map[string]any{"nodes": nodes, "connections": connections}}
}

func (n *nodeRecord) document() map[string]any {
	return map[string]any{
		"id":      n.id,
		"type":    valueobjects.DisplayType(n.nodeType),
		"payload": n.payload,
	}
}

func (c *connectionRecord) document() map[string]any {
	return map[string]any{
		"id":      c.id,
		"type":    c.connectionType,
		"from":    c.from,
		"to":      c.to,
		"payload": c.payload,
	}
}

func clonePayload(p entities.Payload) entities.Payload {
	if p == nil {
		return entities.Payload{}
	}
	return p.Clone()
}

func pluralizeAll(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, valueobjects.Pluralize(t))
	}
	return out
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func (c *connectionRecord) String() string {
	return fmt.Sprintf("%s/%d->%d", c.connectionType, c.from, c.to)
}
