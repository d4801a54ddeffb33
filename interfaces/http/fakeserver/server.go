// Package fakeserver is an in-memory stand-in for the Sheldon backend. It speaks
// the same HTTP/JSON protocol, records every request and can be told to answer
// a given request with a fixed status, which makes it the backend for client
// tests and for local experiments with the CLI.
package fakeserver

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sheldon-client/domain/core/entities"
	"sheldon-client/domain/core/valueobjects"
)

type override struct {
	status int
	body   string
}

// Server serves the backend protocol from a Store
type Server struct {
	store  *Store
	logger *zap.Logger

	mu        sync.Mutex
	requests  []RecordedRequest
	overrides map[string]override
}

// New creates a server around an empty store
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:     NewStore(),
		logger:    logger,
		overrides: make(map[string]override),
	}
}

// Store gives access to the graph for seeding
func (s *Server) Store() *Store {
	return s.store
}

// Requests returns a copy of the recorded requests
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request
func (s *Server) LastRequest() (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Reset forgets recorded requests and overrides
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.overrides = make(map[string]override)
}

// Override answers "METHOD /request/uri" with status and body from now on
func (s *Server) Override(method, requestURI string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+requestURI] = override{status: status, body: body}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(logger(s.logger))
	r.Use(s.recorder)

	r.Get("/status", s.status)

	r.Route("/nodes", func(r chi.Router) {
		r.Post("/{key}", s.createNode)
		r.Get("/{key}", s.getNode)
		r.Put("/{key}", s.updateNode)
		r.Delete("/{key}", s.deleteNode)
		r.Get("/{key}/ids", s.nodeIDs)
		r.Put("/{key}/reindex", s.reindexNode)
		r.Get("/{key}/connections/{type}", s.nodeConnections)
		r.Get("/{key}/connections/{type}/{to}", s.getConnectionBetween)
		r.Put("/{key}/connections/{type}/{to}", s.putConnection)
		r.Get("/{key}/neighbours", s.neighbours)
		r.Get("/{key}/neighbours/{type}", s.neighbours)
	})

	r.Route("/connections", func(r chi.Router) {
		r.Get("/{id}", s.getConnection)
		r.Delete("/{id}", s.deleteConnection)
		r.Put("/{id}/reindex", s.reindexConnection)
	})

	r.Get("/search", s.search)
	r.Get("/search/nodes/{type}", s.search)

	r.Get("/high_scores/users/{id}", s.highscores)
	r.Get("/high_scores/users/{id}/{kind}", s.highscores)
	r.Get("/recommendations/user/{id}/containers", s.recommendations)

	return r
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	respondJSON(w, http.StatusOK, s.store.statusDocument())
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	nodeType := chi.URLParam(r, "key")
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if !s.store.hasNodeType(nodeType) {
		respondError(w, http.StatusUnprocessableEntity, "UNKNOWN_TYPE", "unknown node type "+nodeType)
		return
	}
	id := s.store.addNodeLocked(nodeType, payload)
	respondJSON(w, http.StatusCreated, s.store.nodes[id].document())
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	n, ok := s.lookupNode(r, "key")
	if !ok {
		notFound(w, "node")
		return
	}
	respondJSON(w, http.StatusOK, n.document())
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	n, ok := s.lookupNode(r, "key")
	if !ok {
		notFound(w, "node")
		return
	}
	n.payload = payload
	respondJSON(w, http.StatusOK, n.document())
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	id, ok := idParam(r, "key")
	if !ok || !s.store.deleteNodeLocked(id) {
		notFound(w, "node")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) reindexNode(w http.ResponseWriter, r *http.Request) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	n, ok := s.lookupNode(r, "key")
	if !ok {
		notFound(w, "node")
		return
	}
	respondJSON(w, http.StatusOK, n.document())
}

func (s *Server) nodeIDs(w http.ResponseWriter, r *http.Request) {
	plural := chi.URLParam(r, "key")
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if _, ok := s.store.nodeTypes[plural]; !ok {
		notFound(w, "node type")
		return
	}
	nodes := s.store.nodesOfType(plural)
	ids := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.id)
	}
	respondJSON(w, http.StatusOK, ids)
}

func (s *Server) nodeConnections(w http.ResponseWriter, r *http.Request) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	n, ok := s.lookupNode(r, "key")
	if !ok {
		notFound(w, "node")
		return
	}
	respondJSON(w, http.StatusOK, connectionDocuments(s.store.outgoing(n.id, chi.URLParam(r, "type"))))
}

func (s *Server) getConnectionBetween(w http.ResponseWriter, r *http.Request) {
	from, okFrom := idParam(r, "key")
	to, okTo := idParam(r, "to")
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if !okFrom || !okTo {
		notFound(w, "connection")
		return
	}
	c, ok := s.store.connectionBetween(from, chi.URLParam(r, "type"), to)
	if !ok {
		notFound(w, "connection")
		return
	}
	respondJSON(w, http.StatusOK, c.document())
}

// putConnection creates the connection (201) or replaces its payload (200)
func (s *Server) putConnection(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	connectionType := chi.URLParam(r, "type")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	from, okFrom := s.lookupNode(r, "key")
	to, okTo := s.lookupNode(r, "to")
	if !okFrom || !okTo {
		notFound(w, "node")
		return
	}
	if !s.store.hasConnectionType(connectionType) {
		respondError(w, http.StatusUnprocessableEntity, "UNKNOWN_TYPE", "unknown connection type "+connectionType)
		return
	}
	if c, exists := s.store.connectionBetween(from.id, connectionType, to.id); exists {
		c.payload = payload
		respondJSON(w, http.StatusOK, c.document())
		return
	}
	id := s.store.addConnectionLocked(connectionType, from.id, to.id, payload)
	c := s.store.connections[id]
	s.logger.Debug("fake sheldon connection created", zap.Stringer("connection", c))
	respondJSON(w, http.StatusCreated, c.document())
}

func (s *Server) neighbours(w http.ResponseWriter, r *http.Request) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	n, ok := s.lookupNode(r, "key")
	if !ok {
		notFound(w, "node")
		return
	}
	respondJSON(w, http.StatusOK, nodeDocuments(s.store.neighbours(n.id, chi.URLParam(r, "type"))))
}

func (s *Server) getConnection(w http.ResponseWriter, r *http.Request) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	c, ok := s.lookupConnection(r)
	if !ok {
		notFound(w, "connection")
		return
	}
	respondJSON(w, http.StatusOK, c.document())
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	c, ok := s.lookupConnection(r)
	if !ok {
		notFound(w, "connection")
		return
	}
	delete(s.store.connections, c.id)
	respondJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) reindexConnection(w http.ResponseWriter, r *http.Request) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	c, ok := s.lookupConnection(r)
	if !ok {
		notFound(w, "connection")
		return
	}
	respondJSON(w, http.StatusOK, c.document())
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := valueobjects.SearchMode(query.Get("mode"))
	if !mode.IsValid() {
		respondError(w, http.StatusBadRequest, "BAD_MODE", "unknown search mode "+string(mode))
		return
	}
	fields := make(map[string]string, len(query))
	for key := range query {
		if key != "mode" {
			fields[key] = query.Get(key)
		}
	}

	plural := chi.URLParam(r, "type")
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if plural != "" {
		if _, ok := s.store.nodeTypes[plural]; !ok {
			notFound(w, "node type")
			return
		}
	}
	respondJSON(w, http.StatusOK, nodeDocuments(s.store.search(plural, fields, mode)))
}

// highscores ranks the user's outgoing connections by weight. A connection is
// tracked when its payload says so.
func (s *Server) highscores(w http.ResponseWriter, r *http.Request) {
	kind := valueobjects.ScoreKind(chi.URLParam(r, "kind"))
	if !kind.IsValid() {
		notFound(w, "highscore list")
		return
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	n, ok := s.lookupNode(r, "id")
	if !ok {
		notFound(w, "user")
		return
	}

	var ranked []*entities.Connection
	for _, c := range s.store.outgoing(n.id, "") {
		tracked, _ := c.payload["tracked"].(bool)
		if (kind == valueobjects.ScoreKindTracked && !tracked) ||
			(kind == valueobjects.ScoreKindUntracked && tracked) {
			continue
		}
		ranked = append(ranked, entities.ReconstructConnection(c.id, c.connectionType, c.from, c.to, c.payload))
	}
	entities.SortByWeight(ranked)

	docs := make([]map[string]any, 0, len(ranked))
	for _, c := range ranked {
		docs = append(docs, s.store.connections[c.ID()].document())
	}
	respondJSON(w, http.StatusOK, docs)
}

// recommendations offers container nodes the user is not yet connected to
func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	user, ok := s.lookupNode(r, "id")
	if !ok {
		notFound(w, "user")
		return
	}
	known := make(map[int64]struct{})
	for _, c := range s.store.outgoing(user.id, "") {
		known[c.to] = struct{}{}
	}
	var picks []*nodeRecord
	for _, n := range s.store.nodesOfType("") {
		if _, seen := known[n.id]; seen || n.id == user.id {
			continue
		}
		if hasContainer, _ := n.payload["has_container"].(bool); hasContainer {
			picks = append(picks, n)
		}
	}
	respondJSON(w, http.StatusOK, nodeDocuments(picks))
}

func (s *Server) lookupNode(r *http.Request, param string) (*nodeRecord, bool) {
	id, ok := idParam(r, param)
	if !ok {
		return nil, false
	}
	return s.store.node(id)
}

func (s *Server) lookupConnection(r *http.Request) (*connectionRecord, bool) {
	id, ok := idParam(r, "id")
	if !ok {
		return nil, false
	}
	c, ok := s.store.connections[id]
	return c, ok
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// readPayload decodes a JSON object body; an empty body is an empty payload
func readPayload(w http.ResponseWriter, r *http.Request) (entities.Payload, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "BAD_BODY", err.Error())
		return nil, false
	}
	payload := entities.Payload{}
	if len(raw) == 0 {
		return payload, true
	}
	if err := entities.DecodeJSON(raw, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_BODY", "payload must be a JSON object")
		return nil, false
	}
	if payload == nil {
		payload = entities.Payload{}
	}
	return payload, true
}

func nodeDocuments(nodes []*nodeRecord) []map[string]any {
	docs := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		docs = append(docs, n.document())
	}
	return docs
}

func connectionDocuments(conns []*connectionRecord) []map[string]any {
	sort.Slice(conns, func(i, j int) bool { return conns[i].id < conns[j].id })
	docs := make([]map[string]any, 0, len(conns))
	for _, c := range conns {
		docs = append(docs, c.document())
	}
	return docs
}
