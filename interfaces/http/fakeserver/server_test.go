package fakeserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheldon-client/domain/core/entities"
)

func seeded(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(nil)
	st := s.Store()
	st.DeclareNodeType("movie", "title", "production_year")
	st.DeclareNodeType("user", "username")
	st.DeclareConnectionType("likes", []string{"user"}, []string{"movie"})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestServer_NodeLifecycle(t *testing.T) {
	_, srv := seeded(t)

	status, body := do(t, http.MethodPost, srv.URL+"/nodes/movie", `{"title":"Ran"}`)
	require.Equal(t, http.StatusCreated, status)
	node, err := entities.DecodeNode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "movie", node.Type())

	status, _ = do(t, http.MethodGet, srv.URL+"/nodes/"+itoa(node.ID()), "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = do(t, http.MethodPut, srv.URL+"/nodes/1", `{"title":"Kagemusha"}`)
	assert.Equal(t, http.StatusOK, status)

	status, body = do(t, http.MethodGet, srv.URL+"/nodes/movies/ids", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[1]`, body)

	status, _ = do(t, http.MethodDelete, srv.URL+"/nodes/1", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, http.MethodGet, srv.URL+"/nodes/1", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_UnknownNodeType(t *testing.T) {
	_, srv := seeded(t)
	status, _ := do(t, http.MethodPost, srv.URL+"/nodes/planet", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestServer_PutConnectionCreatesThenUpdates(t *testing.T) {
	s, srv := seeded(t)
	user := s.Store().AddNode("user", entities.Payload{"username": "gonzo"})
	movie := s.Store().AddNode("movie", entities.Payload{"title": "Ran"})

	url := srv.URL + "/nodes/" + itoa(user) + "/connections/likes/" + itoa(movie)
	status, _ := do(t, http.MethodPut, url, `{"weight":0.5}`)
	assert.Equal(t, http.StatusCreated, status)

	status, _ = do(t, http.MethodPut, url, `{"weight":0.9}`)
	assert.Equal(t, http.StatusOK, status)

	status, body := do(t, http.MethodGet, url, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"weight":0.9`)
}

func TestServer_StatusDocument(t *testing.T) {
	s, srv := seeded(t)
	s.Store().AddNode("movie", nil)

	status, body := do(t, http.MethodGet, srv.URL+"/status", "")
	require.Equal(t, http.StatusOK, status)

	var doc map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	movies := doc["schema"]["nodes"]["movies"].(map[string]any)
	assert.Equal(t, 1.0, movies["count"])
	likes := doc["schema"]["connections"]["likes"].(map[string]any)
	assert.Equal(t, []any{"users"}, likes["sources"])
}

func TestServer_SearchModes(t *testing.T) {
	s, srv := seeded(t)
	s.Store().AddNode("movie", entities.Payload{"title": "Fist of Fury"})
	s.Store().AddNode("movie", entities.Payload{"title": "Fist"})

	_, body := do(t, http.MethodGet, srv.URL+"/search/nodes/movies?title=fist", "")
	assert.Equal(t, 1, strings.Count(body, `"id"`))

	_, body = do(t, http.MethodGet, srv.URL+"/search/nodes/movies?mode=fulltext&title=Fist%2A", "")
	assert.Equal(t, 2, strings.Count(body, `"id"`))

	status, _ := do(t, http.MethodGet, srv.URL+"/search/nodes/planets?name=x", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_RecordsAndOverrides(t *testing.T) {
	s, srv := seeded(t)
	s.Override(http.MethodGet, "/search?title=x", http.StatusNoContent, "")

	status, _ := do(t, http.MethodGet, srv.URL+"/search?title=x", "")
	assert.Equal(t, http.StatusNoContent, status)

	last, ok := s.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "/search?title=x", last.URI)

	s.Reset()
	assert.Empty(t, s.Requests())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
