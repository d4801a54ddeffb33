// Package urls maps every backend operation onto its method, path and query.
//
// Collection segments use the plural type name ("/nodes/movies/ids",
// "/search/nodes/movies"), while node creation names the kind of the single new
// resource in its singular form ("/nodes/movie"). Nothing here performs I/O.
package urls

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"sheldon-client/domain/core/valueobjects"
)

// Endpoint is one request target relative to the backend host
type Endpoint struct {
	Method string
	Path   string
	Query  url.Values
}

// RequestURI returns the path plus the encoded query. Query keys are sorted so the
// same call always yields the same URI.
func (e Endpoint) RequestURI() string {
	if len(e.Query) == 0 {
		return e.Path
	}
	return e.Path + "?" + e.Query.Encode()
}

// URL resolves the endpoint against a host such as "http://localhost:2311"
func (e Endpoint) URL(host string) string {
	return strings.TrimRight(host, "/") + e.RequestURI()
}

func (e Endpoint) String() string {
	return e.Method + " " + e.RequestURI()
}

// FetchNode is GET /nodes/{id}
func FetchNode(node valueobjects.Ref) Endpoint {
	return get(nodePath(node))
}

// NodeIDsOfType is GET /nodes/{pluralType}/ids
func NodeIDsOfType(nodeType string) Endpoint {
	return get("/nodes/" + segment(valueobjects.Pluralize(nodeType)) + "/ids")
}

// CreateNode is POST /nodes/{singularType}
func CreateNode(nodeType string) Endpoint {
	return Endpoint{Method: http.MethodPost, Path: "/nodes/" + segment(valueobjects.Singularize(nodeType))}
}

// UpdateNode is PUT /nodes/{id}
func UpdateNode(node valueobjects.Ref) Endpoint {
	return put(nodePath(node))
}

// DeleteNode is DELETE /nodes/{id}
func DeleteNode(node valueobjects.Ref) Endpoint {
	return Endpoint{Method: http.MethodDelete, Path: nodePath(node)}
}

// ReindexNode is PUT /nodes/{id}/reindex
func ReindexNode(node valueobjects.Ref) Endpoint {
	return put(nodePath(node) + "/reindex")
}

// Search is GET /search/nodes/{pluralType}?{query} when nodeType is set and
// GET /search?{query} otherwise. The mode parameter is only sent when the caller
// chose one.
func Search(nodeType string, fields map[string]any, mode valueobjects.SearchMode) Endpoint {
	path := "/search"
	if nodeType != "" {
		path = "/search/nodes/" + segment(valueobjects.Pluralize(nodeType))
	}

	query := make(url.Values, len(fields)+1)
	for key, value := range fields {
		query.Set(key, QueryValue(value))
	}
	if mode != valueobjects.SearchModeDefault {
		query.Set("mode", string(mode))
	}

	return Endpoint{Method: http.MethodGet, Path: path, Query: query}
}

// FetchConnection is GET /connections/{id}
func FetchConnection(connection valueobjects.Ref) Endpoint {
	return get(connectionPath(connection))
}

// ConnectionBetween is GET /nodes/{fromId}/connections/{type}/{toId}
func ConnectionBetween(from valueobjects.Ref, connectionType string, to valueobjects.Ref) Endpoint {
	return get(betweenPath(from, connectionType, to))
}

// PutConnection is PUT /nodes/{fromId}/connections/{type}/{toId}; it creates the
// connection or replaces its payload.
func PutConnection(from valueobjects.Ref, connectionType string, to valueobjects.Ref) Endpoint {
	return put(betweenPath(from, connectionType, to))
}

// DeleteConnection is DELETE /connections/{id}
func DeleteConnection(connection valueobjects.Ref) Endpoint {
	return Endpoint{Method: http.MethodDelete, Path: connectionPath(connection)}
}

// ReindexConnection is PUT /connections/{id}/reindex
func ReindexConnection(connection valueobjects.Ref) Endpoint {
	return put(connectionPath(connection) + "/reindex")
}

// NodeConnections is GET /nodes/{id}/connections/{pluralType}
func NodeConnections(node valueobjects.Ref, connectionType string) Endpoint {
	return get(nodePath(node) + "/connections/" + segment(valueobjects.Pluralize(connectionType)))
}

// Neighbours is GET /nodes/{id}/neighbours, narrowed by /{pluralType} when a
// connection type is given.
func Neighbours(node valueobjects.Ref, connectionType string) Endpoint {
	path := nodePath(node) + "/neighbours"
	if connectionType != "" {
		path += "/" + segment(valueobjects.Pluralize(connectionType))
	}
	return get(path)
}

// Status is GET /status
func Status() Endpoint {
	return get("/status")
}

// Highscores is GET /high_scores/users/{id}[/{tracked|untracked}]
func Highscores(user valueobjects.Ref, kind valueobjects.ScoreKind) Endpoint {
	path := "/high_scores/users/" + valueobjects.RefString(user)
	if kind != valueobjects.ScoreKindAll {
		path += "/" + string(kind)
	}
	return get(path)
}

// Recommendations is GET /recommendations/user/{id}/containers
func Recommendations(user valueobjects.Ref) Endpoint {
	return get("/recommendations/user/" + valueobjects.RefString(user) + "/containers")
}

// Collection is a GET on an arbitrary backend path such as
// "/high_scores/users/13/untracked". A query string in path is preserved.
func Collection(path string) (Endpoint, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(path)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid collection path %q: %w", path, err)
	}
	if u.IsAbs() || u.Host != "" {
		return Endpoint{}, fmt.Errorf("collection path %q must be relative to the host", path)
	}
	ep := get(u.Path)
	if u.RawQuery != "" {
		ep.Query = u.Query()
	}
	return ep, nil
}

// QueryValue renders a search value the way the backend expects it in a query
func QueryValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// IsScalar reports whether value renders as a single query value. Slices, maps,
// structs and pointers have no query form the backend understands.
func IsScalar(value any) bool {
	switch value.(type) {
	case nil, string, fmt.Stringer, bool:
		return true
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
		return true
	default:
		return false
	}
}

func get(path string) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: path}
}

func put(path string) Endpoint {
	return Endpoint{Method: http.MethodPut, Path: path}
}

func nodePath(node valueobjects.Ref) string {
	return "/nodes/" + valueobjects.RefString(node)
}

func connectionPath(connection valueobjects.Ref) string {
	return "/connections/" + valueobjects.RefString(connection)
}

func betweenPath(from valueobjects.Ref, connectionType string, to valueobjects.Ref) string {
	return nodePath(from) + "/connections/" + segment(valueobjects.NormalizeType(connectionType)) + "/" + valueobjects.RefString(to)
}

func segment(s string) string {
	return url.PathEscape(s)
}
