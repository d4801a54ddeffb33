// Package response turns raw backend answers into domain results. A status other
// than the expected one is an ordinary outcome (nil, false or empty); only a
// success body that cannot be decoded is an error.
package response

import (
	"net/http"

	"sheldon-client/domain/core/entities"
	"sheldon-client/infrastructure/transport"
	pkgerrors "sheldon-client/pkg/errors"
)

// Node decodes a node when the status matches expected
func Node(resp *transport.Response, expected int) (*entities.Node, error) {
	if !matches(resp, expected) {
		return nil, nil
	}
	node, err := entities.DecodeNode(resp.Body)
	if err != nil {
		return nil, pkgerrors.NewMalformedError("node", err)
	}
	return node, nil
}

// Connection decodes a connection when the status matches expected
func Connection(resp *transport.Response, expected int) (*entities.Connection, error) {
	if !matches(resp, expected) {
		return nil, nil
	}
	conn, err := entities.DecodeConnection(resp.Body)
	if err != nil {
		return nil, pkgerrors.NewMalformedError("connection", err)
	}
	return conn, nil
}

// Bool reports whether the status is exactly 200
func Bool(resp *transport.Response) bool {
	return matches(resp, http.StatusOK)
}

// Collection decodes a heterogeneous array. 204 and any non-200 status yield an
// empty, non-nil collection.
func Collection(resp *transport.Response) (entities.Collection, error) {
	if !matches(resp, http.StatusOK) || isBlank(resp.Body) {
		return entities.Collection{}, nil
	}
	coll, err := entities.DecodeCollection(resp.Body)
	if err != nil {
		return entities.Collection{}, pkgerrors.NewMalformedError("collection", err)
	}
	return coll, nil
}

// Nodes is Collection narrowed to nodes
func Nodes(resp *transport.Response) ([]*entities.Node, error) {
	coll, err := Collection(resp)
	if err != nil {
		return []*entities.Node{}, err
	}
	return coll.Nodes(), nil
}

// Connections is Collection narrowed to connections
func Connections(resp *transport.Response) ([]*entities.Connection, error) {
	coll, err := Collection(resp)
	if err != nil {
		return []*entities.Connection{}, err
	}
	return coll.Connections(), nil
}

// IDs decodes a JSON array of integers. Like Collection, 204 and any non-200
// status yield an empty, non-nil list.
func IDs(resp *transport.Response) ([]int64, error) {
	if !matches(resp, http.StatusOK) || isBlank(resp.Body) {
		return []int64{}, nil
	}
	var raw []any
	if err := entities.DecodeJSON(resp.Body, &raw); err != nil {
		return []int64{}, pkgerrors.NewMalformedError("id list", err)
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, ok := entities.ToID(v)
		if !ok {
			return []int64{}, pkgerrors.NewMalformedError("id list", nil).
				WithDetails(map[string]interface{}{"value": v})
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Raw passes the parsed JSON through for endpoints with no domain mapping
func Raw(resp *transport.Response) (any, error) {
	if !matches(resp, http.StatusOK) {
		return nil, nil
	}
	var v any
	if err := entities.DecodeJSON(resp.Body, &v); err != nil {
		return nil, pkgerrors.NewMalformedError("json", err)
	}
	return v, nil
}

func matches(resp *transport.Response, expected int) bool {
	return resp != nil && resp.Status == expected
}

func isBlank(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}
