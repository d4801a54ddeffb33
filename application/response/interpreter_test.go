package response

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheldon-client/infrastructure/transport"
	pkgerrors "sheldon-client/pkg/errors"
)

func reply(status int, body string) *transport.Response {
	return &transport.Response{Status: status, Body: []byte(body)}
}

func TestNode_ExpectedStatus(t *testing.T) {
	body := `{"id":77,"type":"Movie","payload":{"title":"Ran"}}`

	node, err := Node(reply(http.StatusCreated, body), http.StatusCreated)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, int64(77), node.ID())

	// a create answered with 200 is not a success
	node, err = Node(reply(http.StatusOK, body), http.StatusCreated)
	require.NoError(t, err)
	assert.Nil(t, node)

	node, err = Node(reply(http.StatusNotFound, ``), http.StatusOK)
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestNode_MalformedSuccessBody(t *testing.T) {
	_, err := Node(reply(http.StatusOK, `<html>oops</html>`), http.StatusOK)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeMalformed))
}

func TestConnection(t *testing.T) {
	conn, err := Connection(reply(http.StatusOK, `{"id":5,"type":"likes","from":1,"to":2,"payload":{"weight":0.4}}`), http.StatusOK)
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, int64(1), conn.FromID())
	assert.Equal(t, 0.4, conn.Weight())

	conn, err = Connection(reply(http.StatusNotFound, ``), http.StatusOK)
	require.NoError(t, err)
	assert.Nil(t, conn)
}

func TestBool(t *testing.T) {
	assert.True(t, Bool(reply(http.StatusOK, ``)))
	assert.False(t, Bool(reply(http.StatusCreated, ``)))
	assert.False(t, Bool(reply(http.StatusNotFound, ``)))
	assert.False(t, Bool(nil))
}

func TestCollection_EmptyOutcomes(t *testing.T) {
	for _, r := range []*transport.Response{
		reply(http.StatusNoContent, ``),
		reply(http.StatusNotFound, `[]`),
		reply(http.StatusInternalServerError, `{"error":"x"}`),
		reply(http.StatusOK, ``),
	} {
		coll, err := Collection(r)
		require.NoError(t, err)
		assert.NotNil(t, coll)
		assert.Empty(t, coll)
	}
}

func TestCollection_Heterogeneous(t *testing.T) {
	coll, err := Collection(reply(http.StatusOK, `[{"id":1,"type":"movie"},{"id":2,"type":"likes","from":1,"to":3}]`))
	require.NoError(t, err)
	assert.Len(t, coll.Nodes(), 1)
	assert.Len(t, coll.Connections(), 1)

	nodes, err := Nodes(reply(http.StatusOK, `[{"id":1,"type":"movie"}]`))
	require.NoError(t, err)
	assert.Len(t, nodes, 1)

	conns, err := Connections(reply(http.StatusNoContent, ``))
	require.NoError(t, err)
	assert.NotNil(t, conns)
	assert.Empty(t, conns)
}

func TestCollection_Malformed(t *testing.T) {
	coll, err := Collection(reply(http.StatusOK, `{"id":1}`))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsTransport(err))
	assert.NotNil(t, coll)
}

func TestIDs(t *testing.T) {
	ids, err := IDs(reply(http.StatusOK, `[1, 2, "3"]`))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	for _, status := range []int{http.StatusNoContent, http.StatusNotFound} {
		ids, err = IDs(reply(status, ``))
		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
	}

	ids, err = IDs(reply(http.StatusOK, " \n"))
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)

	_, err = IDs(reply(http.StatusOK, `[1, "x"]`))
	assert.Error(t, err)
}

func TestRaw(t *testing.T) {
	v, err := Raw(reply(http.StatusOK, `{"recommendations":[{"id":1}]}`))
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "recommendations")

	v, err = Raw(reply(http.StatusNotFound, ``))
	require.NoError(t, err)
	assert.Nil(t, v)
}
