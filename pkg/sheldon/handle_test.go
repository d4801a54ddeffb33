package sheldon

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "sheldon-client/pkg/errors"
)

func TestNodeHandle_ConnectionTypes(t *testing.T) {
	f := newFixture(t)
	movie, err := f.client.CreateNode(f.ctx, CreateNodeRequest{Type: "movie", Payload: Payload{"title": "Ran"}})
	require.NoError(t, err)

	h := f.client.Bind(movie)
	out, err := h.OutgoingConnectionTypes(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"actors", "genre_taggings"}, out)

	in, err := h.IncomingConnectionTypes(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"likes"}, in)

	all, err := h.ConnectionTypes(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"actors", "genre_taggings", "likes"}, all)
}

func TestNodeHandle_CreateConnection(t *testing.T) {
	f := newFixture(t)
	user, err := f.client.CreateNode(f.ctx, CreateNodeRequest{Type: "user", Payload: Payload{"username": "gonzo"}})
	require.NoError(t, err)
	movie, err := f.client.CreateNode(f.ctx, CreateNodeRequest{Type: "movie", Payload: Payload{"title": "Ran"}})
	require.NoError(t, err)

	h := f.client.Bind(user)
	conn, err := h.CreateConnection(f.ctx, "like", movie, Payload{"weight": 0.7})
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, user.ID(), conn.FromID())
	assert.Equal(t, movie.ID(), conn.ToID())

	before := f.requestCount()
	_, err = h.CreateConnection(f.ctx, "actors", movie, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "unknown connection type actors for user")
	assert.Equal(t, before, f.requestCount(), "an invalid type must not be sent")

	conns, err := h.Connections(f.ctx, "likes")
	require.NoError(t, err)
	assert.Len(t, conns, 1)

	_, err = h.Connections(f.ctx, "genre_taggings")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNodeHandle_Neighbours(t *testing.T) {
	f := newFixture(t)
	store := f.backend.Store()
	user := store.AddNode("user", Payload{"username": "gonzo"})
	ran := store.AddNode("movie", Payload{"title": "Ran"})
	store.AddConnection("likes", user, ran, nil)

	movie, err := f.client.Node(f.ctx, ID(ran))
	require.NoError(t, err)
	h := f.client.Bind(movie)

	incoming, err := h.Neighbours(f.ctx, "likes")
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "gonzo", incoming[0].Name())

	all, err := h.Neighbours(f.ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	none, err := h.Neighbours(f.ctx, "friendships")
	assert.True(t, pkgerrors.IsValidation(err))
	assert.NotNil(t, none)
}

func TestNodeHandle_SaveAndReindex(t *testing.T) {
	f := newFixture(t)
	movie, err := f.client.CreateNode(f.ctx, CreateNodeRequest{Type: "movie", Payload: Payload{"title": "Ran"}})
	require.NoError(t, err)

	h := f.client.Bind(movie)
	h.Node().Set("production_year", 1985)
	ok, err := h.Save(f.ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	last, _ := f.backend.LastRequest()
	assert.Equal(t, http.MethodPut, last.Method)
	assert.JSONEq(t, `{"title":"Ran","production_year":1985}`, last.Body)

	ok, err = h.Reindex(f.ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNodeHandle_UnsavedNode(t *testing.T) {
	f := newFixture(t)
	h := f.client.Bind(nil)

	_, err := h.Save(f.ctx)
	assert.True(t, pkgerrors.IsValidation(err))
	_, err = h.CreateConnection(f.ctx, "likes", ID(1), nil)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Zero(t, f.requestCount())
}

func TestNodeHandle_NilNodeTypeIntrospection(t *testing.T) {
	f := newFixture(t)
	h := f.client.Bind(nil)

	assert.NotPanics(t, func() {
		_, err := h.OutgoingConnectionTypes(f.ctx)
		assert.True(t, pkgerrors.IsValidation(err))
		_, err = h.IncomingConnectionTypes(f.ctx)
		assert.True(t, pkgerrors.IsValidation(err))
		_, err = h.ConnectionTypes(f.ctx)
		assert.True(t, pkgerrors.IsValidation(err))
	})
	assert.Zero(t, f.requestCount())
}

func TestNodeHandle_UnsavedNodeTypeIntrospection(t *testing.T) {
	f := newFixture(t)
	out, err := f.client.Bind(NewNode("user", nil)).OutgoingConnectionTypes(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"likes"}, out)
}
