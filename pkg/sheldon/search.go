package sheldon

import (
	"context"

	"sheldon-client/application/response"
	"sheldon-client/domain/core/entities"
	"sheldon-client/infrastructure/urls"
	pkgerrors "sheldon-client/pkg/errors"
)

// SearchQuery selects nodes by field values. An empty Type searches across all
// types. Mode is only sent when set; the backend matches exactly otherwise.
type SearchQuery struct {
	Type   string
	Fields map[string]any
	Mode   SearchMode
}

// Validate rejects unknown modes, a "mode" field, which would clash with the
// mode parameter, and field values that are not scalars.
func (q SearchQuery) Validate() error {
	if !q.Mode.IsValid() {
		return pkgerrors.NewValidationErrorf("unknown search mode %s", q.Mode)
	}
	if _, ok := q.Fields["mode"]; ok {
		return pkgerrors.NewValidationError("mode is reserved; set SearchQuery.Mode instead")
	}
	for field, value := range q.Fields {
		if !urls.IsScalar(value) {
			return pkgerrors.NewValidationErrorf("search field %s must be a scalar, got %T", field, value)
		}
	}
	return nil
}

// Search runs a search. Any status other than 200 yields an empty collection.
func (c *Client) Search(ctx context.Context, q SearchQuery) (Collection, error) {
	if err := q.Validate(); err != nil {
		return Collection{}, err
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.Search(q.Type, q.Fields, q.Mode), nil)
	if err != nil {
		return Collection{}, err
	}
	return response.Collection(resp)
}

// SearchNodes is Search narrowed to nodes
func (c *Client) SearchNodes(ctx context.Context, q SearchQuery) ([]*Node, error) {
	coll, err := c.Search(ctx, q)
	if err != nil {
		return []*Node{}, err
	}
	return coll.Nodes(), nil
}

// SearchExternalID looks up objects of any type by an external id such as
// facebook_ids, using the fulltext index.
func (c *Client) SearchExternalID(ctx context.Context, field string, value any) (Collection, error) {
	if field == "" {
		return Collection{}, pkgerrors.NewValidationError("external id field is required")
	}
	return c.Search(ctx, SearchQuery{
		Fields: map[string]any{field: value},
		Mode:   SearchFulltext,
	})
}

// FetchCollection GETs an arbitrary backend path and classifies the returned
// array. A path that is not relative to the host is a validation error.
func (c *Client) FetchCollection(ctx context.Context, path string) (Collection, error) {
	ep, err := urls.Collection(path)
	if err != nil {
		return Collection{}, pkgerrors.NewValidationError(err.Error())
	}
	resp, err := c.dispatcher.Dispatch(ctx, ep, nil)
	if err != nil {
		return Collection{}, pkgerrors.Wrapf(err, "fetch collection %s", path)
	}
	coll, err := response.Collection(resp)
	if err != nil {
		return coll, pkgerrors.Wrapf(err, "fetch collection %s", path)
	}
	return coll, nil
}

// Highscores returns the parsed highscore list of a user as sent by the
// backend; nil when not answered with 200.
func (c *Client) Highscores(ctx context.Context, user Ref, kind ScoreKind) (any, error) {
	if err := validateScores(user, kind); err != nil {
		return nil, err
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.Highscores(user, kind), nil)
	if err != nil {
		return nil, err
	}
	return response.Raw(resp)
}

// HighscoreConnections returns the highscore list as connections, heaviest
// first.
func (c *Client) HighscoreConnections(ctx context.Context, user Ref, kind ScoreKind) ([]*Connection, error) {
	if err := validateScores(user, kind); err != nil {
		return []*Connection{}, err
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.Highscores(user, kind), nil)
	if err != nil {
		return []*Connection{}, err
	}
	conns, err := response.Connections(resp)
	if err != nil {
		return conns, err
	}
	entities.SortByWeight(conns)
	return conns, nil
}

// Recommendations returns the parsed recommendation containers of a user;
// nil when not answered with 200.
func (c *Client) Recommendations(ctx context.Context, user Ref) (any, error) {
	if err := requireRef(user, "user"); err != nil {
		return nil, err
	}
	resp, err := c.dispatcher.Dispatch(ctx, urls.Recommendations(user), nil)
	if err != nil {
		return nil, err
	}
	return response.Raw(resp)
}

func validateScores(user Ref, kind ScoreKind) error {
	if err := requireRef(user, "user"); err != nil {
		return err
	}
	if !kind.IsValid() {
		return pkgerrors.NewValidationErrorf("unknown highscore kind %s", kind)
	}
	return nil
}
