package ports

import (
	"context"

	"sheldon-client/infrastructure/transport"
	"sheldon-client/infrastructure/urls"
)

// Dispatcher sends one request to the backend and returns its raw answer.
// *transport.Dispatcher is the production implementation.
type Dispatcher interface {
	// Dispatch sends ep with body encoded as JSON when non-nil
	Dispatch(ctx context.Context, ep urls.Endpoint, body any) (*transport.Response, error)

	// Host is the backend base URL requests are resolved against
	Host() string
}
