// Package service exposes typed operations per backend resource group over
// the HTTP client core. Screens and the CLI depend on these types, never on
// raw URLs or payload maps.
package service

import (
	"context"
	"encoding/json"

	"github.com/meditrade/storefront/internal/api"
)

// Doer is the call surface a resource service needs. Both api.Client and
// api.AuthClient satisfy it; most services take the authenticated surface.
type Doer interface {
	Get(ctx context.Context, url string, out any, opts ...api.ReqOption) error
	Post(ctx context.Context, url string, in, out any, opts ...api.ReqOption) error
	Put(ctx context.Context, url string, in, out any, opts ...api.ReqOption) error
	Delete(ctx context.Context, url string, out any, opts ...api.ReqOption) error
}

// listEnvelope tolerates the backend's list shapes: a bare JSON array,
// {"data": [...]}, or a paginated {"results": [...]}.
type listEnvelope[T any] struct {
	Items []T
}

func (l *listEnvelope[T]) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &l.Items)
	}
	var wrapped struct {
		Data    []T `json:"data"`
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	if wrapped.Data != nil {
		l.Items = wrapped.Data
	} else {
		l.Items = wrapped.Results
	}
	return nil
}

// getList fetches a list endpoint through any of the supported envelopes.
func getList[T any](ctx context.Context, d Doer, url string) ([]T, error) {
	var env listEnvelope[T]
	if err := d.Get(ctx, url, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}
