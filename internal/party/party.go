// Package party wraps the backend's deck, card, game, friendship and app
// user endpoints. Every call identifies the caller by external id: as a
// query parameter for reads and deletes, as a body field for writes.
package party

import (
	"context"
	"net/url"

	"github.com/uptome-dev/uptome/internal/client"
)

// API is the subset of client.Client used by Service.
type API interface {
	Get(ctx context.Context, path string) client.Result
	Put(ctx context.Context, path string, body any) client.Result
	Post(ctx context.Context, path string, body any) client.Result
	Delete(ctx context.Context, path string) client.Result
}

// Service exposes typed calls on top of an API.
type Service struct {
	api API
}

// NewService creates a new party service
func NewService(api API) *Service {
	return &Service{api: api}
}

// Success is the acknowledgement returned by write endpoints.
type Success struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

func decode[T any](r client.Result) (T, error) {
	return client.DecodeResult[T](r)
}
