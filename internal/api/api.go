// Package api implements the text-to-vector contract shared by the HTTP and
// NATS transports: decode and validate a query, embed it, wrap the result.
package api

import (
	"context"
	"errors"
	"fmt"

	"embedding-service/internal/embeddings"
)

// StatusSuccess is the only status a successful Response carries.
const StatusSuccess = "success"

// Query is a validated embedding request.
type Query struct {
	Text string
}

// Response is the success envelope returned to clients.
type Response struct {
	Status string            `json:"status"`
	Data   embeddings.Vector `json:"data"`
}

// InternalError wraps a provider failure for a single request.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Embed runs one query through the provider.
func Embed(ctx context.Context, e embeddings.Embedder, q Query) (Response, error) {
	vec, err := e.Embed(ctx, q.Text)
	if err != nil {
		return Response{}, &InternalError{Err: err}
	}
	return Response{Status: StatusSuccess, Data: vec}, nil
}

// IsTimeout reports whether err came from a provider call running out of time.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
