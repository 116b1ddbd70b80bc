package queue

import "context"

const (
	// RequestIDHeader carries a caller-supplied correlation id.
	RequestIDHeader = "Request-Id"
	// Group is the queue group shared by all embedding workers so each request
	// is handled by exactly one of them.
	Group = "embedding-workers"
)

// Request is one message received on the embeddings subject.
type Request struct {
	ID   string
	Data []byte
}

// Handler answers a request with the reply payload.
type Handler func(context.Context, Request) []byte

// Responder serves request/reply traffic on a subject until ctx is done.
type Responder interface {
	Serve(ctx context.Context, subject string, handler Handler) error
}
