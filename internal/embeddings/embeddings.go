package embeddings

import (
	"context"
	"errors"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Embedder turns a piece of text into a vector using a pretrained model.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
}

var (
	// ErrProviderInit marks a provider that could not be constructed or warmed up.
	ErrProviderInit = errors.New("embedding provider initialization failed")
	// ErrEmptyEmbedding is returned when a provider answers without a vector.
	ErrEmptyEmbedding = errors.New("provider returned no embedding")
	// ErrDimensionMismatch is returned when a vector differs from the model dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Default model per provider, used when EMBEDDING_MODEL is unset.
const (
	DefaultHuggingFaceModel = "sentence-transformers/msmarco-distilbert-base-v4"
	DefaultOpenAIModel      = "text-embedding-3-small"
	DefaultOllamaModel      = "nomic-embed-text"
	DefaultGeminiModel      = "embedding-001"
)

func fromFloat64(values []float64) Vector {
	vec := make(Vector, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	return vec
}
