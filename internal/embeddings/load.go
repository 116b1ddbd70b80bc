package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"embedding-service/internal/retry"
)

const warmupText = "warmup"

// LoadOptions controls the startup warm-up of a provider.
type LoadOptions struct {
	Attempts int
	Backoff  time.Duration
	Log      *slog.Logger
}

// Load warms the provider up with a single embed call and returns the model
// dimensionality. Remote backends often need a few seconds to bring a model into
// memory, so failures are retried with exponential backoff. The returned error
// wraps ErrProviderInit.
func Load(ctx context.Context, e Embedder, opts LoadOptions) (int, error) {
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	var dims int
	err := retry.Do(ctx, opts.Attempts, opts.Backoff, func(attempt int) error {
		vec, err := e.Embed(ctx, warmupText)
		if err == nil && len(vec) == 0 {
			err = ErrEmptyEmbedding
		}
		if err != nil {
			log.Warn("embedding provider warm-up failed", "attempt", attempt+1, "err", err)
			return err
		}
		dims = len(vec)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrProviderInit, err)
	}
	log.Info("embedding provider ready", "dimensions", dims)
	return dims, nil
}
