package embeddings

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// GuardOptions configures a Guard.
type GuardOptions struct {
	// MaxConcurrent bounds in-flight provider calls; zero or less means unbounded.
	MaxConcurrent int64
	// Timeout bounds a single provider call; zero disables it.
	Timeout time.Duration
	// Dimensions is the expected vector length; zero disables the check.
	Dimensions int
}

// Guard wraps the shared provider so every request goes through the same
// admission, timeout and dimensionality checks.
type Guard struct {
	next    Embedder
	sem     *semaphore.Weighted
	timeout time.Duration
	dims    int
}

// NewGuard wraps next with the given limits.
func NewGuard(next Embedder, opts GuardOptions) *Guard {
	g := &Guard{
		next:    next,
		timeout: opts.Timeout,
		dims:    opts.Dimensions,
	}
	if opts.MaxConcurrent > 0 {
		g.sem = semaphore.NewWeighted(opts.MaxConcurrent)
	}
	return g
}

// Dimensions reports the vector length every successful Embed returns.
func (g *Guard) Dimensions() int {
	return g.dims
}

func (g *Guard) Embed(ctx context.Context, text string) (Vector, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("wait for embedding slot: %w", err)
		}
		defer g.sem.Release(1)
	}

	vec, err := g.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ErrEmptyEmbedding
	}
	if g.dims > 0 && len(vec) != g.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), g.dims)
	}
	return vec, nil
}
