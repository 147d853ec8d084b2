package driven

import (
	"context"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

// VectorSearcher is a read-only view of one published index snapshot.
// Snapshots are immutable; arbitrarily many searches may run against one
// concurrently.
type VectorSearcher interface {
	// Search finds the k most similar vectors to the query. Results come
	// back in non-increasing score order, never more than k of them.
	// A query of the wrong dimension fails with ErrDimensionMismatch.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Dimensions returns the index dimension.
	Dimensions() int

	// Metric returns the distance metric the index was built with.
	Metric() domain.Metric

	// Len returns the number of vectors held.
	Len() int
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's parent document.
	DocumentID string

	// Span locates the chunk within its document.
	Span domain.Span

	// Score is the metric-appropriate similarity; higher is more similar.
	Score float64
}

// IndexProvider hands out the currently published index snapshot.
// Acquire fails with ErrIndexUnavailable until an index is published;
// a concurrent rebuild swaps the snapshot atomically so in-flight
// searches complete against a consistent view.
type IndexProvider interface {
	Acquire() (VectorSearcher, error)
}
