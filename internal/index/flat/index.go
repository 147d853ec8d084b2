// Package flat provides an exact nearest-neighbour vector index.
// Every search scans all vectors; this is the correctness baseline any
// approximate structure would have to be verified against.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driven"
)

// Ensure Index implements the snapshot view.
var _ driven.VectorSearcher = (*Index)(nil)

// Meta is the chunk metadata stored alongside each vector. It mirrors the
// persistence sidecar row and is enough to render a citation.
type Meta struct {
	ChunkID    string      `json:"chunk_id"`
	DocumentID string      `json:"document_id"`
	Span       domain.Span `json:"span"`
	Product    string      `json:"product,omitempty"`
	Company    string      `json:"company,omitempty"`
}

// Pair is one (metadata, embedding) input to Build.
type Pair struct {
	Meta   Meta
	Vector []float32
}

// Index holds (vector, metadata) pairs under a fixed metric and
// dimension. Once built it is immutable and safe for concurrent reads.
type Index struct {
	metric  domain.Metric
	dim     int
	vectors [][]float32
	metas   []Meta
}

// Build constructs an index from pairs. The dimension is the first
// observed vector length; any disagreement fails with
// ErrDimensionMismatch, an empty input with ErrEmptyIndex. For the cosine
// metric vectors are normalised once here so search reduces to a dot
// product.
func Build(pairs []Pair, metric domain.Metric) (*Index, error) {
	if _, err := domain.ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, domain.ErrEmptyIndex
	}

	dim := len(pairs[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length embedding for chunk %s",
			domain.ErrDimensionMismatch, pairs[0].Meta.ChunkID)
	}

	ix := &Index{
		metric:  metric,
		dim:     dim,
		vectors: make([][]float32, len(pairs)),
		metas:   make([]Meta, len(pairs)),
	}

	for i, p := range pairs {
		if len(p.Vector) != dim {
			return nil, fmt.Errorf("%w: chunk %s has dimension %d, index has %d",
				domain.ErrDimensionMismatch, p.Meta.ChunkID, len(p.Vector), dim)
		}
		v := make([]float32, dim)
		copy(v, p.Vector)
		if metric == domain.MetricCosine {
			normalise(v)
		}
		ix.vectors[i] = v
		ix.metas[i] = p.Meta
	}

	return ix, nil
}

// Search returns the k nearest vectors in non-increasing score order.
// Fewer than k results come back only when the index holds fewer than k
// vectors; that is never an error.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrDimensionMismatch, len(query), ix.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	q := query
	if ix.metric == domain.MetricCosine {
		q = make([]float32, ix.dim)
		copy(q, query)
		normalise(q)
	}

	scores := make([]float64, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = ix.score(q, v)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	// Stable so equal scores keep insertion order and results stay
	// deterministic across rebuilds.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	hits := make([]driven.VectorHit, k)
	for i := 0; i < k; i++ {
		j := order[i]
		hits[i] = driven.VectorHit{
			ChunkID:    ix.metas[j].ChunkID,
			DocumentID: ix.metas[j].DocumentID,
			Span:       ix.metas[j].Span,
			Score:      scores[j],
		}
	}
	return hits, nil
}

// Dimensions returns the index dimension.
func (ix *Index) Dimensions() int {
	return ix.dim
}

// Metric returns the distance metric the index was built with.
func (ix *Index) Metric() domain.Metric {
	return ix.metric
}

// Len returns the number of vectors held.
func (ix *Index) Len() int {
	return len(ix.vectors)
}

// score computes the normalised similarity between a query and a stored
// vector. Higher is always more similar.
func (ix *Index) score(q, v []float32) float64 {
	switch ix.metric {
	case domain.MetricEuclidean:
		var sum float64
		for i := range q {
			d := float64(q[i]) - float64(v[i])
			sum += d * d
		}
		return 1.0 / (1.0 + math.Sqrt(sum))
	default: // cosine: both sides are unit length, dot is the similarity
		var dot float64
		for i := range q {
			dot += float64(q[i]) * float64(v[i])
		}
		return dot
	}
}

// normalise scales v to unit length in place. The zero vector is left
// untouched so it scores zero against everything.
func normalise(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
