package domain

import "fmt"

// ScoredChunk pairs a chunk with its similarity score. Scores are
// normalised so that higher always means more similar, regardless of the
// index metric.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is an ordered sequence of scored chunks, best first.
// An empty result is the "don't know" signal, not a failure.
type RetrievalResult []ScoredChunk

// Empty reports whether no chunk cleared the similarity threshold.
func (r RetrievalResult) Empty() bool {
	return len(r) == 0
}

// ContextSize returns the total number of characters across all chunks.
func (r RetrievalResult) ContextSize() int {
	total := 0
	for _, sc := range r {
		total += len(sc.Chunk.Text)
	}
	return total
}

// Metric identifies the distance metric a vector index was built with.
// It is fixed at build time and never mixed.
type Metric string

const (
	// MetricCosine scores by cosine similarity of normalised vectors.
	MetricCosine Metric = "cosine"

	// MetricEuclidean scores by inverted Euclidean distance, 1/(1+d).
	MetricEuclidean Metric = "euclidean"
)

// ParseMetric validates a metric name from configuration.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, MetricEuclidean:
		return Metric(s), nil
	}
	return "", fmt.Errorf("%w: unknown distance metric %q", ErrInvalidConfig, s)
}
