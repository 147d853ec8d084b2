package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Config is the pipeline configuration surface. Every field has an
// observable effect; Validate rejects out-of-range values at startup.
type Config struct {
	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int

	// ChunkOverlap is the maximum overlap between adjacent chunks.
	ChunkOverlap int

	// EmbeddingDimension must match the embedding capability exactly.
	EmbeddingDimension int

	// DistanceMetric is cosine or euclidean, fixed per index build.
	DistanceMetric Metric

	// EmbeddingModel names the model the embedding capability runs.
	// It participates in the corpus version fingerprint.
	EmbeddingModel string

	// TopK is the default number of chunks to retrieve.
	TopK int

	// MaxContextSize bounds the assembled context in characters.
	MaxContextSize int

	// MinSimilarity is the grounding threshold; candidates below it are
	// discarded and an all-below result becomes the refusal path.
	MinSimilarity float64

	// GenerationTimeout bounds a single generation call.
	GenerationTimeout time.Duration

	// OverfetchFactor requests OverfetchFactor*k raw candidates so
	// post-filtering still has k survivors.
	OverfetchFactor int

	// DedupOverlap is the span-overlap fraction (of the shorter span)
	// beyond which two same-document candidates are duplicates.
	DedupOverlap float64

	// EmbedConcurrency bounds parallel embedding workers during builds.
	EmbedConcurrency int
}

// DefaultConfig mirrors the chunking and retrieval parameters the corpus
// was tuned with.
func DefaultConfig() Config {
	return Config{
		ChunkSize:          1500,
		ChunkOverlap:       150,
		EmbeddingDimension: 384,
		DistanceMetric:     MetricCosine,
		EmbeddingModel:     "all-minilm",
		TopK:               5,
		MaxContextSize:     6000,
		MinSimilarity:      0.3,
		GenerationTimeout:  60 * time.Second,
		OverfetchFactor:    3,
		DedupOverlap:       0.5,
		EmbedConcurrency:   4,
	}
}

// Validate checks all parameter ranges. Any violation is ErrInvalidConfig.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must be non-negative, got %d", ErrInvalidConfig, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be smaller than chunk_size %d",
			ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("%w: embedding_dimension must be positive, got %d",
			ErrInvalidConfig, c.EmbeddingDimension)
	}
	if _, err := ParseMetric(string(c.DistanceMetric)); err != nil {
		return err
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.MaxContextSize <= 0 {
		return fmt.Errorf("%w: max_context_size must be positive, got %d",
			ErrInvalidConfig, c.MaxContextSize)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return fmt.Errorf("%w: min_similarity_threshold must be in [0,1], got %g",
			ErrInvalidConfig, c.MinSimilarity)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("%w: generation_timeout must be positive", ErrInvalidConfig)
	}
	if c.OverfetchFactor < 1 {
		return fmt.Errorf("%w: overfetch_factor must be at least 1, got %d",
			ErrInvalidConfig, c.OverfetchFactor)
	}
	if c.DedupOverlap <= 0 || c.DedupOverlap > 1 {
		return fmt.Errorf("%w: dedup_overlap must be in (0,1], got %g",
			ErrInvalidConfig, c.DedupOverlap)
	}
	if c.EmbedConcurrency < 1 {
		return fmt.Errorf("%w: embed_concurrency must be at least 1, got %d",
			ErrInvalidConfig, c.EmbedConcurrency)
	}
	return nil
}

// CorpusVersion fingerprints the parameters that shape derived artifacts.
// Chunks produced under different fingerprints never mix in one index.
func (c Config) CorpusVersion() string {
	h := sha256.Sum256(fmt.Appendf(nil, "chunk=%d/%d model=%s dim=%d",
		c.ChunkSize, c.ChunkOverlap, c.EmbeddingModel, c.EmbeddingDimension))
	return hex.EncodeToString(h[:])[:12]
}
