package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driven"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driving"
	"github.com/creditrust-labs/trustline-cli/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// RetrieverService turns a question into a context-bounded set of
// grounded chunks: embed, over-fetch, threshold, deduplicate, budget.
type RetrieverService struct {
	embedder driven.EmbeddingService
	provider driven.IndexProvider
	docStore driven.DocumentStore
	cfg      domain.Config
}

// NewRetriever creates a retriever over the published index snapshot.
func NewRetriever(
	embedder driven.EmbeddingService,
	provider driven.IndexProvider,
	docStore driven.DocumentStore,
	cfg domain.Config,
) *RetrieverService {
	return &RetrieverService{
		embedder: embedder,
		provider: provider,
		docStore: docStore,
		cfg:      cfg,
	}
}

// Retrieve returns the top-k chunks for the query, deduplicated and
// bounded by maxContextSize characters. An empty result means no chunk
// cleared the similarity threshold; that is the explicit "don't know"
// signal, not a failure.
func (r *RetrieverService) Retrieve(
	ctx context.Context, query string, k, maxContextSize int,
) (domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return domain.RetrievalResult{}, nil
	}
	if k < 1 {
		k = r.cfg.TopK
	}
	if maxContextSize <= 0 {
		maxContextSize = r.cfg.MaxContextSize
	}

	searcher, err := r.provider.Acquire()
	if err != nil {
		return nil, err
	}

	var embedding []float32
	err = withRetry(ctx, "query embedding", func() error {
		var embedErr error
		embedding, embedErr = r.embedder.Embed(ctx, query)
		return embedErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	// Over-fetch so post-filtering still leaves k survivors.
	kPrime := k * r.cfg.OverfetchFactor
	hits, err := searcher.Search(ctx, embedding, kPrime)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Raw candidates: %d (k'=%d)", len(hits), kPrime)

	hits = r.applyThreshold(hits)
	hits = r.dedupe(hits)
	if len(hits) > k {
		hits = hits[:k]
	}

	result, err := r.hydrate(ctx, hits)
	if err != nil {
		return nil, err
	}
	result = budgetContext(result, maxContextSize)

	if result.Empty() {
		logger.Info("No candidate cleared threshold %.2f: grounding gap", r.cfg.MinSimilarity)
	} else {
		logger.Info("Retrieved %d chunks, %d context characters", len(result), result.ContextSize())
	}
	return result, nil
}

// applyThreshold drops candidates below the minimum similarity.
func (r *RetrieverService) applyThreshold(hits []driven.VectorHit) []driven.VectorHit {
	kept := hits[:0]
	for _, h := range hits {
		if h.Score >= r.cfg.MinSimilarity {
			kept = append(kept, h)
		}
	}
	return kept
}

// dedupe removes same-document candidates whose spans overlap beyond the
// configured fraction of the shorter span. Input is score-descending, so
// keeping first keeps the higher-scoring one.
func (r *RetrieverService) dedupe(hits []driven.VectorHit) []driven.VectorHit {
	var kept []driven.VectorHit
	for _, h := range hits {
		duplicate := false
		for _, prev := range kept {
			if prev.DocumentID != h.DocumentID {
				continue
			}
			shorter := min(prev.Span.Len(), h.Span.Len())
			if shorter == 0 {
				continue
			}
			if float64(prev.Span.Overlap(h.Span))/float64(shorter) > r.cfg.DedupOverlap {
				duplicate = true
				break
			}
		}
		if duplicate {
			logger.Debug("Dropping duplicate chunk %s (overlaps retained span)", h.ChunkID)
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

// hydrate resolves hits into full chunks. A chunk missing from the store
// (index ahead of store) is skipped rather than failing the query.
func (r *RetrieverService) hydrate(ctx context.Context, hits []driven.VectorHit) (domain.RetrievalResult, error) {
	result := make(domain.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		chunk, err := r.docStore.GetChunk(ctx, h.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Chunk %s in index but not in store, skipping", h.ChunkID)
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", h.ChunkID, err)
		}
		result = append(result, domain.ScoredChunk{Chunk: *chunk, Score: h.Score})
	}
	return result, nil
}

// budgetContext trims the score-descending result to the character
// budget, dropping the lowest-scoring chunks first.
func budgetContext(result domain.RetrievalResult, maxContextSize int) domain.RetrievalResult {
	for len(result) > 0 && result.ContextSize() > maxContextSize {
		result = result[:len(result)-1]
	}
	return result
}
