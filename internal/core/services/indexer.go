package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/creditrust-labs/trustline-cli/internal/chunker"
	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driven"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driving"
	"github.com/creditrust-labs/trustline-cli/internal/index/flat"
	"github.com/creditrust-labs/trustline-cli/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// embedBatchSize is the number of chunk texts sent per embedding request.
const embedBatchSize = 32

// Indexer owns the corpus lifecycle: ingestion, chunking, embedding,
// index build, and snapshot publication.
type Indexer struct {
	docStore  driven.DocumentStore
	embedder  driven.EmbeddingService
	handle    *flat.Handle
	splitter  *chunker.Chunker
	cfg       domain.Config
	indexPath string
}

// NewIndexer creates an indexer. The embedding capability's dimension
// must match the configured one; a mismatch is fatal here, at startup.
func NewIndexer(
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	handle *flat.Handle,
	cfg domain.Config,
	indexPath string,
) (*Indexer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if embedder != nil && embedder.Dimensions() != cfg.EmbeddingDimension {
		return nil, fmt.Errorf("%w: embedding model %s produces dimension %d, configured %d",
			domain.ErrDimensionMismatch, embedder.ModelName(), embedder.Dimensions(), cfg.EmbeddingDimension)
	}
	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Indexer{
		docStore:  docStore,
		embedder:  embedder,
		handle:    handle,
		splitter:  splitter,
		cfg:       cfg,
		indexPath: indexPath,
	}, nil
}

// Ingest stores a batch of cleaned documents. A document with no ID or an
// empty or invalid narrative is rejected individually; the batch only
// fails when no document survives.
func (ix *Indexer) Ingest(ctx context.Context, docs []domain.Document) (driving.IngestReport, error) {
	report := driving.IngestReport{Rejected: make(map[string]string)}

	for i := range docs {
		doc := docs[i]
		key := doc.ID
		if key == "" {
			key = fmt.Sprintf("row %d", i)
		}
		if reason := validateDocument(doc); reason != "" {
			logger.Warn("Rejecting document %s: %s", key, reason)
			report.Rejected[key] = reason
			continue
		}
		if err := ix.docStore.SaveDocument(ctx, &doc); err != nil {
			return report, fmt.Errorf("saving document %s: %w", doc.ID, err)
		}
		report.Ingested++
	}

	if len(docs) > 0 && report.Ingested == 0 {
		return report, fmt.Errorf("%w: all %d documents rejected", domain.ErrInvalidInput, len(docs))
	}
	logger.Info("Ingested %d documents, rejected %d", report.Ingested, len(report.Rejected))
	return report, nil
}

// validateDocument returns a rejection reason, or "" when the document is
// acceptable.
func validateDocument(doc domain.Document) string {
	if doc.ID == "" {
		return "missing document id"
	}
	if doc.Narrative == "" {
		return "empty narrative"
	}
	if !utf8.ValidString(doc.Narrative) {
		return "narrative is not valid UTF-8"
	}
	return ""
}

// Build chunks every document, embeds the chunks with bounded
// parallelism, builds the exact-scan index, persists it, and publishes
// the new snapshot. In-flight searches keep the previous snapshot until
// publication.
func (ix *Indexer) Build(ctx context.Context) (driving.BuildReport, error) {
	logger.Section("Index Build")
	var report driving.BuildReport

	docs, err := ix.docStore.ListDocuments(ctx)
	if err != nil {
		return report, fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		return report, fmt.Errorf("%w: no documents ingested", domain.ErrEmptyIndex)
	}

	version := ix.cfg.CorpusVersion()
	logger.Debug("Corpus version: %s", version)

	var chunks []domain.Chunk
	for i := range docs {
		cs := ix.splitter.Chunk(docs[i])
		for j := range cs {
			cs[j].CorpusVersion = version
		}
		chunks = append(chunks, cs...)
	}
	logger.Info("Chunked %d documents into %d chunks", len(docs), len(chunks))
	if len(chunks) == 0 {
		return report, fmt.Errorf("%w: corpus produced no chunks", domain.ErrEmptyIndex)
	}

	if err := ix.embedChunks(ctx, chunks); err != nil {
		return report, err
	}

	// Persist derived chunks grouped per document, then sweep any chunks
	// left over from earlier parameter versions.
	byDoc := make(map[string][]domain.Chunk)
	for _, c := range chunks {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}
	for _, docChunks := range byDoc {
		if err := ix.docStore.SaveChunks(ctx, docChunks); err != nil {
			return report, fmt.Errorf("saving chunks: %w", err)
		}
	}
	if err := ix.docStore.DeleteChunks(ctx, version); err != nil {
		return report, fmt.Errorf("sweeping stale chunks: %w", err)
	}

	pairs := make([]flat.Pair, len(chunks))
	for i, c := range chunks {
		pairs[i] = flat.Pair{
			Meta: flat.Meta{
				ChunkID:    c.ID,
				DocumentID: c.DocumentID,
				Span:       c.Span,
				Product:    c.Product,
				Company:    c.Company,
			},
			Vector: c.Embedding,
		}
	}
	built, err := flat.Build(pairs, ix.cfg.DistanceMetric)
	if err != nil {
		return report, fmt.Errorf("building index: %w", err)
	}

	if ix.indexPath != "" {
		if err := built.Persist(ix.indexPath); err != nil {
			return report, fmt.Errorf("persisting index: %w", err)
		}
		logger.Debug("Index persisted to %s", ix.indexPath)
	}

	ix.handle.Publish(built)
	logger.Info("Published index: %d vectors, dimension %d, metric %s",
		built.Len(), built.Dimensions(), built.Metric())

	return driving.BuildReport{
		Documents:     len(docs),
		Chunks:        len(chunks),
		Dimension:     built.Dimensions(),
		Metric:        built.Metric(),
		CorpusVersion: version,
	}, nil
}

// embedChunks fills in chunk embeddings in place, fanning batches out
// across a bounded worker group. Each batch owns a distinct range of the
// slice, so workers never write to the same element.
func (ix *Indexer) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if ix.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.EmbedConcurrency)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Text
			}

			var vectors [][]float32
			err := withRetry(gctx, "embedding batch", func() error {
				var embedErr error
				vectors, embedErr = ix.embedder.EmbedBatch(gctx, texts)
				return embedErr
			})
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("%w: got %d embeddings for %d texts",
					domain.ErrEmbeddingUnavailable, len(vectors), len(batch))
			}
			for i, v := range vectors {
				if len(v) != ix.cfg.EmbeddingDimension {
					return fmt.Errorf("%w: embedding has dimension %d, configured %d",
						domain.ErrDimensionMismatch, len(v), ix.cfg.EmbeddingDimension)
				}
				batch[i].Embedding = v
			}
			return nil
		})
	}

	return g.Wait()
}

// LoadIndex loads the persisted index and publishes it. A corrupted or
// incompatible file is refused; the corpus must be rebuilt instead.
func (ix *Indexer) LoadIndex(_ context.Context) error {
	built, err := flat.Load(ix.indexPath, ix.cfg.DistanceMetric, ix.cfg.EmbeddingDimension)
	if err != nil {
		return fmt.Errorf("loading index %s: %w", ix.indexPath, err)
	}
	ix.handle.Publish(built)
	logger.Info("Loaded index: %d vectors, dimension %d, metric %s",
		built.Len(), built.Dimensions(), built.Metric())
	return nil
}
