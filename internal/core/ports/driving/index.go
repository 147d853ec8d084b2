package driving

import (
	"context"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

// IngestReport summarises one ingestion batch.
type IngestReport struct {
	// Ingested is the number of documents accepted.
	Ingested int

	// Rejected records documents dropped with the reason, keyed by
	// document ID (or ordinal for documents without one).
	Rejected map[string]string
}

// BuildReport summarises one index build.
type BuildReport struct {
	Documents     int
	Chunks        int
	Dimension     int
	Metric        domain.Metric
	CorpusVersion string
}

// IndexService owns the corpus lifecycle: append-style ingestion and
// rebuildable indexes. Rebuilding publishes a new snapshot atomically;
// queries never mutate it.
type IndexService interface {
	// Ingest stores a batch of cleaned documents. Malformed documents
	// are rejected per-row; the batch only fails when every row does.
	Ingest(ctx context.Context, docs []domain.Document) (IngestReport, error)

	// Build chunks the corpus, embeds every chunk, builds the vector
	// index, persists it, and publishes the new snapshot.
	Build(ctx context.Context) (BuildReport, error)

	// LoadIndex loads the persisted index from disk and publishes it.
	LoadIndex(ctx context.Context) error
}

// EvalService runs a fixed question set through the pipeline and scores
// answer quality against the retrieved sources.
type EvalService interface {
	Evaluate(ctx context.Context, questions []domain.EvalQuestion) (domain.EvalReport, error)
}
