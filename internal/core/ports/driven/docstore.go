package driven

import (
	"context"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

// DocumentStore persists documents and their derived chunks.
// Backed by SQLite for durable storage, or memory for tests.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document, replacing any previous
	// chunks carrying the same corpus version.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document in position order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns every ingested document.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListChunks returns every chunk carrying the given corpus version,
	// in (document, position) order.
	ListChunks(ctx context.Context, corpusVersion string) ([]domain.Chunk, error)

	// DeleteChunks removes all chunks not carrying the given corpus
	// version. Used after a rebuild to drop stale derived artifacts.
	DeleteChunks(ctx context.Context, keepCorpusVersion string) error
}
