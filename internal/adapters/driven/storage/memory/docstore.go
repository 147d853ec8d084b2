// Package memory provides in-memory store implementations for tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
	"github.com/creditrust-labs/trustline-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks stores chunks, replacing any previous chunks for the same
// documents.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byDoc := make(map[string][]domain.Chunk)
	for _, chunk := range chunks {
		byDoc[chunk.DocumentID] = append(byDoc[chunk.DocumentID], chunk)
	}
	for docID, docChunks := range byDoc {
		sort.Slice(docChunks, func(i, j int) bool {
			return docChunks[i].Position < docChunks[j].Position
		})
		s.chunks[docID] = docChunks
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// GetChunks retrieves all chunks for a document in position order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// ListDocuments returns every ingested document, ordered by ID.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// ListChunks returns every chunk carrying the given corpus version,
// in (document, position) order.
func (s *DocumentStore) ListChunks(_ context.Context, corpusVersion string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docIDs := make([]string, 0, len(s.chunks))
	for docID := range s.chunks {
		docIDs = append(docIDs, docID)
	}
	sort.Strings(docIDs)

	var result []domain.Chunk
	for _, docID := range docIDs {
		for _, chunk := range s.chunks[docID] {
			if chunk.CorpusVersion == corpusVersion {
				result = append(result, chunk)
			}
		}
	}
	return result, nil
}

// DeleteChunks removes all chunks not carrying the given corpus version.
func (s *DocumentStore) DeleteChunks(_ context.Context, keepCorpusVersion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for docID, chunks := range s.chunks {
		kept := chunks[:0]
		for _, chunk := range chunks {
			if chunk.CorpusVersion == keepCorpusVersion {
				kept = append(kept, chunk)
			}
		}
		if len(kept) == 0 {
			delete(s.chunks, docID)
			continue
		}
		s.chunks[docID] = kept
	}
	return nil
}
